// AngelaMos | 2026
// cache.go

package advisory

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	listCachePrefix = "advisory:list:"
	listGenPrefix   = "advisory:gen:"
)

var errStaleGeneration = errors.New("list cache generation moved")

// Generation is the invalidation counter of a user's listings as read
// before the database query that produced them.
type Generation struct {
	n     int64
	valid bool
}

// ListCache stores listing results per participant. Implementations must
// treat every failure as a miss.
type ListCache interface {
	// Get returns the cached listing and the generation to pass to Set on
	// a miss. It must be called before reading the database.
	Get(ctx context.Context, f ListFilter) ([]Advisory, Generation, bool)
	// Set stores advisories only if no invalidation happened since gen
	// was read.
	Set(ctx context.Context, f ListFilter, gen Generation, advisories []Advisory)
	Invalidate(ctx context.Context, userIDs ...string)
}

// NewListCache keeps one Redis hash per user, one field per role/status
// combination, next to a per-user generation counter bumped on every
// invalidation.
func NewListCache(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) ListCache {
	if rdb == nil || ttl <= 0 {
		return noopCache{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &redisListCache{rdb: rdb, ttl: ttl, logger: logger}
}

type redisListCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func listCacheKey(userID string) string {
	return listCachePrefix + userID
}

func listGenKey(userID string) string {
	return listGenPrefix + userID
}

func listCacheField(f ListFilter) string {
	return string(f.Role) + ":" + string(f.Status)
}

func (c *redisListCache) Get(ctx context.Context, f ListFilter) ([]Advisory, Generation, bool) {
	var genCmd, hitCmd *redis.StringCmd
	//nolint:errcheck // each command is inspected below
	_, _ = c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		genCmd = pipe.Get(ctx, listGenKey(f.UserID))
		hitCmd = pipe.HGet(ctx, listCacheKey(f.UserID), listCacheField(f))
		return nil
	})

	n, err := genCmd.Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("advisory cache read failed", "error", err)
		return nil, Generation{}, false
	}
	gen := Generation{n: n, valid: true}

	raw, err := hitCmd.Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("advisory cache read failed", "error", err)
		}
		return nil, gen, false
	}

	var out []Advisory
	if err := json.Unmarshal(raw, &out); err != nil {
		c.logger.Warn("advisory cache decode failed", "error", err)
		return nil, gen, false
	}
	return out, gen, true
}

func (c *redisListCache) Set(ctx context.Context, f ListFilter, gen Generation, advisories []Advisory) {
	if !gen.valid {
		return
	}
	raw, err := json.Marshal(advisories)
	if err != nil {
		return
	}

	genKey, key := listGenKey(f.UserID), listCacheKey(f.UserID)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen.n {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, listCacheField(f), raw)
			pipe.Expire(ctx, key, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("advisory cache write skipped", "user_id", f.UserID)
	default:
		c.logger.Warn("advisory cache write failed", "error", err)
	}
}

// Invalidate bumps each user's generation before dropping the hash, so a
// listing read from the database earlier can no longer be stored.
func (c *redisListCache) Invalidate(ctx context.Context, userIDs ...string) {
	if len(userIDs) == 0 {
		return
	}

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			pipe.Incr(ctx, listGenKey(id))
			pipe.Del(ctx, listCacheKey(id))
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("advisory cache invalidation failed", "error", err)
	}
}

type noopCache struct{}

func (noopCache) Get(context.Context, ListFilter) ([]Advisory, Generation, bool) {
	return nil, Generation{}, false
}

func (noopCache) Set(context.Context, ListFilter, Generation, []Advisory) {}

func (noopCache) Invalidate(context.Context, ...string) {}
