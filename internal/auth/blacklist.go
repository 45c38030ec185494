// AngelaMos | 2026
// blacklist.go

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blacklist remembers access token ids that were logged out before they
// expired.
type Blacklist interface {
	Add(ctx context.Context, jti string, until time.Time) error
	Contains(ctx context.Context, jti string) (bool, error)
}

const blacklistPrefix = "auth:blacklist:"

// NewBlacklist returns a Redis backed blacklist. A nil client yields one
// that records nothing, leaving revocation to token version bumps.
func NewBlacklist(rdb *redis.Client) Blacklist {
	if rdb == nil {
		return noBlacklist{}
	}
	return &redisBlacklist{rdb: rdb}
}

type redisBlacklist struct {
	rdb *redis.Client
}

func (b *redisBlacklist) Add(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := b.rdb.Set(ctx, blacklistPrefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

func (b *redisBlacklist) Contains(ctx context.Context, jti string) (bool, error) {
	n, err := b.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return n > 0, nil
}

type noBlacklist struct{}

func (noBlacklist) Add(context.Context, string, time.Time) error { return nil }

func (noBlacklist) Contains(context.Context, string) (bool, error) { return false, nil }
