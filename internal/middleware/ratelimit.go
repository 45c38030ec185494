// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/advisory-backend/internal/core"
)

var ErrRateLimited = errors.New("rate limited")

func PerMinute(rate, burst int) redis_rate.Limit {
	return redis_rate.Limit{Rate: rate, Burst: burst, Period: time.Minute}
}

// Limiter counts requests in Redis and falls back to per-process token
// buckets when Redis is absent or failing.
type Limiter struct {
	remote *redis_rate.Limiter
	local  *localLimiter
	logger *slog.Logger
}

func NewLimiter(rdb *redis.Client, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Limiter{local: newLocalLimiter(), logger: logger}
	if rdb != nil {
		l.remote = redis_rate.NewLimiter(rdb)
	}
	return l
}

func (l *Limiter) Allow(ctx context.Context, key string, limit redis_rate.Limit) *redis_rate.Result {
	if l.remote != nil {
		res, err := l.remote.Allow(ctx, key, limit)
		if err == nil {
			return res
		}
		l.logger.Debug("rate limit store unavailable, using local buckets",
			"key", key,
			"error", err,
		)
	}
	return l.local.allow(key, limit, time.Now())
}

// RateLimit applies one limit to every request, bucketed by keyFn.
func RateLimit(
	l *Limiter,
	limit redis_rate.Limit,
	keyFn func(*http.Request) string,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if enforce(w, l.Allow(r.Context(), keyFn(r), limit), limit) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RoleLimits maps a caller role to the limit applied to it. The "" entry is
// the default for roles without their own entry.
type RoleLimits map[string]redis_rate.Limit

func (rl RoleLimits) For(role string) (redis_rate.Limit, bool) {
	if limit, ok := rl[role]; ok {
		return limit, true
	}
	limit, ok := rl[""]
	return limit, ok
}

// RoleRateLimit limits authenticated callers per user, with the limit
// chosen by role. It must run after Authenticator. Roles with no limit and
// no default pass through.
func RoleRateLimit(l *Limiter, scope string, limits RoleLimits) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit, ok := limits.For(GetUserRole(r.Context()))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			key := "ratelimit:" + scope + ":" + KeyByUser(r)
			if enforce(w, l.Allow(r.Context(), key, limit), limit) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// enforce writes the rate limit headers and, when the request is over the
// limit, the 429 response. It reports whether the request may proceed.
func enforce(w http.ResponseWriter, res *redis_rate.Result, limit redis_rate.Limit) bool {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(res.ResetAfter).Unix(), 10))
	h.Set("RateLimit-Policy", fmt.Sprintf("%d;w=%d", limit.Rate, int(limit.Period.Seconds())))

	if res.Allowed > 0 {
		return true
	}

	retry := max(int(res.RetryAfter.Seconds()), 1)
	h.Set("Retry-After", strconv.Itoa(retry))
	core.JSONError(w, core.NewAppError(
		ErrRateLimited,
		fmt.Sprintf("Rate limit exceeded. Retry after %d seconds.", retry),
		http.StatusTooManyRequests,
		"RATE_LIMITED",
	))
	return false
}

// ClientIP returns the address of the nearest proxy hop when the request
// was forwarded, else the peer address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		return strings.TrimSpace(hops[len(hops)-1])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func KeyByIP(r *http.Request) string {
	return "ratelimit:ip:" + ClientIP(r)
}

func KeyByUser(r *http.Request) string {
	if id := GetUserID(r.Context()); id != "" {
		return "ratelimit:user:" + id
	}
	return KeyByIP(r)
}

const bucketIdleTTL = 10 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localLimiter keeps one token bucket per key. Idle buckets are swept
// while allowing, at most once per bucketIdleTTL.
type localLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newLocalLimiter() *localLimiter {
	return &localLimiter{buckets: make(map[string]*bucket), lastSweep: time.Now()}
}

func (l *localLimiter) allow(key string, limit redis_rate.Limit, now time.Time) *redis_rate.Result {
	perSecond := float64(limit.Rate) / limit.Period.Seconds()
	interval := time.Duration(float64(time.Second) / perSecond)

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > bucketIdleTTL {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > bucketIdleTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(perSecond), limit.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	res := &redis_rate.Result{
		Limit:      limit,
		RetryAfter: -1,
		ResetAfter: interval,
	}
	if b.limiter.AllowN(now, 1) {
		res.Allowed = 1
	} else {
		res.RetryAfter = interval
	}
	res.Remaining = max(int(b.limiter.TokensAt(now)), 0)
	return res
}

func (l *localLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
