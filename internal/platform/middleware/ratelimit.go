package middleware

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/claimease/claimease/internal/platform/apperr"
	"github.com/claimease/claimease/internal/platform/auth"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// Decision is the outcome of a single rate limit check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// idleLimiterTTL is how long an unused per-key limiter is kept.
const idleLimiterTTL = 10 * time.Minute

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter is an in-process token bucket per key.
type MemoryLimiter struct {
	mu       sync.Mutex
	limiters map[string]*keyedLimiter
	cfg      RateLimitConfig
	now      func() time.Time
}

func NewMemoryLimiter(cfg RateLimitConfig) *MemoryLimiter {
	return &MemoryLimiter{
		limiters: make(map[string]*keyedLimiter),
		cfg:      cfg,
		now:      time.Now,
	}
}

func (m *MemoryLimiter) get(key string, now time.Time) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	kl, ok := m.limiters[key]
	if !ok {
		kl = &keyedLimiter{limiter: rate.NewLimiter(rate.Limit(m.cfg.RequestsPerSecond), m.cfg.BurstSize)}
		m.limiters[key] = kl
	}
	kl.lastSeen = now
	return kl.limiter
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := m.now()
	lim := m.get(key, now)

	d := Decision{Limit: m.cfg.BurstSize}
	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return d, nil
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		d.RetryAfter = delay
		return d, nil
	}
	d.Allowed = true
	d.Remaining = int(math.Max(0, math.Floor(lim.TokensAt(now))))
	return d, nil
}

// Sweep drops limiters idle for longer than idleLimiterTTL.
func (m *MemoryLimiter) Sweep() int {
	cutoff := m.now().Add(-idleLimiterTTL)
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for k, kl := range m.limiters {
		if kl.lastSeen.Before(cutoff) {
			delete(m.limiters, k)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is done.
func (m *MemoryLimiter) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Sweep()
			}
		}
	}()
}

// KeyFunc names the bucket a request is charged to.
type KeyFunc func(c echo.Context) string

// IPKey charges every request to the client IP.
func IPKey(c echo.Context) string { return "ip:" + c.RealIP() }

// UserOrIPKey charges requests carrying a valid bearer token to the user and
// everything else to the client IP. It runs ahead of RequireUser, so it
// verifies the token itself.
func UserOrIPKey(v auth.Verifier) KeyFunc {
	return func(c echo.Context) string {
		if uid, ok := auth.UserIDFromContext(c.Request().Context()); ok {
			return "user:" + strconv.FormatInt(uid, 10)
		}
		token, err := auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return IPKey(c)
		}
		uid, err := v.Verify(token)
		if err != nil {
			return IPKey(c)
		}
		return "user:" + strconv.FormatInt(uid, 10)
	}
}

// RateLimit rejects callers over their limit with a RateLimited error. A nil
// key charges by client IP. A limiter error lets the request through.
func RateLimit(limiter Limiter, keyFn KeyFunc, logger zerolog.Logger) echo.MiddlewareFunc {
	if keyFn == nil {
		keyFn = IPKey
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := keyFn(c)

			d, err := limiter.Allow(c.Request().Context(), key)
			if err != nil {
				logger.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable, allowing request")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				secs := int(math.Ceil(d.RetryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				h.Set("Retry-After", strconv.Itoa(secs))
				return apperr.New(apperr.KindRateLimited, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
