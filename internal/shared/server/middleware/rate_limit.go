package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"letterhead-backend/internal/shared/server/respond"
)

const (
	defaultRateLimitGroup = "DEFAULT"

	// RenderRateLimitGroup covers PDF rasterization and export routes.
	RenderRateLimitGroup = "RENDER"
)

// RateLimitRule is a token bucket: Rate tokens per second, up to Burst.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

// RateLimitConfig maps groups to rules. GroupFor picks the group of a
// request; requests in a group without a rule pass through.
type RateLimitConfig struct {
	Rules        map[string]RateLimitRule
	DefaultGroup string
	GroupFor     func(*gin.Context) string
	Limiter      *RateLimiter
}

// DefaultRateLimitIdle is how long an untouched bucket survives.
const DefaultRateLimitIdle = 10 * time.Minute

// RateLimiter keeps one bucket per principal and group. Buckets idle for
// longer than Idle are dropped by a sweep that runs at most once per Idle.
type RateLimiter struct {
	Idle time.Duration

	mu        sync.Mutex
	buckets   map[string]*bucketEntry
	lastSweep time.Time
	now       func() time.Time
}

type bucketEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter reads time from now, or the wall clock when now is nil.
func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		Idle:      DefaultRateLimitIdle,
		buckets:   make(map[string]*bucketEntry),
		lastSweep: now(),
		now:       now,
	}
}

// Allow takes one token from key's bucket. When none is left it reports how
// long until one will be.
func (l *RateLimiter) Allow(key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil || rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0
	}
	now := l.now()

	l.mu.Lock()
	l.sweepLocked(now)
	entry, ok := l.buckets[key]
	if !ok {
		entry = &bucketEntry{limiter: rate.NewLimiter(rate.Limit(rule.Rate), rule.Burst)}
		l.buckets[key] = entry
	}
	entry.lastSeen = now
	bucket := entry.limiter
	l.mu.Unlock()

	reservation := bucket.ReserveN(now, 1)
	if !reservation.OK() {
		return false, time.Second
	}
	if wait := reservation.DelayFrom(now); wait > 0 {
		reservation.CancelAt(now)
		return false, wait
	}
	return true, 0
}

func (l *RateLimiter) sweepLocked(now time.Time) {
	idle := l.Idle
	if idle <= 0 || now.Sub(l.lastSweep) < idle {
		return
	}
	l.lastSweep = now
	for key, entry := range l.buckets {
		if now.Sub(entry.lastSeen) >= idle {
			delete(l.buckets, key)
		}
	}
}

// Len reports how many buckets are live.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// RateLimit throttles per user id, falling back to the client IP for
// requests that carry no identity.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = NewRateLimiter(nil)
	}
	if cfg.DefaultGroup == "" {
		cfg.DefaultGroup = defaultRateLimitGroup
	}
	return func(c *gin.Context) {
		group := cfg.DefaultGroup
		if cfg.GroupFor != nil {
			if g := strings.TrimSpace(cfg.GroupFor(c)); g != "" {
				group = g
			}
		}
		rule, ok := cfg.Rules[group]
		if !ok {
			c.Next()
			return
		}

		principal := strings.TrimSpace(UserIDFromContext(c))
		if principal == "" {
			principal = c.ClientIP()
		}
		allowed, wait := cfg.Limiter.Allow(principal+"|"+group, rule)
		if allowed {
			c.Next()
			return
		}

		waitMs := wait.Milliseconds()
		if waitMs <= 0 {
			waitMs = 1000
		}
		c.Header("Retry-After", strconv.FormatInt((waitMs+999)/1000, 10))
		respond.Error(c, http.StatusTooManyRequests, respond.CodeRateLimited, "Terlalu banyak permintaan, coba lagi sebentar lagi", gin.H{
			"group":        group,
			"retryAfterMs": waitMs,
		})
	}
}
