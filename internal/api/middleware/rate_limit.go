package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DRegan-dev/downward/pkg/response"
)

// RateLimiter sliding-window hit counter
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit allows limit requests per client IP and route within window.
// Counting happens in Redis when store is set; without Redis, or when Redis
// fails, an in-process token bucket per IP takes over.
func RateLimit(store RateLimiter, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	local := newIPLimiter(limit, window)

	return func(c *gin.Context) {
		key := fmt.Sprintf("downward:rate_limit:%s:%s", c.ClientIP(), c.FullPath())

		var allowed bool
		if store != nil {
			var err error
			allowed, err = store.CheckRateLimit(c.Request.Context(), key, limit, window)
			if err != nil {
				logger.Warn("redis rate limit failed, using local limiter", zap.Error(err))
				allowed = local.allow(key)
			}
		} else {
			allowed = local.allow(key)
		}

		if !allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			response.Error(c, http.StatusTooManyRequests, 10004, "too many requests, try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}

// ── in-process fallback ──

const visitorTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter token bucket per key, refilled at limit/window
type ipLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	every     rate.Limit
	burst     int
	lastSweep time.Time
}

func newIPLimiter(limit int, window time.Duration) *ipLimiter {
	if limit <= 0 {
		limit = 1
	}
	return &ipLimiter{
		visitors:  make(map[string]*visitor),
		every:     rate.Every(window / time.Duration(limit)),
		burst:     limit,
		lastSweep: time.Now(),
	}
}

func (l *ipLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastSweep) > time.Minute {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.every, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.Allow()
}
