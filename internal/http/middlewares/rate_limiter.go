package middlewares

import (
	"context"
	"log/slog"
	"math"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/geocoder89/rxtrack/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

// WindowCounter counts hits per key in fixed windows. redisclient.Client implements it for
// deployments with several replicas; MemoryCounter serves a single process.
type WindowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}

// LimitObserver is told about every rejected request. It may be nil.
type LimitObserver interface {
	ObserveRateLimited(scope string)
}

type RateLimiter struct {
	counter WindowCounter
	scope   string
	limit   int64
	window  time.Duration
	obs     LimitObserver
}

func NewRateLimiter(counter WindowCounter, scope string, limit int, window time.Duration, obs LimitObserver) *RateLimiter {
	return &RateLimiter{
		counter: counter,
		scope:   scope,
		limit:   int64(limit),
		window:  window,
		obs:     obs,
	}
}

// RateLimiterMiddleware enforces the limit for a derived key. Counter failures let the request
// through.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived
			key = clientIP(c)
		}

		count, ttl, err := rl.counter.Hit(c.Request.Context(), "ratelimit:"+rl.scope+":"+key, rl.window)
		if err != nil {
			slog.Default().WarnContext(c.Request.Context(), "rate_limit_counter_failed",
				"scope", rl.scope,
				"err", err,
			)
			c.Next()
			return
		}

		if count > rl.limit {
			if rl.obs != nil {
				rl.obs.ObserveRateLimited(rl.scope)
			}

			retryAfter := int(math.Ceil(ttl.Seconds()))
			if retryAfter < 0 {
				retryAfter = 0
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			handlers.RespondTooManyRequests(c, "Too many requests. Please try again shortly.")
			return
		}

		c.Next()
	}
}

// MemoryCounter keeps fixed-window buckets in process memory.
type MemoryCounter struct {
	mu      sync.Mutex
	now     func() time.Time
	clients map[string]*clientBucket
}

type clientBucket struct {
	count     int64
	windowEnd time.Time
}

// buckets past this size get their expired entries swept on the next hit
const sweepThreshold = 4096

func NewMemoryCounter(now func() time.Time) *MemoryCounter {
	if now == nil {
		now = time.Now
	}
	return &MemoryCounter{
		now:     now,
		clients: make(map[string]*clientBucket),
	}
}

func (m *MemoryCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.clients) > sweepThreshold {
		for k, b := range m.clients {
			if !now.Before(b.windowEnd) {
				delete(m.clients, k)
			}
		}
	}

	b, ok := m.clients[key]
	if !ok || !now.Before(b.windowEnd) {
		b = &clientBucket{windowEnd: now.Add(window)}
		m.clients[key] = b
	}

	b.count++

	return b.count, b.windowEnd.Sub(now), nil
}

// KeyByIP is for unauthenticated endpoints.
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
