package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiterConfig struct {
	RequestsPerSecond float64
	Burst             int
	CleanupInterval   time.Duration
	TTL               time.Duration
}

// visitors tracks one token bucket per client IP
type visitors struct {
	mu    sync.Mutex
	cfg   RateLimiterConfig
	byIP  map[string]*visitor
	clock func() time.Time
}

func (v *visitors) get(ip string) *rate.Limiter {
	v.mu.Lock()
	defer v.mu.Unlock()

	vis, exists := v.byIP[ip]
	if !exists {
		limiter := rate.NewLimiter(rate.Limit(v.cfg.RequestsPerSecond), v.cfg.Burst)
		v.byIP[ip] = &visitor{limiter, v.clock()}
		return limiter
	}

	vis.lastSeen = v.clock()
	return vis.limiter
}

func (v *visitors) cleanup() {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.clock()
	for ip, vis := range v.byIP {
		if now.Sub(vis.lastSeen) > v.cfg.TTL {
			delete(v.byIP, ip)
		}
	}
}

// RateLimiterMiddleware limits requests per client IP. Idle visitors are
// forgotten in the background until ctx is done.
func RateLimiterMiddleware(ctx context.Context, config RateLimiterConfig) gin.HandlerFunc {
	if config.CleanupInterval == 0 {
		config.CleanupInterval = time.Minute
	}
	if config.TTL == 0 {
		config.TTL = 3 * time.Minute
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}

	v := &visitors{
		cfg:   config,
		byIP:  make(map[string]*visitor),
		clock: time.Now,
	}

	go func() {
		ticker := time.NewTicker(config.CleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				v.cleanup()
			}
		}
	}()

	return func(c *gin.Context) {
		if !v.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":     "Too many requests",
				"requestID": c.GetString("requestID"),
			})
			return
		}

		c.Next()
	}
}
