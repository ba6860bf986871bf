package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const (
	bucketTTL     = 10 * time.Minute
	bucketCleanup = 15 * time.Minute
)

type RateLimiterConfig struct {
	Rate  rate.Limit
	Burst int
}

// RateLimiter applies a token bucket per client IP, so one noisy client
// cannot exhaust the budget for everyone else. Buckets for idle clients
// expire and are swept away.
type RateLimiter struct {
	cfg     RateLimiterConfig
	buckets *gocache.Cache
}

func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		cfg:     cfg,
		buckets: gocache.New(bucketTTL, bucketCleanup),
	}
}

func (rl *RateLimiter) limiterFor(client string) *rate.Limiter {
	if cached, ok := rl.buckets.Get(client); ok {
		return cached.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(rl.cfg.Rate, rl.cfg.Burst)
	if err := rl.buckets.Add(client, limiter, gocache.DefaultExpiration); err != nil {
		// Lost the race to another request from the same client; use
		// the bucket that won.
		if cached, ok := rl.buckets.Get(client); ok {
			return cached.(*rate.Limiter)
		}
	}
	return limiter
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiterFor(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Code:    http.StatusTooManyRequests,
				Message: "rate limit exceeded",
				TraceID: c.GetString(ContextRequestID),
			})
			return
		}
		c.Next()
	}
}
