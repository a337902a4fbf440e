package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterInfo is a struct that holds a rate limiter and the last time it was seen.
type limiterInfo struct {
	limiter *rate.Limiter

	mu       sync.Mutex
	lastSeen time.Time
}

func (l *limiterInfo) touch() {
	l.mu.Lock()
	l.lastSeen = time.Now()
	l.mu.Unlock()
}

func (l *limiterInfo) idleFor() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return time.Since(l.lastSeen)
}

// RateLimitByKey applies rate limiting per key returned by keyFunc. Limiters
// unused for longer than expiration are dropped every cleanupInterval.
func RateLimitByKey(rps int, cleanupInterval, expiration time.Duration, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	var limiters sync.Map

	// Cleanup goroutine
	go func() {
		for range time.Tick(cleanupInterval) {
			limiters.Range(func(key, value interface{}) bool {
				if value.(*limiterInfo).idleFor() > expiration {
					limiters.Delete(key)
				}
				return true
			})
		}
	}()

	return func(c *gin.Context) {
		key := keyFunc(c)

		// Use LoadOrStore to ensure thread safety
		actual, _ := limiters.LoadOrStore(key, &limiterInfo{
			limiter:  rate.NewLimiter(rate.Limit(rps), rps),
			lastSeen: time.Now(),
		})

		info := actual.(*limiterInfo)
		info.touch()

		if !info.limiter.Allow() {
			// Too many requests
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RateLimitByIP applies rate limiting to requests per IP address.
func RateLimitByIP(rps int, cleanupInterval, expiration time.Duration) gin.HandlerFunc {
	return RateLimitByKey(rps, cleanupInterval, expiration, func(c *gin.Context) string {
		return c.ClientIP()
	})
}

// RateLimitBySession limits per session id, falling back to the client IP
// before a session is known.
func RateLimitBySession(rps int, cleanupInterval, expiration time.Duration) gin.HandlerFunc {
	return RateLimitByKey(rps, cleanupInterval, expiration, func(c *gin.Context) string {
		if sid := SessionID(c); sid != "" {
			return "session:" + sid
		}
		return "ip:" + c.ClientIP()
	})
}
