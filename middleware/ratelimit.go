package middleware

import (
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

// RateLimiter keeps one token bucket per client IP
type RateLimiter struct {
	visitors      map[string]*visitor
	mu            sync.Mutex
	rate          rate.Limit // tokens per second
	bucketSize    int
	idleTimeout   time.Duration
	sweepInterval time.Duration
	lastSweep     time.Time
}

func NewRateLimiter(perSecond float64, bucketSize int) *RateLimiter {
	return &RateLimiter{
		visitors:      make(map[string]*visitor),
		rate:          rate.Limit(perSecond),
		bucketSize:    bucketSize,
		idleTimeout:   10 * time.Minute,
		sweepInterval: time.Minute,
		lastSweep:     time.Now(),
	}
}

// Allow takes one token from the bucket of ip
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastSweep) > rl.sweepInterval {
		rl.sweep(now)
	}

	v, exists := rl.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.bucketSize)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now

	return v.limiter.AllowN(now, 1)
}

// sweep forgets clients idle for longer than idleTimeout
func (rl *RateLimiter) sweep(now time.Time) {
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.idleTimeout {
			delete(rl.visitors, ip)
		}
	}
	rl.lastSweep = now
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}

		c.Next()
	}
}
