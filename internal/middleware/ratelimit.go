package middleware

import (
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tradejournal/pkg/response"
)

// rateLimiterPool keeps one token bucket per authenticated user
type rateLimiterPool struct {
	mu       sync.Mutex
	limiters map[uint]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func (p *rateLimiterPool) get(userID uint) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	limiter, ok := p.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(p.limit, p.burst)
		p.limiters[userID] = limiter
	}
	return limiter
}

// UploadRateLimit throttles expensive upload processing per user. Must run
// after AuthMiddleware so the user is known.
func UploadRateLimit(perMinute int) gin.HandlerFunc {
	pool := &rateLimiterPool{
		limiters: make(map[uint]*rate.Limiter),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    perMinute,
	}
	return func(c *gin.Context) {
		userID := GetUserID(c)
		if userID == 0 {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}
		if !pool.get(userID).Allow() {
			response.TooManyRequests(c, "too many uploads, slow down")
			c.Abort()
			return
		}
		c.Next()
	}
}
