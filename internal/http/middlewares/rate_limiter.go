package middlewares

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a process-wide fixed-window counter: one bucket for all
// clients, sized for a daily request ceiling. There is no queueing; once the
// window is full every request is rejected until the window rolls over.
type RateLimiter struct {
	mu        sync.Mutex
	window    time.Duration
	limit     int
	count     int
	windowEnd time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: window,
	}
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		now := time.Now()

		rl.mu.Lock()

		if now.After(rl.windowEnd) {
			rl.count = 0
			rl.windowEnd = now.Add(rl.window)
		}

		if rl.count >= rl.limit {
			retryAfter := int(time.Until(rl.windowEnd).Seconds())

			if retryAfter < 0 {
				retryAfter = 0
			}

			rl.mu.Unlock()

			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "מספר הבקשות חרג מהמגבלה היומית. נסה שוב מחר.",
			})

			return
		}

		rl.count++
		rl.mu.Unlock()
		c.Next()
	}
}
