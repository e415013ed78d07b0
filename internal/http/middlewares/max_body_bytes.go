package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxBodyBytes caps the request body size. Oversized payloads are rejected
// up front; the largest legitimate body here is a book document, far below
// the cap.
func MaxBodyBytes(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"message": "גוף הבקשה גדול מדי",
			})
			return
		}

		// Content-Length can lie (or be absent on chunked bodies), so the
		// reader enforces the same cap during the actual read.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

		c.Next()
	}
}
