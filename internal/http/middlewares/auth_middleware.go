package middlewares

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sifriya/bookstore/internal/auth"
	"github.com/sifriya/bookstore/internal/domain/user"
)

// Keep these interfaces small so tests can fake them easily.

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type UserLoader interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type AuthMiddleware struct {
	jwt        TokenVerifier
	users      UserLoader
	sessionMax time.Duration
}

func NewAuthMiddleware(jwt TokenVerifier, users UserLoader, sessionMax time.Duration) *AuthMiddleware {
	return &AuthMiddleware{
		jwt:        jwt,
		users:      users,
		sessionMax: sessionMax,
	}
}

// RequireAuth verifies the bearer token, enforces the session age cap and
// attaches the acting user (password excluded) to the gin context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "אינך מורשה. נא להתחבר.",
			})
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "אינך מורשה. נא להתחבר.",
			})
			return
		}

		claims, err := m.jwt.Verify(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "אסימון לא תקין",
			})
			return
		}

		// tokens older than the session cap are rejected even when the
		// token itself has not expired yet
		if m.sessionMax > 0 && claims.IssuedAt != nil {
			if time.Since(claims.IssuedAt.Time) > m.sessionMax {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"message": "הזמן עבר. נא להתחבר שוב.",
				})
				return
			}
		}

		u, err := m.users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			// the user may have been deleted after the token was issued
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "משתמש לא נמצא",
			})
			return
		}

		c.Set(ctxUserKey, u)

		c.Next()
	}
}

// UserFromContext returns the authenticated user attached by RequireAuth.
func UserFromContext(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}
