package middlewares_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sifriya/bookstore/internal/auth"
	"github.com/sifriya/bookstore/internal/domain/user"
	"github.com/sifriya/bookstore/internal/http/middlewares"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	verifyFn func(token string) (*auth.Claims, error)
}

func (f *fakeVerifier) Verify(token string) (*auth.Claims, error) {
	if f.verifyFn != nil {
		return f.verifyFn(token)
	}
	return nil, errors.New("not configured")
}

type fakeUserLoader struct {
	getFn func(ctx context.Context, id string) (user.User, error)
}

func (f *fakeUserLoader) GetByID(ctx context.Context, id string) (user.User, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return user.User{}, user.ErrNotFound
}

func claimsIssuedAt(userID string, issuedAt time.Time) *auth.Claims {
	return &auth.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(24 * time.Hour)),
			Subject:   userID,
		},
	}
}

func authTestRouter(mw *middlewares.AuthMiddleware, admin bool) *gin.Engine {
	r := gin.New()

	chain := []gin.HandlerFunc{mw.RequireAuth()}
	if admin {
		chain = append(chain, mw.RequireAdmin())
	}

	chain = append(chain, func(c *gin.Context) {
		u, _ := middlewares.UserFromContext(c)
		c.JSON(http.StatusOK, gin.H{"id": u.ID.Hex()})
	})

	r.GET("/protected", chain...)

	return r
}

func TestRequireAuth(t *testing.T) {
	uid := primitive.NewObjectID()
	now := time.Now().UTC()

	knownUser := user.User{ID: uid, Name: "דנה", Email: "dana@example.com"}

	tests := []struct {
		name           string
		authHeader     string
		verifier       *fakeVerifier
		loader         *fakeUserLoader
		wantStatusCode int
	}{
		{
			name:           "missing_header",
			authHeader:     "",
			verifier:       &fakeVerifier{},
			loader:         &fakeUserLoader{},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "not_bearer",
			authHeader:     "Basic abc123",
			verifier:       &fakeVerifier{},
			loader:         &fakeUserLoader{},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:       "invalid_token",
			authHeader: "Bearer bad-token",
			verifier: &fakeVerifier{
				verifyFn: func(token string) (*auth.Claims, error) {
					return nil, auth.ErrInvalidToken
				},
			},
			loader:         &fakeUserLoader{},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			// cryptographically valid but issued more than 4 hours ago
			name:       "session_too_old",
			authHeader: "Bearer stale",
			verifier: &fakeVerifier{
				verifyFn: func(token string) (*auth.Claims, error) {
					return claimsIssuedAt(uid.Hex(), now.Add(-5*time.Hour)), nil
				},
			},
			loader: &fakeUserLoader{
				getFn: func(ctx context.Context, id string) (user.User, error) {
					return knownUser, nil
				},
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:       "user_deleted_after_issuance",
			authHeader: "Bearer ok",
			verifier: &fakeVerifier{
				verifyFn: func(token string) (*auth.Claims, error) {
					return claimsIssuedAt(uid.Hex(), now), nil
				},
			},
			loader: &fakeUserLoader{
				getFn: func(ctx context.Context, id string) (user.User, error) {
					return user.User{}, user.ErrNotFound
				},
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:       "success",
			authHeader: "Bearer ok",
			verifier: &fakeVerifier{
				verifyFn: func(token string) (*auth.Claims, error) {
					return claimsIssuedAt(uid.Hex(), now), nil
				},
			},
			loader: &fakeUserLoader{
				getFn: func(ctx context.Context, id string) (user.User, error) {
					if id != uid.Hex() {
						return user.User{}, user.ErrNotFound
					}
					return knownUser, nil
				},
			},
			wantStatusCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			mw := middlewares.NewAuthMiddleware(tt.verifier, tt.loader, 4*time.Hour)
			r := authTestRouter(mw, false)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	uid := primitive.NewObjectID()
	now := time.Now().UTC()

	tests := []struct {
		name           string
		isAdmin        bool
		wantStatusCode int
	}{
		{name: "admin_allowed", isAdmin: true, wantStatusCode: http.StatusOK},
		{name: "regular_user_forbidden", isAdmin: false, wantStatusCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			verifier := &fakeVerifier{
				verifyFn: func(token string) (*auth.Claims, error) {
					return claimsIssuedAt(uid.Hex(), now), nil
				},
			}
			loader := &fakeUserLoader{
				getFn: func(ctx context.Context, id string) (user.User, error) {
					return user.User{ID: uid, IsAdmin: tt.isAdmin}, nil
				},
			}

			mw := middlewares.NewAuthMiddleware(verifier, loader, 4*time.Hour)
			r := authTestRouter(mw, true)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer ok")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestRequireAuthEndToEndWithRealTokens(t *testing.T) {
	uid := primitive.NewObjectID()
	manager := auth.NewManager("test-secret", 24*time.Hour)

	loader := &fakeUserLoader{
		getFn: func(ctx context.Context, id string) (user.User, error) {
			return user.User{ID: uid}, nil
		},
	}

	mw := middlewares.NewAuthMiddleware(manager, loader, 4*time.Hour)
	r := authTestRouter(mw, false)

	token, err := manager.Generate(uid.Hex())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	// a hand-built token with an old issued-at must be rejected even though
	// its signature and expiry are fine
	oldClaims := auth.Claims{
		UserID: uid.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC().Add(-5 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(19 * time.Hour)),
			Subject:   uid.Hex(),
		},
	}

	oldToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, oldClaims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+oldToken)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("stale session accepted, status %d", w.Code)
	}
}
