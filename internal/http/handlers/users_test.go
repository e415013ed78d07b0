package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sifriya/bookstore/internal/auth"
	"github.com/sifriya/bookstore/internal/domain/book"
	"github.com/sifriya/bookstore/internal/domain/user"
	"github.com/sifriya/bookstore/internal/http/handlers"
	"github.com/sifriya/bookstore/internal/http/middlewares"
)

type fakeUsersStore struct {
	listFn     func(ctx context.Context) ([]user.User, error)
	getByIDFn  func(ctx context.Context, id string) (user.User, error)
	setAdminFn func(ctx context.Context, id string, isAdmin bool) (user.User, error)
	deleteFn   func(ctx context.Context, id string) error
}

func (f *fakeUsersStore) List(ctx context.Context) ([]user.User, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return []user.User{}, nil
}

func (f *fakeUsersStore) GetByID(ctx context.Context, id string) (user.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUsersStore) SetAdmin(ctx context.Context, id string, isAdmin bool) (user.User, error) {
	if f.setAdminFn != nil {
		return f.setAdminFn(ctx, id, isAdmin)
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUsersStore) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return user.ErrNotFound
}

// actorAuth satisfies both the token verifier and the user loader, always
// resolving to a fixed acting user.
type actorAuth struct {
	actor user.User
}

func (a actorAuth) Verify(string) (*auth.Claims, error) {
	return &auth.Claims{
		UserID: a.actor.ID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}, nil
}

func (a actorAuth) GetByID(ctx context.Context, id string) (user.User, error) {
	return a.actor, nil
}

func usersRouterAs(actor user.User, store *fakeUsersStore, books *fakeBooks) *gin.Engine {
	mw := middlewares.NewAuthMiddleware(actorAuth{actor: actor}, actorAuth{actor: actor}, 4*time.Hour)
	h := handlers.NewUsersHandler(store, books)

	r := gin.New()

	grp := r.Group("/api/users", mw.RequireAuth())
	grp.GET("/:id", h.GetUser)

	return r
}

func TestGetUser(t *testing.T) {
	self := user.User{ID: primitive.NewObjectID(), Name: "דנה לוי", Email: "dana@example.com"}
	other := user.User{ID: primitive.NewObjectID(), Name: "יוסי כהן", Email: "yossi@example.com"}
	admin := user.User{ID: primitive.NewObjectID(), Name: "מנהל", Email: "admin@example.com", IsAdmin: true}

	store := &fakeUsersStore{
		getByIDFn: func(ctx context.Context, id string) (user.User, error) {
			for _, u := range []user.User{self, other, admin} {
				if u.ID.Hex() == id {
					return u, nil
				}
			}
			return user.User{}, user.ErrNotFound
		},
	}

	tests := []struct {
		name           string
		actor          user.User
		targetID       string
		wantStatusCode int
	}{
		{
			name:           "self",
			actor:          self,
			targetID:       self.ID.Hex(),
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "other_user_forbidden",
			actor:          self,
			targetID:       other.ID.Hex(),
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:           "admin_reads_anyone",
			actor:          admin,
			targetID:       other.ID.Hex(),
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "admin_missing_target",
			actor:          admin,
			targetID:       primitive.NewObjectID().Hex(),
			wantStatusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			r := usersRouterAs(tt.actor, store, &fakeBooks{})

			w := doAuthed(r, http.MethodGet, "/api/users/"+tt.targetID)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestGetUserPopulatesFavorites(t *testing.T) {
	fav := book.Book{ID: primitive.NewObjectID(), Title: "הנסיך הקטן"}

	self := user.User{
		ID:        primitive.NewObjectID(),
		Name:      "דנה לוי",
		Email:     "dana@example.com",
		Favorites: []primitive.ObjectID{fav.ID},
	}

	store := &fakeUsersStore{
		getByIDFn: func(ctx context.Context, id string) (user.User, error) {
			return self, nil
		},
	}

	books := &fakeBooks{
		getManyByIDsFn: func(ctx context.Context, ids []primitive.ObjectID) ([]book.Book, error) {
			if len(ids) != 1 || ids[0] != fav.ID {
				return nil, errors.New("unexpected ids")
			}
			return []book.Book{fav}, nil
		},
	}

	r := usersRouterAs(self, store, books)

	w := doAuthed(r, http.MethodGet, "/api/users/"+self.ID.Hex())

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Favorites []book.Book `json:"favorites"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if len(resp.Favorites) != 1 || resp.Favorites[0].Title != fav.Title {
		t.Fatalf("favorites not populated: %+v", resp.Favorites)
	}
}

func TestListUsers(t *testing.T) {
	store := &fakeUsersStore{
		listFn: func(ctx context.Context) ([]user.User, error) {
			return []user.User{
				{ID: primitive.NewObjectID(), Name: "דנה לוי"},
				{ID: primitive.NewObjectID(), Name: "יוסי כהן"},
			}, nil
		},
	}

	h := handlers.NewUsersHandler(store, &fakeBooks{})
	r := setupRouter(http.MethodGet, "/api/users", h.ListUsers)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.Count != 2 {
		t.Fatalf("got count %d, want 2", resp.Count)
	}
}

func TestUpdateUserRole(t *testing.T) {
	target := user.User{ID: primitive.NewObjectID(), Name: "יוסי כהן", Email: "yossi@example.com"}

	tests := []struct {
		name           string
		targetID       string
		body           string
		storeSetUp     func(*fakeUsersStore)
		wantStatusCode int
		wantIsAdmin    *bool
	}{
		{
			name:     "promote",
			targetID: target.ID.Hex(),
			body:     `{"isAdmin":true}`,
			storeSetUp: func(f *fakeUsersStore) {
				f.setAdminFn = func(ctx context.Context, id string, isAdmin bool) (user.User, error) {
					u := target
					u.IsAdmin = isAdmin
					return u, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantIsAdmin:    boolPtr(true),
		},
		{
			name:     "demote",
			targetID: target.ID.Hex(),
			body:     `{"isAdmin":false}`,
			storeSetUp: func(f *fakeUsersStore) {
				f.setAdminFn = func(ctx context.Context, id string, isAdmin bool) (user.User, error) {
					u := target
					u.IsAdmin = isAdmin
					return u, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantIsAdmin:    boolPtr(false),
		},
		{
			name:           "missing_is_admin_field",
			targetID:       target.ID.Hex(),
			body:           `{}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing_user",
			targetID:       primitive.NewObjectID().Hex(),
			body:           `{"isAdmin":true}`,
			wantStatusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeUsersStore{}

			if tt.storeSetUp != nil {
				tt.storeSetUp(store)
			}

			h := handlers.NewUsersHandler(store, &fakeBooks{})
			r := setupRouter(http.MethodPut, "/api/users/:id", h.UpdateUserRole)

			w := doJSON(r, http.MethodPut, "/api/users/"+tt.targetID, tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantIsAdmin != nil {
				var resp struct {
					User struct {
						IsAdmin bool `json:"isAdmin"`
					} `json:"user"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp.User.IsAdmin != *tt.wantIsAdmin {
					t.Fatalf("got isAdmin=%v, want %v", resp.User.IsAdmin, *tt.wantIsAdmin)
				}
			}
		})
	}
}

func TestDeleteUser(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		store := &fakeUsersStore{
			deleteFn: func(ctx context.Context, id string) error {
				return nil
			},
		}

		h := handlers.NewUsersHandler(store, &fakeBooks{})
		r := setupRouter(http.MethodDelete, "/api/users/:id", h.DeleteUser)

		req := httptest.NewRequest(http.MethodDelete, "/api/users/"+primitive.NewObjectID().Hex(), nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
		}
	})

	t.Run("missing", func(t *testing.T) {
		store := &fakeUsersStore{}

		h := handlers.NewUsersHandler(store, &fakeBooks{})
		r := setupRouter(http.MethodDelete, "/api/users/:id", h.DeleteUser)

		req := httptest.NewRequest(http.MethodDelete, "/api/users/"+primitive.NewObjectID().Hex(), nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
		}
	})
}

func boolPtr(b bool) *bool { return &b }
