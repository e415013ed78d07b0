package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sifriya/bookstore/internal/config"
	"github.com/sifriya/bookstore/internal/domain/book"
	"github.com/sifriya/bookstore/internal/domain/user"
	"github.com/sifriya/bookstore/internal/http/middlewares"
)

type UsersStore interface {
	List(ctx context.Context) ([]user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	SetAdmin(ctx context.Context, id string, isAdmin bool) (user.User, error)
	Delete(ctx context.Context, id string) error
}

type UserBooksStore interface {
	GetManyByIDs(ctx context.Context, ids []primitive.ObjectID) ([]book.Book, error)
}

type UsersHandler struct {
	users UsersStore
	books UserBooksStore
}

func NewUsersHandler(users UsersStore, books UserBooksStore) *UsersHandler {
	return &UsersHandler{
		users: users,
		books: books,
	}
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	users, err := h.users.List(cctx)

	if err != nil {
		RespondInternal(ctx, "שגיאה בטעינת המשתמשים")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}

// GetUser serves a user's own record, or any record for an admin, with the
// favorites list populated into full book documents.
func (h *UsersHandler) GetUser(ctx *gin.Context) {
	id := ctx.Param("id")

	actor, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "אינך מורשה. נא להתחבר.")
		return
	}

	if actor.ID.Hex() != id && !actor.IsAdmin {
		RespondForbidden(ctx, "אין לך הרשאה לצפות במשתמש זה")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "המשתמש לא נמצא")
			return
		}

		RespondInternal(ctx, "שגיאה בטעינת המשתמש")
		return
	}

	favorites, err := h.books.GetManyByIDs(cctx, u.Favorites)

	if err != nil {
		RespondInternal(ctx, "שגיאה בטעינת המשתמש")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"id":        u.ID.Hex(),
		"name":      u.Name,
		"email":     u.Email,
		"phone":     u.Phone,
		"isAdmin":   u.IsAdmin,
		"favorites": favorites,
		"lastLogin": u.LastLogin,
		"createdAt": u.CreatedAt,
	})
}

// UpdateUserRole flips the admin flag; nothing else on the record is
// editable through this route.
func (h *UsersHandler) UpdateUserRole(ctx *gin.Context) {
	id := ctx.Param("id")

	var req user.UpdateRoleRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.SetAdmin(cctx, id, *req.IsAdmin)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "המשתמש לא נמצא")
			return
		}

		RespondInternal(ctx, "שגיאה בעדכון המשתמש")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "הרשאות המשתמש עודכנו בהצלחה!",
		"user":    u,
	})
}

func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.users.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "המשתמש לא נמצא")
			return
		}

		RespondInternal(ctx, "שגיאה במחיקת המשתמש")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "המשתמש נמחק בהצלחה!",
	})
}
