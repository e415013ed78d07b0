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
	"github.com/sifriya/bookstore/internal/http/middlewares"
)

type FavoritesUsersStore interface {
	SetFavorites(ctx context.Context, id string, favorites []primitive.ObjectID) error
}

type FavoritesBooksStore interface {
	GetByID(ctx context.Context, id string) (book.Book, error)
	GetManyByIDs(ctx context.Context, ids []primitive.ObjectID) ([]book.Book, error)
	SetFavoriteCount(ctx context.Context, id string, count int) error
}

type FavoritesHandler struct {
	users FavoritesUsersStore
	books FavoritesBooksStore
}

func NewFavoritesHandler(users FavoritesUsersStore, books FavoritesBooksStore) *FavoritesHandler {
	return &FavoritesHandler{
		users: users,
		books: books,
	}
}

// ListFavorites returns the authenticated user's favorite books. Favorites
// pointing at deleted books are silently skipped.
func (h *FavoritesHandler) ListFavorites(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "אינך מורשה. נא להתחבר.")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	favorites, err := h.books.GetManyByIDs(cctx, u.Favorites)

	if err != nil {
		RespondInternal(ctx, "שגיאה בטעינת המועדפים")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"favorites": favorites,
	})
}

// ToggleFavorite adds or removes a book from the user's favorites and
// adjusts the book's favoriteCount. The two writes are independent: a crash
// between them can leave count and membership out of sync, and concurrent
// toggles on the same book can lose a count update. The counter is
// informational only.
func (h *FavoritesHandler) ToggleFavorite(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "אינך מורשה. נא להתחבר.")
		return
	}

	bookID := ctx.Param("bookId")

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	b, err := h.books.GetByID(cctx, bookID)

	if err != nil {
		if errors.Is(err, book.ErrNotFound) {
			RespondNotFound(ctx, "הספר לא נמצא")
			return
		}

		RespondInternal(ctx, "שגיאה בעדכון המועדפים")
		return
	}

	if u.HasFavorite(b.ID) {
		favorites := make([]primitive.ObjectID, 0, len(u.Favorites))

		for _, id := range u.Favorites {
			if id != b.ID {
				favorites = append(favorites, id)
			}
		}

		count := b.FavoriteCount - 1

		if count < 0 {
			count = 0
		}

		if err := h.users.SetFavorites(cctx, u.ID.Hex(), favorites); err != nil {
			RespondInternal(ctx, "שגיאה בעדכון המועדפים")
			return
		}

		if err := h.books.SetFavoriteCount(cctx, bookID, count); err != nil {
			RespondInternal(ctx, "שגיאה בעדכון המועדפים")
			return
		}

		ctx.JSON(http.StatusOK, gin.H{
			"message":    "הספר הוסר מהמועדפים",
			"isFavorite": false,
		})
		return
	}

	favorites := append(append([]primitive.ObjectID{}, u.Favorites...), b.ID)

	if err := h.users.SetFavorites(cctx, u.ID.Hex(), favorites); err != nil {
		RespondInternal(ctx, "שגיאה בעדכון המועדפים")
		return
	}

	if err := h.books.SetFavoriteCount(cctx, bookID, b.FavoriteCount+1); err != nil {
		RespondInternal(ctx, "שגיאה בעדכון המועדפים")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":    "הספר נוסף למועדפים!",
		"isFavorite": true,
	})
}
