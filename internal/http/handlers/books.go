package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sifriya/bookstore/internal/config"
	"github.com/sifriya/bookstore/internal/domain/book"
)

type BooksStore interface {
	Create(ctx context.Context, req book.CreateBookRequest) (book.Book, error)
	List(ctx context.Context, f book.ListFilter) ([]book.Book, error)
	GetByID(ctx context.Context, id string) (book.Book, error)
	Update(ctx context.Context, id string, req book.CreateBookRequest) (book.Book, error)
	Delete(ctx context.Context, id string) error
}

type BooksHandler struct {
	repo BooksStore
}

func NewBooksHandler(repo BooksStore) *BooksHandler {
	return &BooksHandler{repo: repo}
}

func (h *BooksHandler) ListBooks(ctx *gin.Context) {
	filter := book.ListFilter{
		Search:   ctx.Query("search"),
		Category: ctx.Query("category"),
		Sort:     ctx.Query("sort"),
	}

	if raw := ctx.Query("minPrice"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)

		if err != nil {
			RespondBadRequest(ctx, "טווח המחירים אינו תקין")
			return
		}

		filter.MinPrice = &v
	}

	if raw := ctx.Query("maxPrice"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)

		if err != nil {
			RespondBadRequest(ctx, "טווח המחירים אינו תקין")
			return
		}

		filter.MaxPrice = &v
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	books, err := h.repo.List(cctx, filter)

	if err != nil {
		RespondInternal(ctx, "שגיאה בטעינת הספרים")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"books": books,
		"count": len(books),
	})
}

func (h *BooksHandler) GetBookByID(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	b, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, book.ErrNotFound) {
			RespondNotFound(ctx, "הספר לא נמצא")
			return
		}
		RespondInternal(ctx, "שגיאה בטעינת הספר")
		return
	}

	ctx.JSON(http.StatusOK, b)
}

func (h *BooksHandler) CreateBook(ctx *gin.Context) {
	var req book.CreateBookRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		RespondBadRequest(ctx, err.Error())
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	b, err := h.repo.Create(cctx, req)

	if err != nil {
		if errors.Is(err, book.ErrISBNTaken) {
			RespondBadRequest(ctx, "ספר עם מסת\"ב זה כבר קיים")
			return
		}

		RespondInternal(ctx, "שגיאה ביצירת הספר")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "הספר נוסף בהצלחה!",
		"book":    b,
	})
}

func (h *BooksHandler) UpdateBook(ctx *gin.Context) {
	id := ctx.Param("id")

	var req book.CreateBookRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		RespondBadRequest(ctx, err.Error())
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	b, err := h.repo.Update(cctx, id, req)

	if err != nil {
		switch {
		case errors.Is(err, book.ErrNotFound):
			RespondNotFound(ctx, "הספר לא נמצא")
		case errors.Is(err, book.ErrISBNTaken):
			RespondBadRequest(ctx, "ספר עם מסת\"ב זה כבר קיים")
		default:
			RespondInternal(ctx, "שגיאה בעדכון הספר")
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "הספר עודכן בהצלחה!",
		"book":    b,
	})
}

func (h *BooksHandler) DeleteBook(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, book.ErrNotFound) {
			RespondNotFound(ctx, "הספר לא נמצא")
			return
		}

		RespondInternal(ctx, "שגיאה במחיקת הספר")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "הספר נמחק בהצלחה!",
	})
}
