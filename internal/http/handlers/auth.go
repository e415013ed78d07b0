package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sifriya/bookstore/internal/config"
	"github.com/sifriya/bookstore/internal/domain/user"
	"github.com/sifriya/bookstore/internal/security"
)

type TokenIssuer interface {
	Generate(userID string) (string, error)
}

type AuthUsersStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	SetLastLogin(ctx context.Context, id string, t time.Time) error
}

type AuthHandler struct {
	users AuthUsersStore
	jwt   TokenIssuer
}

func NewAuthHandler(users AuthUsersStore, jwt TokenIssuer) *AuthHandler {
	return &AuthHandler{
		users: users,
		jwt:   jwt,
	}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		RespondBadRequest(ctx, err.Error())
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "שגיאה ביצירת המשתמש")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	u, err := h.users.Create(cctx, user.NewFromRegisterRequest(req, hash))

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondBadRequest(ctx, "משתמש עם אימייל זה כבר קיים")
			return
		}

		RespondInternal(ctx, "שגיאה ביצירת המשתמש")
		return
	}

	token, err := h.jwt.Generate(u.ID.Hex())

	if err != nil {
		RespondInternal(ctx, "שגיאה ביצירת המשתמש")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "נרשמת בהצלחה!",
		"token":   token,
		"user":    u.Public(),
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		// same message for an unknown email and a wrong password
		RespondUnauthorized(ctx, "אימייל או סיסמה שגויים")
		return
	}

	err = security.CheckPassword(foundUser.Password, req.Password)

	if err != nil {
		RespondUnauthorized(ctx, "אימייל או סיסמה שגויים")
		return
	}

	if err := h.users.SetLastLogin(cctx, foundUser.ID.Hex(), time.Now().UTC()); err != nil {
		RespondInternal(ctx, "שגיאה בהתחברות")
		return
	}

	token, err := h.jwt.Generate(foundUser.ID.Hex())

	if err != nil {
		RespondInternal(ctx, "שגיאה בהתחברות")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "התחברת בהצלחה!",
		"token":   token,
		"user":    foundUser.Public(),
	})
}
