package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	ping func() error
}

func NewHealthHandler(ping func() error) *HealthHandler {
	return &HealthHandler{ping: ping}
}

func (h *HealthHandler) Health(ctx *gin.Context) {
	if h.ping != nil {
		if err := h.ping(); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "ERROR",
				"message": "השרת אינו זמין כרגע",
			})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"message": "השרת פועל תקין",
	})
}
