package handlers

import (
	"net/http"

	"todo-api/internal/services"

	"github.com/gin-gonic/gin"
)

// RefreshHandler expects the refresh token to have been verified by the
// auth middleware.
type RefreshHandler struct {
	authService services.AuthService
}

func NewRefreshHandler(authService services.AuthService) *RefreshHandler {
	return &RefreshHandler{authService: authService}
}

func (h *RefreshHandler) Refresh(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	accessToken, err := h.authService.RefreshAccessToken(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "token refreshed successfully",
		"access_token": accessToken,
	})
}
