package handlers

import (
	"net/http"

	"todo-api/internal/middleware"
	"todo-api/internal/services"

	"github.com/gin-gonic/gin"
)

type LogoutHandler struct {
	authService services.AuthService
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func NewLogoutHandler(authService services.AuthService) *LogoutHandler {
	return &LogoutHandler{authService: authService}
}

// Logout revokes the caller's access token and, when given, a refresh
// token. The body is optional.
func (h *LogoutHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
			return
		}
	}

	accessToken, _ := middleware.BearerToken(c)
	_ = h.authService.Logout(c.Request.Context(), accessToken, req.RefreshToken)

	c.JSON(http.StatusOK, gin.H{"message": "successfully logged out"})
}
