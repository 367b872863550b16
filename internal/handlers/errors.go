package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"todo-api/internal/middleware"
	"todo-api/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

const (
	msgInternal         = "internal server error"
	msgBodyRequired     = "request body is required"
	msgInvalidPaging    = "invalid pagination parameters"
	msgNotAuthenticated = "authorization token required"
)

// statusFor maps a service error kind onto an HTTP status. Conflicts are
// reported as 400 like other rejected input.
func statusFor(kind services.ErrorKind) int {
	switch kind {
	case services.KindValidation, services.KindConflict:
		return http.StatusBadRequest
	case services.KindInvalidCredentials:
		return http.StatusUnauthorized
	case services.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	kind := services.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		slog.Error("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err)
		c.JSON(status, gin.H{"error": msgInternal})
		return
	}

	var svcErr *services.Error
	message := err.Error()
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}
	c.JSON(status, gin.H{"error": message})
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgNotAuthenticated})
		return uuid.Nil, false
	}
	return userID, true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		message := "invalid JSON body"
		if c.Request.ContentLength == 0 {
			message = msgBodyRequired
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": message})
		return false
	}
	return true
}
