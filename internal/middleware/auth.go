package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"todo-api/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

const (
	ContextUserID = "user_id"
	ContextClaims = "token_claims"
)

type TokenVerifier interface {
	Verify(token string, want services.TokenType) (*services.Claims, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, claims *services.Claims) bool
}

type AuthConfig struct {
	Verifier    TokenVerifier
	Revocations RevocationChecker
	// TokenType defaults to an access token.
	TokenType services.TokenType
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// AuthMiddleware verifies the bearer token and stores the caller's id
// under ContextUserID.
func AuthMiddleware(config AuthConfig) gin.HandlerFunc {
	want := config.TokenType
	if want == "" {
		want = services.AccessToken
	}

	return func(c *gin.Context) {
		if strings.TrimSpace(c.GetHeader("Authorization")) == "" {
			abortUnauthorized(c, "authorization token required")
			return
		}

		token, ok := BearerToken(c)
		if !ok {
			abortUnauthorized(c, "invalid token")
			return
		}

		claims, err := config.Verifier.Verify(token, want)
		if err != nil {
			if errors.Is(err, services.ErrTokenExpired) {
				abortUnauthorized(c, "token expired")
				return
			}
			abortUnauthorized(c, "invalid token")
			return
		}

		if config.Revocations != nil && config.Revocations.IsRevoked(c.Request.Context(), claims) {
			abortUnauthorized(c, "token has been revoked")
			return
		}

		c.Set(ContextUserID, claims.UserUUID())
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func Claims(c *gin.Context) (*services.Claims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*services.Claims)
	return claims, ok
}
