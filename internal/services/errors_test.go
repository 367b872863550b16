package services_test

import (
	"errors"
	"fmt"
	"testing"

	"todo-api/internal/services"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKind(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
		kind     services.ErrorKind
	}{
		{services.ValidationError("bad"), services.ErrValidation, services.KindValidation},
		{services.NotFoundError("missing"), services.ErrNotFound, services.KindNotFound},
		{services.ConflictError("taken"), services.ErrConflict, services.KindConflict},
		{services.InvalidCredentialsError(), services.ErrInvalidCredentials, services.KindInvalidCredentials},
		{services.InternalError("boom", errors.New("db down")), services.ErrInternal, services.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.ErrorIs(t, fmt.Errorf("wrapped: %w", tt.err), tt.sentinel)
			assert.Equal(t, tt.kind, services.KindOf(tt.err))
		})
	}

	assert.NotErrorIs(t, services.ValidationError("bad"), services.ErrNotFound)
}

func TestError_Messages(t *testing.T) {
	cause := errors.New("connection refused")
	err := services.InternalError("failed to load task", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")

	assert.Equal(t, "task not found", services.NotFoundError("task not found").Error())
	assert.Equal(t, "invalid email or password", services.InvalidCredentialsError().Error())
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, services.KindInternal, services.KindOf(errors.New("plain")))
}
