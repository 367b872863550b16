package services_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"todo-api/internal/database"
	"todo-api/internal/services"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	pool, err := database.NewDatabasePool(&database.PoolConfig{
		Driver:   database.DriverSQLite,
		DSN:      filepath.Join(t.TempDir(), "services.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	require.NoError(t, pool.Migrate(context.Background()))
	return pool.DB
}

func newTestTokenManager() *services.TokenManager {
	return services.NewTokenManager(services.TokenConfig{
		Secret:     testSecret,
		Issuer:     "taskify-backend",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	})
}

func newTestAuthService(db *gorm.DB, revoked services.RevocationStore) *services.AuthServiceImpl {
	return services.NewAuthService(db, newTestTokenManager(), revoked, bcrypt.MinCost)
}

func ptr[T any](v T) *T {
	return &v
}
