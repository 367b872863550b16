package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"todo-api/internal/config"

	"gorm.io/gorm/logger"
)

func newSQLitePool(t *testing.T) *DatabasePool {
	t.Helper()

	pool, err := NewDatabasePool(&PoolConfig{
		Driver:       DriverSQLite,
		DSN:          filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		LogLevel:     logger.Silent,
	})
	if err != nil {
		t.Fatalf("Failed to open sqlite pool: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}

func TestDefaultPoolConfig(t *testing.T) {
	config := DefaultPoolConfig()

	if config.MaxOpenConns != 25 {
		t.Errorf("Expected MaxOpenConns to be 25, got %d", config.MaxOpenConns)
	}

	if config.MaxIdleConns != 10 {
		t.Errorf("Expected MaxIdleConns to be 10, got %d", config.MaxIdleConns)
	}

	if config.ConnMaxLifetime != time.Hour {
		t.Errorf("Expected ConnMaxLifetime to be 1 hour, got %v", config.ConnMaxLifetime)
	}

	if config.ConnMaxIdleTime != time.Minute*30 {
		t.Errorf("Expected ConnMaxIdleTime to be 30 minutes, got %v", config.ConnMaxIdleTime)
	}

	if config.LogLevel != logger.Info {
		t.Errorf("Expected LogLevel to be Info, got %v", config.LogLevel)
	}
}

func TestNewDatabasePool_WithNilConfig(t *testing.T) {
	_, err := NewDatabasePool(nil)

	if err == nil {
		t.Error("Expected error due to empty DSN, got nil")
	}
}

func TestNewDatabasePool_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		config *PoolConfig
	}{
		{
			name:   "empty dsn",
			config: &PoolConfig{Driver: DriverSQLite, DSN: "  "},
		},
		{
			name: "negative limits",
			config: &PoolConfig{
				Driver:       DriverSQLite,
				DSN:          "ignored.db",
				MaxOpenConns: -1,
			},
		},
		{
			name: "negative lifetime",
			config: &PoolConfig{
				Driver:          DriverSQLite,
				DSN:             "ignored.db",
				ConnMaxLifetime: -time.Hour,
			},
		},
		{
			name:   "unknown driver",
			config: &PoolConfig{Driver: "mysql", DSN: "root@/db"},
		},
		{
			name:   "malformed postgres dsn",
			config: &PoolConfig{Driver: DriverPostgres, DSN: "invalid://connection:string", LogLevel: logger.Silent},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDatabasePool(tt.config); err == nil {
				t.Errorf("Expected error for %s", tt.name)
			}
		})
	}
}

func TestDatabasePool_SQLite(t *testing.T) {
	pool := newSQLitePool(t)

	if err := pool.Health(); err != nil {
		t.Fatalf("Expected healthy pool, got: %v", err)
	}

	stats := pool.Stats()
	if _, hasError := stats["error"]; hasError {
		t.Errorf("Expected no error in stats, got %v", stats["error"])
	}
	if stats["max_open_connections"] != 4 {
		t.Errorf("Expected max_open_connections 4, got %v", stats["max_open_connections"])
	}
}

func TestDatabasePool_Migrate(t *testing.T) {
	pool := newSQLitePool(t)
	ctx := context.Background()

	if err := pool.Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	for _, table := range []string{"users", "tasks"} {
		if !pool.DB.Migrator().HasTable(table) {
			t.Errorf("Expected table %s to exist", table)
		}
	}

	// Running again is a no-op.
	if err := pool.Migrate(ctx); err != nil {
		t.Errorf("Expected second migration run to succeed, got: %v", err)
	}
}

func TestDatabasePool_Stats_WithoutConnection(t *testing.T) {
	pool := &DatabasePool{
		DB: nil,
		config: &PoolConfig{
			MaxOpenConns: 10,
		},
	}

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Stats() should handle nil DB gracefully, but got panic: %v", r)
		}
	}()

	stats := pool.Stats()

	if _, hasError := stats["error"]; !hasError {
		t.Error("Expected error in stats when DB is nil")
	}
}

func TestDatabasePool_Health_WithoutConnection(t *testing.T) {
	pool := &DatabasePool{
		DB: nil,
	}

	if err := pool.Health(); err == nil {
		t.Error("Expected error when checking health with nil DB")
	}

	if err := pool.Migrate(context.Background()); err == nil {
		t.Error("Expected error when migrating with nil DB")
	}
}

func TestDatabasePool_Close_WithoutConnection(t *testing.T) {
	pool := &DatabasePool{
		DB: nil,
	}

	err := pool.Close()

	if err != nil {
		t.Errorf("Expected no error when closing nil DB, got: %v", err)
	}
}

func BenchmarkDefaultPoolConfig(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = DefaultPoolConfig()
	}
}

func TestPoolConfigFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = DriverSQLite
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "nested", "app.db")
	cfg.Database.MaxOpenConns = 7
	cfg.Log.Level = "debug"

	pc := PoolConfigFromConfig(cfg)
	if pc.Driver != DriverSQLite || pc.DSN != cfg.Database.SQLitePath {
		t.Errorf("Unexpected driver/DSN %q %q", pc.Driver, pc.DSN)
	}
	if pc.MaxOpenConns != 7 {
		t.Errorf("Expected MaxOpenConns 7, got %d", pc.MaxOpenConns)
	}
	if pc.LogLevel != logger.Info {
		t.Errorf("Expected debug to map to gorm Info, got %v", pc.LogLevel)
	}

	pool, err := NewDatabasePool(pc)
	if err != nil {
		t.Fatalf("Expected nested sqlite path to be created, got %v", err)
	}
	defer pool.Close()

	if _, err := os.Stat(cfg.Database.SQLitePath); err != nil {
		t.Errorf("Expected database file to exist: %v", err)
	}
}
