package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"todo-api/internal/cache"
	"todo-api/internal/config"
	"todo-api/internal/database"
	"todo-api/internal/logger"
	"todo-api/internal/server"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.Init(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server exited")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewDatabasePool(database.PoolConfigFromConfig(cfg))
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := pool.Migrate(ctx); err != nil {
			return err
		}
	}

	var redisClient redis.UniversalClient
	if cfg.RedisEnabled() {
		client := cache.NewRedisClient(&cache.CacheConfig{
			Addr:         cfg.GetRedisAddr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		defer client.Close()

		// Redis is optional: an unreachable server only degrades caching,
		// revocation and rate limiting.
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable at startup", "addr", cfg.GetRedisAddr(), "error", err)
		}
		redisClient = client
	}

	srv, err := server.New(server.Dependencies{
		Config: cfg,
		DB:     pool,
		Redis:  redisClient,
		Logger: log,
	})
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}
