package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"todo-api/internal/cache"
	"todo-api/internal/config"
	"todo-api/internal/database"
	"todo-api/internal/handlers"
	"todo-api/internal/middleware"
	"todo-api/internal/monitoring"
	"todo-api/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Dependencies are built by the caller so tests can hand in SQLite and
// miniredis. Redis may be nil.
type Dependencies struct {
	Config *config.Config
	DB     *database.DatabasePool
	Redis  redis.UniversalClient
	Logger *slog.Logger
}

type Server struct {
	config  *config.Config
	router  *gin.Engine
	metrics *monitoring.Metrics
	health  *monitoring.HealthChecker
	cache   *cache.RedisCache
	auth    *services.AuthServiceImpl
	log     *slog.Logger
}

func New(deps Dependencies) (*Server, error) {
	if deps.Config == nil || deps.DB == nil {
		return nil, errors.New("server: config and database are required")
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		config:  deps.Config,
		metrics: monitoring.NewMetrics(),
		health:  monitoring.NewHealthChecker(3 * time.Second),
		log:     log,
	}

	cfg := deps.Config
	tokens := services.NewTokenManager(services.TokenConfig{
		Secret:     cfg.Auth.JWTSecret,
		Issuer:     cfg.Auth.Issuer,
		AccessTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTTL: cfg.Auth.RefreshTokenTTL,
	})

	var revoked services.RevocationStore = services.NewNoopRevocationStore()
	var taskService services.TaskService = services.NewTaskService(deps.DB.DB)

	if deps.Redis != nil {
		breaker := cache.NewCircuitBreaker(&cache.CircuitBreakerConfig{
			MaxFailures:      cfg.Cache.BreakerFailures,
			Timeout:          cfg.Cache.BreakerResetWait,
			HalfOpenMaxCalls: 3,
		})
		s.cache = cache.NewRedisCache(deps.Redis, breaker)
		if err := s.cache.Metrics().Register(s.metrics.Registry()); err != nil {
			return nil, fmt.Errorf("register cache metrics: %w", err)
		}

		revoked = services.NewRedisRevocationStore(deps.Redis, s.cache.Guard())
		taskService = services.NewCachedTaskService(taskService, s.cache, cfg.Cache.TaskTTL, cfg.Cache.StatsTTL)
		s.health.Register("redis", s.cache.Health)
	}
	s.health.Register("database", deps.DB.Ping)

	s.auth = services.NewAuthService(deps.DB.DB, tokens, revoked, cfg.Auth.BCryptCost)

	s.router = s.buildRouter(taskService, s.rateLimiter(deps.Redis))
	return s, nil
}

func (s *Server) rateLimiter(client redis.UniversalClient) middleware.RateLimiter {
	rl := s.config.RateLimit
	if !rl.Enabled {
		return nil
	}
	if client != nil && s.cache != nil {
		return middleware.NewRedisRateLimiter(client, rl.RequestsPerMin, time.Minute, s.cache.Guard())
	}
	return middleware.NewMemoryRateLimiter(rl.RequestsPerMin, rl.BurstSize, rl.CleanupInterval)
}

func (s *Server) corsConfig() cors.Config {
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	origins := s.config.Server.CORSOrigins
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
	}
	return corsConfig
}

func (s *Server) buildRouter(taskService services.TaskService, limiter middleware.RateLimiter) *gin.Engine {
	if s.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RecoveryWithLog())
	r.Use(middleware.RequestLogger(s.log))
	r.Use(s.metrics.Middleware())
	r.Use(cors.New(s.corsConfig()))

	r.GET("/healthz", s.health.LivenessHandler())
	r.GET("/readyz", s.health.ReadinessHandler())
	r.GET("/metrics", s.metrics.Handler())

	requireAccess := middleware.AuthMiddleware(middleware.AuthConfig{
		Verifier:    s.auth.Tokens(),
		Revocations: s.auth,
	})
	requireRefresh := middleware.AuthMiddleware(middleware.AuthConfig{
		Verifier:    s.auth.Tokens(),
		Revocations: s.auth,
		TokenType:   services.RefreshToken,
	})

	registerHandler := handlers.NewRegisterHandler(s.auth)
	authHandler := handlers.NewAuthHandler(s.auth)
	refreshHandler := handlers.NewRefreshHandler(s.auth)
	logoutHandler := handlers.NewLogoutHandler(s.auth)
	userHandler := handlers.NewUserHandler(s.auth)
	taskHandler := handlers.NewTaskHandler(taskService)
	healthHandler := handlers.NewHealthHandler(s.config.Server.Version)

	api := r.Group("/api")
	{
		api.GET("/health", healthHandler.Health)

		credentials := api.Group("")
		if limiter != nil {
			credentials.Use(middleware.RateLimit(limiter, s.metrics.RateLimited))
		}
		credentials.POST("/register", registerHandler.Register)
		credentials.POST("/login", authHandler.Login)
		credentials.POST("/refresh", requireRefresh, refreshHandler.Refresh)

		api.POST("/logout", requireAccess, logoutHandler.Logout)

		api.GET("/profile", requireAccess, userHandler.GetProfile)
		api.PUT("/profile", requireAccess, userHandler.UpdateProfile)

		tasks := api.Group("/tasks", requireAccess)
		{
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("", taskHandler.ListTasks)
			tasks.GET("/pending", taskHandler.ListPendingTasks)
			tasks.GET("/completed", taskHandler.ListCompletedTasks)
			tasks.GET("/stats", taskHandler.GetStatistics)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
		}
	}

	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Metrics() *monitoring.Metrics {
	return s.metrics
}

// Run serves until ctx is cancelled, then drains in-flight requests for
// at most the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.GetServerAddr(),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server started", "addr", srv.Addr, "environment", s.config.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
