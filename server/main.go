package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"boutique/api/routes"
	_ "boutique/docs"
	"boutique/internal/auth"
	"boutique/internal/notifications"
	"boutique/internal/shared/config"
	"boutique/internal/shared/database"
	"boutique/internal/shared/middleware"
	"boutique/internal/users"
	"boutique/pkg/logger"
	"boutique/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// @title        Boutique API
// @version      1.0
// @description  Authentification et gestion des comptes de la boutique.
// @BasePath     /api
func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	gin.SetMode(cfg.GinMode)
	appLogger := logger.NewWithLevel(cfg.LogLevel)
	logger.SetDefault(appLogger)

	if envErr != nil {
		appLogger.Info("No .env file found, using system environment variables")
	} else {
		appLogger.Info("Loaded .env file")
	}

	db, err := database.InitDB(cfg, appLogger)
	if err != nil {
		appLogger.Error("failed to connect", logger.Err(err))
		os.Exit(1)
	}
	defer db.Close()

	notificationService, err := notifications.NewService(notifications.NewServiceConfig(cfg), appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize notification service, falling back to log delivery", logger.Err(err))
		notificationService, _ = notifications.NewService(&notifications.ServiceConfig{Broker: config.BrokerNone}, appLogger)
	}

	notificationCtx, notificationCancel := context.WithCancel(context.Background())
	defer notificationCancel()
	if err := notificationService.Start(notificationCtx); err != nil {
		appLogger.Error("Failed to start notification service", logger.Err(err))
	}
	defer func() {
		appLogger.Info("Stopping notification service...")
		if err := notificationService.Stop(); err != nil {
			appLogger.Error("Error stopping notification service", logger.Err(err))
		}
	}()

	deps, err := routes.NewDependencies(cfg, db, notificationService.Notifier(), appLogger)
	if err != nil {
		appLogger.Error("failed to build stores", logger.Err(err))
		os.Exit(1)
	}

	if cfg.Seed.DemoUsers {
		created, err := users.SeedDemoUsers(context.Background(), deps.Users, cfg.Seed.DemoPassword, bcrypt.DefaultCost)
		if err != nil {
			appLogger.Error("failed to seed demo users", logger.Err(err))
		} else {
			appLogger.Info("Demo users seeded", slog.Int("created", created))
		}
	}

	sweeper := auth.NewJobProcessor(deps.Tokens, cfg.Storage.SweepInterval, appLogger)
	sweeper.Start(context.Background())
	defer sweeper.Stop()

	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled && db.Redis != nil {
		rateLimiter = ratelimit.NewRateLimiter(db.GetRedisClient(), &ratelimit.Config{
			Enabled:         cfg.RateLimit.Enabled,
			WindowDuration:  cfg.RateLimit.WindowDuration,
			DefaultRequests: cfg.RateLimit.DefaultRequests,
			AuthRequests:    cfg.RateLimit.AuthRequests,
			AdminRequests:   cfg.RateLimit.AdminRequests,
			HealthRequests:  cfg.RateLimit.HealthRequests,
			WhitelistedIPs:  cfg.RateLimit.WhitelistedIPs,
		})
		appLogger.Info("Rate limiter initialized",
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("default_requests", cfg.RateLimit.DefaultRequests),
			slog.Int("auth_requests", cfg.RateLimit.AuthRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	router, err := setupRouter(cfg, db, deps, rateLimiter, appLogger)
	if err != nil {
		appLogger.Error("failed to set up routes", logger.Err(err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("version", Version),
			slog.String("commit", GitCommit),
			slog.String("built", BuildTime),
			slog.Bool("redis", db.Redis != nil),
			slog.Bool("rate_limiting", rateLimiter != nil),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", logger.Err(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", logger.Err(err))
	}

	appLogger.Info("Server exited gracefully")
}

func setupRouter(cfg *config.Config, db *database.DB, deps *routes.Dependencies, rateLimiter *ratelimit.RateLimiter, log *logger.Logger) (*gin.Engine, error) {
	engine := gin.New()

	engine.Use(middleware.RequestLogger(log), gin.Recovery())

	// credentials require an explicit origin list, never "*"
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter, log))
	}

	if err := routes.NewRouter(cfg, db, deps, log).SetupRoutes(engine); err != nil {
		return nil, err
	}
	return engine, nil
}
