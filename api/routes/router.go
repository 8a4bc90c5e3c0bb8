package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"boutique/internal/admin"
	"boutique/internal/auth"
	"boutique/internal/notifications"
	"boutique/internal/pages"
	"boutique/internal/shared/config"
	"boutique/internal/shared/database"
	"boutique/internal/shared/middleware"
	"boutique/internal/users"
	"boutique/pkg/cache"
	"boutique/pkg/logger"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const serviceName = "boutique-backend"

// Dependencies are the stores and helpers shared by the route groups.
type Dependencies struct {
	Users    users.Repository
	Tokens   auth.RefreshTokenStore
	JWT      *auth.TokenManager
	Cache    cache.Service // nil without Redis
	Notifier notifications.Notifier
	Sessions *auth.SessionRevoker
}

// NewDependencies picks the store implementations the configuration asks for.
func NewDependencies(cfg *config.Config, db *database.DB, notifier notifications.Notifier, log *logger.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		JWT:      auth.NewTokenManager(cfg.JWT),
		Notifier: notifier,
	}

	if db.Redis != nil {
		deps.Cache = cache.NewService(db.Redis)
	}

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		deps.Users = users.NewRepository(db.GetPostgreSQL())
	case config.DriverMemory:
		deps.Users = users.NewMemoryRepository()
	default:
		return nil, fmt.Errorf("routes.NewDependencies: unknown storage driver %q", cfg.Storage.Driver)
	}

	switch cfg.Storage.RefreshStore {
	case config.DriverPostgres:
		deps.Tokens = auth.NewRepository(db.GetPostgreSQL())
	case config.DriverRedis:
		deps.Tokens = auth.NewRedisTokenStore(db.GetRedisClient())
	case config.DriverMemory:
		deps.Tokens = auth.NewMemoryTokenStore()
	default:
		return nil, fmt.Errorf("routes.NewDependencies: unknown refresh store %q", cfg.Storage.RefreshStore)
	}

	deps.Sessions = auth.NewSessionRevoker(deps.Tokens, deps.Cache, log)

	log.Info("Stores selected",
		slog.String("users", cfg.Storage.Driver),
		slog.String("refresh_tokens", cfg.Storage.RefreshStore),
		slog.Bool("profile_cache", deps.Cache != nil),
	)
	return deps, nil
}

// Router holds all route dependencies
type Router struct {
	config *config.Config
	db     *database.DB
	deps   *Dependencies
	log    *logger.Logger
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, deps *Dependencies, log *logger.Logger) *Router {
	return &Router{
		config: cfg,
		db:     db,
		deps:   deps,
		log:    log,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) error {
	r.setupHealthRoutes(engine)

	// the page gate only acts on page paths, API paths fall through it
	engine.Use(middleware.PageGate(r.deps.JWT, r.config.Cookie.AccessName))

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupAuthRoutes(api)
		r.setupAdminRoutes(api)
	}

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return pages.NewRouter(pages.NewController()).SetupRoutes(engine)
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			r.log.WarnContext(c.Request.Context(), "health check failed", logger.Err(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"timestamp": time.Now(),
				"service":   serviceName,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   serviceName,
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":        "operational",
			"api_version":   r.config.APIVersion,
			"users_store":   r.config.Storage.Driver,
			"refresh_store": r.config.Storage.RefreshStore,
			"profile_cache": r.deps.Cache != nil,
			"timestamp":     time.Now(),
		})
	})
}

// setupAuthRoutes configures authentication routes
func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	authService := auth.NewService(auth.ServiceDeps{
		Users:      r.deps.Users,
		Tokens:     r.deps.Tokens,
		JWT:        r.deps.JWT,
		Cache:      r.deps.Cache,
		Notifier:   r.deps.Notifier,
		Logger:     r.log,
		ProfileTTL: r.config.Redis.CacheTTL,
	})
	authController := auth.NewController(authService, auth.NewCookieManager(r.config), r.log)
	auth.NewRouter(authController, r.deps.JWT).SetupRoutes(rg)
}

// setupAdminRoutes configures the back-office routes
func (r *Router) setupAdminRoutes(rg *gin.RouterGroup) {
	adminService := admin.NewService(r.deps.Users, r.deps.Sessions, r.deps.Notifier, r.log)
	adminController := admin.NewController(adminService, r.log)
	admin.NewRouter(adminController, r.deps.JWT, r.config.Cookie.AccessName).SetupRoutes(rg)
}
