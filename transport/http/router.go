package http

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Santhosh121805/based.credit/core"
	"github.com/Santhosh121805/based.credit/service"
)

// RouterConfig holds transport level settings
type RouterConfig struct {
	Production      bool
	RateLimitWindow time.Duration
	RateLimitMax    int64
}

// Dependencies are the services the router dispatches to
type Dependencies struct {
	AuthService *service.AuthService
	Pipeline    *service.Pipeline
	RateLimiter *service.RateLimiter
	Logger      *slog.Logger
	Health      map[string]Pinger
}

// SetupRouter sets up the Gin router
func SetupRouter(cfg RouterConfig, deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(
		RequestID(),
		RequestLogger(deps.Logger),
		ErrorHandler(deps.Logger, cfg.Production),
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			abort(c, core.Internal("panic recovered", fmt.Errorf("%v", recovered)))
		}),
	)
	router.NoRoute(NotFound)

	handlers := NewAuthHandlers(deps.AuthService)
	limit := RateLimit(deps.RateLimiter, cfg.RateLimitWindow, cfg.RateLimitMax)

	router.GET("/health", Health(deps.Health))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth routes
	auth := router.Group("/auth")
	auth.Use(limit)
	{
		auth.POST("/challenge", handlers.Challenge)
		auth.POST("/verify", handlers.Verify)
		auth.GET("/session", OptionalAuthenticate(deps.Pipeline), handlers.Session)
		auth.POST("/logout",
			Authenticate(deps.Pipeline),
			Authorize(service.RequireAuthenticated()),
			handlers.Logout)
	}

	// Protected API routes
	api := router.Group("/api")
	api.Use(Authenticate(deps.Pipeline), limit)
	{
		api.GET("/me", Authorize(service.RequireAuthenticated()), handlers.Me)
		api.GET("/admin/users/:id", Authorize(service.RequireRole(core.RoleAdmin)), handlers.AdminUser)
		api.GET("/wallet/status", Authorize(service.RequireVerifiedWallet()), handlers.WalletStatus)
	}

	return router
}
