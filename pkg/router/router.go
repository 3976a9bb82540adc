// Package router assembles the HTTP engine: middleware chain, health and
// metrics endpoints, and the versioned API groups.
package router

import (
	"context"
	"net/http"
	"time"

	messagingapi "leadmsg/backend/messaging/api"
	"leadmsg/backend/pkg/config"
	"leadmsg/backend/pkg/di"
	"leadmsg/backend/pkg/errors"
	"leadmsg/backend/pkg/health"
	"leadmsg/backend/pkg/logger"
	"leadmsg/backend/pkg/middleware"
	"leadmsg/backend/shared/observability"
	userapi "leadmsg/backend/user/api"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// New builds the gin engine with the full middleware chain and all routes.
func New(c *di.Container) *gin.Engine {
	cfg := c.Config
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.MaxMultipartMemory = cfg.Security.MaxBodySize

	engine.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, cfg.Security.MaxBodySize)
		c.Next()
	})
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(logger.Middleware(c.Logger))
	engine.Use(errors.RecoveryWithLogger())
	engine.Use(errors.ErrorHandler())
	engine.Use(corsMiddleware(cfg))

	limiterOpts := middleware.DefaultRateLimiterOptions()
	limiterOpts.Limit = rate.Limit(cfg.Security.RateLimit)
	limiterOpts.Burst = cfg.Security.RateLimitBurst
	limiter := middleware.NewRateLimiter(c.Logger, limiterOpts)
	engine.Use(limiter.Middleware())

	checker := health.NewChecker(c.Logger)
	checker.RegisterCheck("database", func() (health.Status, string, error) {
		if err := config.TestConnection(c.DB); err != nil {
			return health.StatusDown, "database unreachable", err
		}
		return health.StatusUp, "database reachable", nil
	})
	checker.RegisterCheck("storage", func() (health.Status, string, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := c.Storage.SignedURL(ctx, "healthcheck", time.Minute); err != nil {
			return health.StatusDegraded, "cannot sign storage URLs", err
		}
		return health.StatusUp, "storage gateway ready", nil
	})
	checker.RegisterCheck("cache", func() (health.Status, string, error) {
		if c.Cache == nil {
			return health.StatusUp, "cache disabled", nil
		}
		c.Cache.Set("health:check", "ok", time.Minute)
		if v, ok := c.Cache.Get("health:check"); !ok || v != "ok" {
			return health.StatusDegraded, "cache read-after-write failed", nil
		}
		return health.StatusUp, "cache ready", nil
	})
	engine.GET("/health", checker.Handler())
	engine.GET("/metrics", gin.WrapH(observability.Handler()))

	auth := middleware.JWTAuthMiddleware(c.JWTService, c.Logger)

	v1 := engine.Group("/api/v1")
	{
		userapi.NewAuthHandler(c.UserService, c.JWTService, c.Logger).RegisterRoutes(v1, auth)
		messagingapi.NewMessagingHandler(
			c.Messaging.Directory,
			c.Messaging.Ledger,
			c.Messaging.Uploader,
			c.Messaging.ReadState,
			c.Messaging.Lifecycle,
			c.Logger,
		).RegisterRoutes(v1, auth)
	}

	return engine
}

// corsMiddleware applies the configured origin allow-list.
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	allowed := make(map[string]bool, len(cfg.Security.AllowedOrigins))
	allowAll := false
	for _, origin := range cfg.Security.AllowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
			c.Header("Access-Control-Max-Age", "86400")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Server wraps the engine with the configured timeouts.
func Server(engine *gin.Engine, cfg *config.Config) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}
}
