package router

import (
	"context"
	"net/http"
	"time"

	apphttp "leadcall_backend/internal/http"
	"leadcall_backend/platform/httpkit"
	"leadcall_backend/platform/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const readinessTimeout = 2 * time.Second

// New builds the gin engine: shared middleware, health endpoints and every module's routes.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(cors.New(corsConfig(app.Config)))

	engine.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/api/ready", readyHandler(app.Health, app.Logger))

	v1 := engine.Group("/api/v1")
	webhookLimiter := httpkit.NewPerMinuteRateLimiter(app.Config.GetWebhookRatePerMinute(), app.Logger)
	webhooks := v1.Group("/webhooks")
	webhooks.Use(webhookLimiter.RateLimit())

	routerCtx := &apphttp.RouterContext{
		Engine:             engine,
		V1:                 v1,
		Webhooks:           webhooks,
		Config:             app.Config,
		WebhookRateLimiter: webhookLimiter,
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(routerCtx)
		app.Logger.Info("registered module routes", "module", module.Name())
	}

	return engine
}

func readyHandler(health apphttp.HealthChecker, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if health == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()
		if err := health.Ping(ctx); err != nil {
			log.DatabaseError("readiness ping", err)
			httpkit.Error(c, http.StatusServiceUnavailable, "database unavailable", nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

func corsConfig(cfg apphttp.RouterConfig) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", httpkit.RequestIDHeader},
		ExposeHeaders:    []string{httpkit.RequestIDHeader},
		AllowCredentials: cfg.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if cfg.GetCORSAllowAll() {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.GetCORSOrigins()
		if len(corsCfg.AllowOrigins) == 0 {
			corsCfg.AllowAllOrigins = true
			corsCfg.AllowCredentials = false
		}
	}
	return corsCfg
}
