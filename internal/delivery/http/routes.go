package http

import (
	"github.com/gin-gonic/gin"
	"github.com/pdpaudit/backend/config"
	"github.com/pdpaudit/backend/internal/infrastructure/monitoring"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the Gin router. metrics may be nil,
// in which case /metrics is not exposed.
func SetupRouter(cfg *config.Config, handler *Handler, metrics *monitoring.Metrics, logger *zap.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	if metrics != nil {
		router.Use(monitoring.Middleware(metrics))
	}
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		v1.POST("/audit", handler.Audit)
	}

	return router
}
