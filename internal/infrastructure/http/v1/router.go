// Package v1 provides HTTP API version 1.
package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"careindex/internal/domain/search"
	"careindex/internal/infrastructure/http/v1/handlers"
	"careindex/internal/infrastructure/http/v1/middleware"
	"careindex/internal/infrastructure/metrics"
	"careindex/internal/infrastructure/storage/postgres"
	"careindex/internal/metadata"
	"careindex/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Service runs filter requests and lookups
	Service *search.Service

	// Metadata serves the discovery documents
	Metadata *metadata.Registry

	// Logger for request logging
	Logger *logger.Logger

	// Metrics and Gatherer back /metrics. Both optional.
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	// Pool is reported by /health/info. Nil for the memory store.
	Pool *postgres.Pool

	AppName    string
	AppVersion string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!). Recovery sits inside ErrorHandler
	// so a recovered panic is still rendered.
	router.Use(middleware.Trace(cfg.Logger))
	router.Use(middleware.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(middleware.Metrics(cfg.Metrics))
	}
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	healthHandler := handlers.NewHealthHandler(cfg.Service, cfg.Pool, cfg.AppName, cfg.AppVersion)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	base := handlers.NewBaseHandler()
	v1 := router.Group("/api/v1")
	{
		filterHandler := handlers.NewFilterHandler(base, cfg.Service, cfg.Metadata, cfg.Metrics)
		filterHandler.RegisterRoutes(v1.Group("/filter"))

		handlers.NewLookupHandler(base, cfg.Service).RegisterRoutes(v1)
	}

	return router
}

// Handler wraps the router with gzip compression for clients that accept it.
func Handler(router *gin.Engine) http.Handler {
	return gzhttp.GzipHandler(router)
}
