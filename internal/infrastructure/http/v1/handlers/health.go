package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"careindex/internal/domain/search"
	"careindex/internal/infrastructure/http/v1/dto"
	"careindex/internal/infrastructure/storage/postgres"
)

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	store   search.Pinger
	pool    *postgres.Pool // nil when serving from the memory store
	app     string
	version string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(store search.Pinger, pool *postgres.Pool, app, version string) *HealthHandler {
	return &HealthHandler{store: store, pool: pool, app: app, version: version}
}

// Live handles the liveness check (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles the readiness check (is the service ready to accept traffic?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.HealthChecks{
			Status: "error",
			Checks: map[string]string{"database": "unhealthy: " + err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, dto.HealthChecks{
		Status: "ok",
		Checks: map[string]string{"database": "healthy"},
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	body := gin.H{
		"app":     h.app,
		"version": h.version,
	}
	if h.pool != nil {
		body["database"] = h.pool.Stats()
	}
	c.JSON(http.StatusOK, body)
}
