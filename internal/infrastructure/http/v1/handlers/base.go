// Package handlers provides HTTP request handlers.
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"careindex/internal/core/apperror"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseIntQuery parses an integer pagination parameter.
// Returns nil when absent; malformed values fail with INVALID_PAGINATION.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string) (*int, error) {
	val, ok := c.GetQuery(key)
	if !ok || strings.TrimSpace(val) == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return nil, apperror.NewInvalidPagination(key, val, "must be an integer")
	}
	return &parsed, nil
}

// ParseFloatQuery parses a numeric query parameter. Returns nil when absent.
func (h *BaseHandler) ParseFloatQuery(c *gin.Context, key string) (*float64, error) {
	val, ok := c.GetQuery(key)
	if !ok || strings.TrimSpace(val) == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return nil, apperror.NewValidation(key+" must be a number").WithDetail("field", key)
	}
	return &parsed, nil
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}
