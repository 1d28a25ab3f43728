// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"io"

	"github.com/gin-gonic/gin"

	"careindex/internal/core/apperror"
	"careindex/pkg/logger"
)

// Recovery turns a handler panic into an INTERNAL_ERROR for ErrorHandler
// to render. Gin's own recovery output is discarded; the panic value and
// stack go to the request logger instead.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.Error(c.Request.Context(), "panic recovered",
			"panic", recovered,
			"method", c.Request.Method,
			"route", c.FullPath(),
		)
		_ = c.Error(apperror.NewInternal(fmt.Errorf("panic: %v", recovered)))
		c.Abort()
	})
}
