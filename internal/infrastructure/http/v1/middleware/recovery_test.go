package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careindex/pkg/logger"
)

func TestRecovery_LogsAndRenders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	log, err := logger.New(logger.Config{Output: &buf})
	require.NoError(t, err)

	router := gin.New()
	router.Use(Trace(log), ErrorHandler(), Recovery())
	router.GET("/items/:id", func(*gin.Context) { panic("nil map write") })

	req := httptest.NewRequest(http.MethodGet, "/items/7", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"INTERNAL_ERROR"`)
	assert.NotContains(t, w.Body.String(), "nil map write")

	logged := buf.String()
	assert.Contains(t, logged, `"msg":"panic recovered"`)
	assert.Contains(t, logged, `"panic":"nil map write"`)
	assert.Contains(t, logged, `"route":"/items/:id"`)
	assert.Contains(t, logged, `"request_id":"req-42"`)
}

func TestRecovery_PassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(ErrorHandler(), Recovery())
	router.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "fine") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fine", w.Body.String())
}
