package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPoolConfig(t *testing.T) {
	cfg := DefaultPoolConfig("postgres://cqc@localhost/cqc")

	assert.Equal(t, "postgres://cqc@localhost/cqc", cfg.DSN)
	assert.Equal(t, "careindex", cfg.ApplicationName)
	assert.Equal(t, int32(20), cfg.MaxConns)
	assert.Equal(t, int32(2), cfg.MinConns)
	assert.Equal(t, time.Hour, cfg.MaxConnLifetime)
	assert.Equal(t, 30*time.Minute, cfg.MaxConnIdleTime)
	assert.Equal(t, time.Minute, cfg.HealthCheckPeriod)
}

func TestNewPool_BadDSN(t *testing.T) {
	_, err := NewPool(context.Background(), DefaultPoolConfig("postgres://localhost:notaport/cqc"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse DSN")
}

func TestPool_CloseWithoutConnection(t *testing.T) {
	assert.NotPanics(t, func() { (&Pool{}).Close() })
}
