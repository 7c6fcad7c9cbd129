package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDependencies struct {
	redisErr error
	stats    *cache.CacheStats
}

func (f fakeDependencies) RedisHealth(context.Context) error { return f.redisErr }
func (f fakeDependencies) CacheStats() *cache.CacheStats     { return f.stats }

type fakeBus bool

func (b fakeBus) IsConnected() bool { return bool(b) }

func readiness(t *testing.T, h *HealthHandler) map[string]interface{} {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ready", h.ExtendedHealthCheck)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestExtendedHealthCheck_Healthy(t *testing.T) {
	body := readiness(t, NewHealthHandler(fakeDependencies{stats: &cache.CacheStats{}}, fakeBus(true)))

	assert.Equal(t, "healthy", body["status"])
	checks := body["checks"].(map[string]interface{})
	assert.Contains(t, checks, "cache_stats")
	assert.Contains(t, checks, "nats")
}

func TestExtendedHealthCheck_DegradedWhenRedisDown(t *testing.T) {
	body := readiness(t, NewHealthHandler(fakeDependencies{redisErr: errors.New("connection refused")}, nil))

	assert.Equal(t, "degraded", body["status"])
	checks := body["checks"].(map[string]interface{})
	assert.NotContains(t, checks, "nats")
}

func TestExtendedHealthCheck_DegradedWhenNATSDisconnected(t *testing.T) {
	body := readiness(t, NewHealthHandler(fakeDependencies{}, fakeBus(false)))

	assert.Equal(t, "degraded", body["status"])
}
