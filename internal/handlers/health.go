package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/gin-gonic/gin"
)

const serviceName = "masareefy-import-service"

// HealthCheck returns service health status (basic)
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
	})
}

// Dependencies is what the readiness check looks at.
type Dependencies interface {
	RedisHealth(ctx context.Context) error
	CacheStats() *cache.CacheStats
}

// EventBus reports the broker connection.
type EventBus interface {
	IsConnected() bool
}

type HealthHandler struct {
	deps   Dependencies
	events EventBus
}

func NewHealthHandler(deps Dependencies, events EventBus) *HealthHandler {
	return &HealthHandler{deps: deps, events: events}
}

// ExtendedHealthCheck returns detailed health status including Redis and NATS
func (h *HealthHandler) ExtendedHealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	health := gin.H{
		"status":  "healthy",
		"service": serviceName,
		"checks":  gin.H{},
	}

	checks := health["checks"].(gin.H)

	if err := h.deps.RedisHealth(ctx); err != nil {
		checks["redis"] = gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		}
	} else {
		checks["redis"] = gin.H{
			"status": "healthy",
		}
	}

	if stats := h.deps.CacheStats(); stats != nil {
		checks["cache_stats"] = gin.H{
			"l1_hits":   stats.L1Hits,
			"l1_misses": stats.L1Misses,
			"l2_hits":   stats.L2Hits,
			"l2_misses": stats.L2Misses,
		}
	}

	// NATS is optional; only a configured but disconnected bus degrades health.
	if h.events != nil {
		if h.events.IsConnected() {
			checks["nats"] = gin.H{"status": "healthy"}
		} else {
			checks["nats"] = gin.H{"status": "unhealthy"}
		}
	}

	for _, check := range checks {
		if checkMap, ok := check.(gin.H); ok {
			if status, ok := checkMap["status"]; ok && status == "unhealthy" {
				health["status"] = "degraded"
				break
			}
		}
	}

	c.JSON(http.StatusOK, health)
}
