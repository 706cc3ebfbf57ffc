package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is a dependency that can be probed for connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker reports the state of a long-lived connection.
type HealthChecker interface {
	IsHealthy() bool
}

// CacheCounter is implemented by caches that can report how many entries they hold.
type CacheCounter interface {
	Count(ctx context.Context) (int64, error)
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db        Pinger
	cache     Pinger
	publisher HealthChecker
}

// NewHealthHandler creates a new HealthHandler. cache and publisher are optional
// and skipped when nil.
func NewHealthHandler(db Pinger, cache Pinger, publisher HealthChecker) *HealthHandler {
	return &HealthHandler{
		db:        db,
		cache:     cache,
		publisher: publisher,
	}
}

// LivenessProbe checks if the application is running.
func (h *HealthHandler) LivenessProbe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "UP",
		"time":   time.Now(),
	})
}

// ReadinessProbe checks if the application is ready to serve traffic.
func (h *HealthHandler) ReadinessProbe(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "DOWN",
			"database": "unhealthy",
			"error":    err.Error(),
			"time":     time.Now(),
		})
		return
	}

	resp := gin.H{
		"status":   "UP",
		"database": "healthy",
		"time":     time.Now(),
	}

	if h.publisher != nil {
		if !h.publisher.IsHealthy() {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "DOWN",
				"rabbitmq": "unhealthy",
				"time":     time.Now(),
			})
			return
		}
		resp["rabbitmq"] = "healthy"
	}

	// Redis is reported but does not fail readiness.
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			resp["redis"] = "unhealthy"
		} else {
			resp["redis"] = "healthy"
			if counter, ok := h.cache.(CacheCounter); ok {
				if n, err := counter.Count(ctx); err == nil {
					resp["blockedVideosCached"] = n
				}
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}
