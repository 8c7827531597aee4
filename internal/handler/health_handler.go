package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"registration-form-api/internal/database"
)

const serviceName = "registration-form-api"

type HealthHandler struct {
	redis *redis.Client
}

// NewHealthHandler creates a health handler. redis may be nil.
func NewHealthHandler(redis *redis.Client) *HealthHandler {
	return &HealthHandler{redis: redis}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
}

// Ready reports whether the durable store is reachable. The redis mirror is
// optional, so its outage is reported without failing readiness.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	db := database.GetDB()
	if db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "service": serviceName, "error": "database not connected"})
		return
	}
	sqlDB, err := db.DB()
	if err != nil || sqlDB.PingContext(ctx) != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "service": serviceName, "error": "database not reachable"})
		return
	}

	cache := "disabled"
	if h.redis != nil {
		cache = "ok"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			cache = "unreachable"
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready", "service": serviceName, "cache": cache})
}
