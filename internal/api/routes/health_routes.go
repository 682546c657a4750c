package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/masab-afzaal/mindbuddy/internal/infrastructure/cache"
	"github.com/masab-afzaal/mindbuddy/internal/infrastructure/persistence/postgres/connection"
)

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// SetupHealthRoutes registers health check endpoints
func SetupHealthRoutes(router *gin.Engine, db *connection.Database, redis *cache.RedisClient) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC(),
		})
	})

	router.GET("/health/ready", func(c *gin.Context) {
		status := http.StatusOK
		checks := gin.H{"database": "ok", "redis": "ok"}

		if db != nil {
			if sqlDB, err := db.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
				checks["database"] = "unreachable"
				status = http.StatusServiceUnavailable
			}
		}
		if redis != nil && !redis.IsHealthy() {
			checks["redis"] = "unreachable"
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"status":    checks,
			"timestamp": time.Now().UTC(),
		})
	})
}
