package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeWith-akshay/hotel-booking-sub000/internal/database"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/redis"
)

// HealthHandler handles liveness and readiness checks
type HealthHandler struct {
	db          *database.PostgresDB
	redisClient *redis.Client
	serviceName string
	version     string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.PostgresDB, redisClient *redis.Client, serviceName, version string) *HealthHandler {
	return &HealthHandler{
		db:          db,
		redisClient: redisClient,
		serviceName: serviceName,
		version:     version,
	}
}

// Health handles GET /health. Liveness only, no dependency checks.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready handles GET /ready. Checks PostgreSQL and Redis connectivity.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx := c.Request.Context()
	checks := gin.H{}
	healthy := true

	start := time.Now()
	if err := h.db.HealthCheck(ctx); err != nil {
		healthy = false
		checks["postgres"] = gin.H{"status": "down", "error": err.Error()}
	} else {
		checks["postgres"] = gin.H{"status": "up", "latency": time.Since(start).String()}
	}

	start = time.Now()
	if err := h.redisClient.HealthCheck(ctx); err != nil {
		healthy = false
		checks["redis"] = gin.H{"status": "down", "error": err.Error()}
	} else {
		checks["redis"] = gin.H{"status": "up", "latency": time.Since(start).String()}
	}

	status := http.StatusOK
	overall := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "not ready"
	}

	c.JSON(status, gin.H{
		"status":  overall,
		"service": h.serviceName,
		"checks":  checks,
	})
}
