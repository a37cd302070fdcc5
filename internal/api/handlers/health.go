package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler reports liveness plus the state of optional dependencies
type HealthHandler struct {
	db           *gorm.DB
	providerName string
}

// NewHealthHandler creates a health handler. db may be nil when the usage log is disabled.
func NewHealthHandler(db *gorm.DB, providerName string) *HealthHandler {
	return &HealthHandler{db: db, providerName: providerName}
}

// HealthCheck returns the health status of the API
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	dbStatus := "disabled"
	if h.db != nil {
		dbStatus = "healthy"
		if err := h.pingDatabase(c.Request.Context()); err != nil {
			dbStatus = "unhealthy"
		}
	}

	generationStatus := "enabled"
	if h.providerName == "" || h.providerName == "unconfigured" {
		generationStatus = "disabled"
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"database": gin.H{
			"status": dbStatus,
		},
		"generation": gin.H{
			"status":   generationStatus,
			"provider": h.providerName,
		},
	})
}

func (h *HealthHandler) pingDatabase(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
