package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/edest28/RefCheck-3/internal/models"
	"github.com/edest28/RefCheck-3/internal/services"
)

// HealthHandler provides enhanced health check endpoints.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	// Database check
	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	// Queue mode
	taskQueue := services.GetTaskQueue()
	queueMode := "sync"
	if taskQueue != nil && taskQueue.IsAsync() {
		queueMode = "async (Redis)"
	}

	// Calls still in flight
	var activeCalls int64
	models.GetDB().Model(&models.Reference{}).
		Where("status = ?", models.ReferenceStatusCalling).
		Count(&activeCalls)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "refcheck",
		"components": gin.H{
			"database":     dbStatus,
			"queue_mode":   queueMode,
			"active_calls": activeCalls,
		},
	})
}
