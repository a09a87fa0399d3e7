package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jstittsworth/courtside/internal/services"
	"github.com/jstittsworth/courtside/pkg/database"
)

type HealthHandler struct {
	db        *database.DB
	refresher *services.RefreshService
}

func NewHealthHandler(db *database.DB, refresher *services.RefreshService) *HealthHandler {
	return &HealthHandler{
		db:        db,
		refresher: refresher,
	}
}

// GetHealth is the liveness probe; it returns 200 whenever the process is
// serving.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "courtside",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetReady is the readiness probe; it requires a reachable database.
func (h *HealthHandler) GetReady(c *gin.Context) {
	sqlDB, err := h.db.DB.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"scheduler": h.refresher.Status(),
	})
}
