package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meditrack/backend/internal/infrastructure/persistence"
)

// SystemHandler serves liveness and readiness probes
type SystemHandler struct {
	db *persistence.Database
}

// NewSystemHandler creates a system handler
func NewSystemHandler(db *persistence.Database) *SystemHandler {
	return &SystemHandler{db: db}
}

// Health reports process liveness and database connectivity
// GET /healthz
func (h *SystemHandler) Health(c *gin.Context) {
	if !h.db.Adapter().IsConnected() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "disconnected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": h.db.Adapter().Dialect().Name()})
}
