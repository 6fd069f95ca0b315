package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	syncapp "github.com/meditrack/backend/internal/application/sync"
)

// SyncHandler exposes the sync engine to the desktop shell
type SyncHandler struct {
	orchestrator *syncapp.Orchestrator
	logger       *zap.Logger
}

// NewSyncHandler creates a sync handler
func NewSyncHandler(orchestrator *syncapp.Orchestrator, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{orchestrator: orchestrator, logger: logger}
}

// Status returns the current sync status snapshot
// GET /api/sync/status
func (h *SyncHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.orchestrator.Status(c.Request.Context()))
}

// Trigger runs one push-then-pull cycle
// POST /api/sync/trigger
func (h *SyncHandler) Trigger(c *gin.Context) {
	result, err := h.orchestrator.Sync(c.Request.Context(), nil)
	if err != nil {
		if errors.Is(err, syncapp.ErrSyncInProgress) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "sync already in progress"})
			return
		}
		var syncErr *syncapp.Error
		if errors.As(err, &syncErr) {
			status := http.StatusBadGateway
			switch syncErr.Kind {
			case syncapp.FailUnconfigured:
				status = http.StatusPreconditionFailed
			case syncapp.FailUnauthenticated:
				status = http.StatusUnauthorized
			case syncapp.FailRejected:
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"success": false, "message": syncErr.Error(), "kind": syncErr.Kind.String()})
			return
		}
		h.logger.Error("sync trigger failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "sync failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}

// LoginRequest carries cloud credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates against the cloud and stores the session token
// POST /api/sync/login
func (h *SyncHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "email and password are required"})
		return
	}
	result, err := h.orchestrator.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		var syncErr *syncapp.Error
		if errors.As(err, &syncErr) && syncErr.Kind == syncapp.FailUnauthenticated {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid credentials"})
			return
		}
		if errors.As(err, &syncErr) && syncErr.Kind == syncapp.FailUnconfigured {
			c.JSON(http.StatusPreconditionFailed, gin.H{"success": false, "message": "no sync server configured"})
			return
		}
		h.logger.Error("cloud login failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": result.User})
}

// Logout discards the stored session token
// POST /api/sync/logout
func (h *SyncHandler) Logout(c *gin.Context) {
	if err := h.orchestrator.Logout(c.Request.Context()); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
