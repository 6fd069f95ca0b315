package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/meditrack/backend/internal/infrastructure/logger"
	"github.com/meditrack/backend/internal/interfaces/http/handler"
	"github.com/meditrack/backend/internal/interfaces/http/middleware"
)

// New assembles the companion daemon's HTTP surface
func New(syncHandler *handler.SyncHandler, systemHandler *handler.SystemHandler, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(logger.GinMiddleware(log))

	r.GET("/healthz", systemHandler.Health)

	api := r.Group("/api/sync")
	{
		api.GET("/status", syncHandler.Status)
		api.POST("/trigger", syncHandler.Trigger)
		api.POST("/login", syncHandler.Login)
		api.POST("/logout", syncHandler.Logout)
	}

	return r
}
