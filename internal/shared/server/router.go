package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"media-insights-backend/internal/shared/config"
	"media-insights-backend/internal/shared/server/middleware"
	"media-insights-backend/internal/shared/server/respond"
	"media-insights-backend/internal/shared/storage/object"
	"media-insights-backend/internal/status"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config, store object.Store) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
	)

	statusHandler := &status.Handler{Store: store, Config: cfg}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	statusHandler.RegisterRoutes(api)

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
