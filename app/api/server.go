package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// NewServer creates the HTTP engine with all routes configured. The /api
// group is only mounted when an access key is set.
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)

	if apiAccessKey == "" {
		slog.Warn("API endpoints disabled (API_ACCESS_KEY not set)")
		return r
	}

	api := r.Group("/api")
	api.Use(authMiddleware(apiAccessKey))
	{
		api.GET("/channels", handler.ListChannels)
		api.POST("/channels", handler.CreateChannel)
		api.GET("/channels/:id", handler.GetChannel)
		api.DELETE("/channels/:id", handler.DeleteChannel)
		api.GET("/channels/:id/episodes", handler.ListEpisodes)

		api.POST("/refresh", handler.RefreshAll)

		api.GET("/episodes/:id", handler.GetEpisode)
		api.POST("/episodes/:id/download", handler.DownloadEpisode)
		api.DELETE("/episodes/:id", handler.DeleteEpisode)

		api.GET("/settings", handler.GetSettings)
		api.PUT("/settings", handler.UpdateSettings)
	}

	return r
}

// authMiddleware accepts the key from the X-API-Key header or an
// Authorization: Bearer token.
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")
		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" || providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing API key"})
			c.Abort()
			return
		}

		c.Next()
	}
}
