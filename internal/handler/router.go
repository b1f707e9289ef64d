package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alphinepj/Clam-Companion/internal/application"
	"github.com/alphinepj/Clam-Companion/internal/logging"
	"github.com/alphinepj/Clam-Companion/internal/middleware"
)

// NewRouter assembles the HTTP surface. rateLimit is optional; pass nil when
// throttling is disabled (e.g. no redis in the memory backend).
func NewRouter(
	auth *AuthHandler,
	chat *ChatHandler,
	settings *SettingsHandler,
	tokens *application.TokenService,
	rateLimit gin.HandlerFunc,
	logger logging.Logger,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(logger))
	if rateLimit != nil {
		r.Use(rateLimit)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
		})
	})

	requireAuth := middleware.JWTAuth(tokens)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", auth.Register)
			authGroup.POST("/login", auth.Login)
			authGroup.GET("/me", requireAuth, auth.Me)
		}

		chatGroup := api.Group("/chat")
		chatGroup.Use(requireAuth)
		{
			chatGroup.POST("", chat.Chat)
			chatGroup.GET("", chat.ListConversations)
			chatGroup.GET("/stats", chat.Stats)
			chatGroup.GET("/:conversationId", chat.GetConversation)
			chatGroup.DELETE("/:conversationId", chat.DeleteConversation)
		}

		settingsGroup := api.Group("/settings")
		settingsGroup.Use(requireAuth)
		{
			settingsGroup.GET("", settings.Get)
			settingsGroup.PUT("", settings.Update)
		}
	}

	return r
}
