package routes

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/masab-afzaal/mindbuddy/internal/api/handlers"
	"github.com/masab-afzaal/mindbuddy/internal/api/middleware"
)

type ChatRoutes struct {
	handler   *handlers.ChatHandler
	jwtSecret string
}

func NewChatRoutes(handler *handlers.ChatHandler, jwtSecret string) *ChatRoutes {
	return &ChatRoutes{
		handler:   handler,
		jwtSecret: jwtSecret,
	}
}

// RegisterRoutes registers all chat routes
func (r *ChatRoutes) RegisterRoutes(router *gin.Engine) {
	chat := router.Group("/api/chat")
	chat.Use(middleware.NewAuthMiddleware(r.jwtSecret))

	chat.POST("", r.handler.Chat)
	chat.GET("/conversations", gzip.Gzip(gzip.DefaultCompression), r.handler.ListConversations)
	chat.GET("/conversations/:id", gzip.Gzip(gzip.DefaultCompression), r.handler.GetConversation)
}
