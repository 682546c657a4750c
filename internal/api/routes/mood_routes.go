package routes

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/masab-afzaal/mindbuddy/internal/api/handlers"
	"github.com/masab-afzaal/mindbuddy/internal/api/middleware"
)

type MoodRoutes struct {
	handler   *handlers.MoodHandler
	jwtSecret string
}

func NewMoodRoutes(handler *handlers.MoodHandler, jwtSecret string) *MoodRoutes {
	return &MoodRoutes{
		handler:   handler,
		jwtSecret: jwtSecret,
	}
}

// RegisterRoutes registers all mood tracking routes
func (m *MoodRoutes) RegisterRoutes(router *gin.Engine) {
	mood := router.Group("/api/mood")
	mood.Use(middleware.NewAuthMiddleware(m.jwtSecret))

	mood.POST("", m.handler.LogMood)
	mood.GET("/history", gzip.Gzip(gzip.DefaultCompression), m.handler.GetHistory)
	mood.GET("/streak", m.handler.GetStreak)
	mood.GET("/insights", m.handler.ListInsights)
	mood.POST("/insights/:id/read", m.handler.MarkInsightRead)
	mood.GET("/today", m.handler.GetToday)
	mood.PUT("/today", m.handler.UpdateToday)
}
