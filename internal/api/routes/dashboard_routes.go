package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/masab-afzaal/mindbuddy/internal/api/handlers"
	"github.com/masab-afzaal/mindbuddy/internal/api/middleware"
)

type DashboardRoutes struct {
	handler   *handlers.DashboardHandler
	jwtSecret string
}

func NewDashboardRoutes(handler *handlers.DashboardHandler, jwtSecret string) *DashboardRoutes {
	return &DashboardRoutes{
		handler:   handler,
		jwtSecret: jwtSecret,
	}
}

// RegisterRoutes registers the dashboard aggregation route
func (d *DashboardRoutes) RegisterRoutes(router *gin.Engine) {
	dashboard := router.Group("/api/dashboard")
	dashboard.Use(middleware.NewAuthMiddleware(d.jwtSecret))

	dashboard.GET("", d.handler.GetDashboard)
}
