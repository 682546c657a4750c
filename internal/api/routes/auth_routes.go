package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/masab-afzaal/mindbuddy/internal/api/handlers"
	"github.com/masab-afzaal/mindbuddy/internal/api/middleware"
)

type AuthRoutes struct {
	handler   *handlers.AuthHandler
	jwtSecret string
}

func NewAuthRoutes(handler *handlers.AuthHandler, jwtSecret string) *AuthRoutes {
	return &AuthRoutes{
		handler:   handler,
		jwtSecret: jwtSecret,
	}
}

// RegisterRoutes registers registration, login and profile routes
func (a *AuthRoutes) RegisterRoutes(router *gin.Engine) {
	public := router.Group("/api/auth")
	public.POST("/register", a.handler.Register)
	public.POST("/login", a.handler.Login)

	protected := router.Group("/api/auth")
	protected.Use(middleware.NewAuthMiddleware(a.jwtSecret))
	protected.POST("/logout", a.handler.Logout)
	protected.GET("/profile", a.handler.GetProfile)
	protected.PUT("/profile", a.handler.UpdateProfile)
}
