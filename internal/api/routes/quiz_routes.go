package routes

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/masab-afzaal/mindbuddy/internal/api/handlers"
	"github.com/masab-afzaal/mindbuddy/internal/api/middleware"
)

type QuizRoutes struct {
	handler   *handlers.QuizHandler
	jwtSecret string
}

func NewQuizRoutes(handler *handlers.QuizHandler, jwtSecret string) *QuizRoutes {
	return &QuizRoutes{
		handler:   handler,
		jwtSecret: jwtSecret,
	}
}

// RegisterRoutes registers all quiz routes
func (q *QuizRoutes) RegisterRoutes(router *gin.Engine) {
	quiz := router.Group("/api/quiz")
	quiz.Use(middleware.NewAuthMiddleware(q.jwtSecret))

	quiz.POST("", q.handler.CreateQuiz)
	quiz.POST("/:id/submit", q.handler.SubmitAnswers)
	quiz.GET("/results/:id", q.handler.GetResult)
	quiz.POST("/results/:id/like", q.handler.LikeInsight)
	quiz.POST("/results/:id/dislike", q.handler.DislikeInsight)
	quiz.POST("/results/:id/regenerate", q.handler.RegenerateInsights)
	quiz.GET("/history", gzip.Gzip(gzip.DefaultCompression), q.handler.GetHistory)
}
