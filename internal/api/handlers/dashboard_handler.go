package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/masab-afzaal/mindbuddy/internal/api/dto"
	"github.com/masab-afzaal/mindbuddy/internal/api/middleware"
	"github.com/masab-afzaal/mindbuddy/internal/domain/conversation"
	"github.com/masab-afzaal/mindbuddy/internal/domain/mood"
	"github.com/masab-afzaal/mindbuddy/internal/domain/quiz"
	"github.com/masab-afzaal/mindbuddy/internal/infrastructure/cache"
)

// DashboardHandler aggregates per-user metrics from every domain service
type DashboardHandler struct {
	moodService mood.Service
	chatService conversation.Service
	quizService quiz.Service
	redis       *cache.RedisClient
	logger      *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler instance
func NewDashboardHandler(
	moodService mood.Service,
	chatService conversation.Service,
	quizService quiz.Service,
	redis *cache.RedisClient,
	logger *zap.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		moodService: moodService,
		chatService: chatService,
		quizService: quizService,
		redis:       redis,
		logger:      logger,
	}
}

// GetDashboard returns streak, 30-day mood statistics, unread insight count,
// conversation count and quizzes taken. The response is cached per user and
// invalidated through dashboard events published by the mood service.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	ctx := c.Request.Context()
	build := func() (interface{}, error) {
		return h.buildDashboard(ctx, userID)
	}

	var result interface{}
	var err error
	if h.redis != nil {
		key := cache.GenerateCacheKey("dashboard", userID, "")
		result, err = h.redis.CacheResponse(c.Request.Context(), key, h.redis.TTLFor("dashboard"), "dashboard", build)
	} else {
		result, err = build()
	}
	if err != nil {
		h.logger.Error("Failed to build dashboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load dashboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *DashboardHandler) buildDashboard(ctx context.Context, id uuid.UUID) (interface{}, error) {
	streak, err := h.moodService.GetStreak(ctx, id)
	if err != nil {
		return nil, err
	}

	records, err := h.moodService.GetChartData(ctx, id, defaultHistoryDays)
	if err != nil {
		return nil, err
	}
	history := buildHistoryResponse(defaultHistoryDays, records)

	unread, err := h.moodService.CountUnreadInsights(ctx, id)
	if err != nil {
		h.logger.Warn("Failed to count unread insights", zap.Error(err))
	}

	conversations, err := h.chatService.CountConversations(ctx, id)
	if err != nil {
		h.logger.Warn("Failed to count conversations", zap.Error(err))
	}

	quizzes, err := h.quizService.CountResults(ctx, id)
	if err != nil {
		h.logger.Warn("Failed to count quiz results", zap.Error(err))
	}

	return dto.DashboardResponse{
		Streak:         streakToResponse(streak),
		MoodStatistics: history.Statistics,
		UnreadInsights: unread,
		Conversations:  conversations,
		QuizzesTaken:   quizzes,
	}, nil
}
