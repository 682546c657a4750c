package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/masab-afzaal/mindbuddy/internal/api/dto"
	"github.com/masab-afzaal/mindbuddy/internal/api/middleware"
	"github.com/masab-afzaal/mindbuddy/internal/domain/mood"
	"github.com/masab-afzaal/mindbuddy/internal/infrastructure/cache"
	"github.com/masab-afzaal/mindbuddy/pkg/clock"
)

const (
	defaultHistoryDays = 30
	maxHistoryDays     = 365
	maxBackfillDays    = 7
)

// MoodHandler handles HTTP requests for mood tracking operations
type MoodHandler struct {
	service mood.Service
	redis   *cache.RedisClient
	clock   clock.Clock
	logger  *zap.Logger
}

// NewMoodHandler creates a new MoodHandler instance
func NewMoodHandler(service mood.Service, redis *cache.RedisClient, clk clock.Clock, logger *zap.Logger) *MoodHandler {
	return &MoodHandler{
		service: service,
		redis:   redis,
		clock:   clk,
		logger:  logger,
	}
}

// LogMood records a mood entry for a calendar day. Duplicate dates return
// 400 with the existing entry attached.
func (h *MoodHandler) LogMood(c *gin.Context) {
	var req dto.LogMoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	entryDate, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be in YYYY-MM-DD format"})
		return
	}

	today := clock.Midnight(h.clock.Now())
	entryDate = clock.Midnight(entryDate)
	if entryDate.After(today) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot log mood for a future date"})
		return
	}
	if entryDate.Before(today.AddDate(0, 0, -maxBackfillDays)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("cannot log mood more than %d days back", maxBackfillDays)})
		return
	}

	entry, streak, err := h.service.LogMood(c.Request.Context(), mood.LogMoodInput{
		UserID:       userID,
		Date:         entryDate,
		MoodRating:   req.MoodRating,
		EnergyLevel:  req.EnergyLevel,
		AnxietyLevel: req.AnxietyLevel,
		Notes:        req.Notes,
	})
	if err != nil {
		if errors.Is(err, mood.ErrEntryExists) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "mood already logged for this date",
				"entry": entryToResponse(entry),
			})
			return
		}
		h.logger.Error("Failed to log mood", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log mood"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": dto.LogMoodResponse{
		Entry:  entryToResponse(entry),
		Streak: streakToResponse(streak),
	}})
}

// GetHistory returns the chart window plus statistics over the logged days.
// Responses are cached per (user, days) and invalidated on every write.
func (h *MoodHandler) GetHistory(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	days := defaultHistoryDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = parsed
	}
	if days > maxHistoryDays {
		days = maxHistoryDays
	}

	build := func() (interface{}, error) {
		records, err := h.service.GetChartData(c.Request.Context(), userID, days)
		if err != nil {
			return nil, err
		}
		return buildHistoryResponse(days, records), nil
	}

	var result interface{}
	var err error
	if h.redis != nil {
		key := cache.GenerateCacheKey("mood_history", userID, strconv.Itoa(days))
		result, err = h.redis.CacheResponse(c.Request.Context(), key, h.redis.TTLFor("mood_history"), "mood_history", build)
	} else {
		result, err = build()
	}
	if err != nil {
		h.logger.Error("Failed to load mood history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load mood history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// GetStreak returns the user's streak record, zero-valued when absent.
func (h *MoodHandler) GetStreak(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	streak, err := h.service.GetStreak(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load streak", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load streak"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": streakToResponse(streak)})
}

// ListInsights returns the ten most recent insights.
func (h *MoodHandler) ListInsights(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	insights, err := h.service.ListInsights(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load insights", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load insights"})
		return
	}

	responses := make([]dto.InsightResponse, 0, len(insights))
	for i := range insights {
		responses = append(responses, insightToResponse(&insights[i]))
	}

	c.JSON(http.StatusOK, gin.H{"data": dto.InsightListResponse{Insights: responses}})
}

// MarkInsightRead marks one insight as read.
func (h *MoodHandler) MarkInsightRead(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	insightID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid insight ID"})
		return
	}

	if err := h.service.MarkInsightRead(c.Request.Context(), userID, insightID); err != nil {
		if errors.Is(err, mood.ErrInsightNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "insight not found"})
			return
		}
		h.logger.Error("Failed to mark insight read", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark insight read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "insight marked as read"})
}

// GetToday returns today's entry, 404 when nothing is logged yet.
func (h *MoodHandler) GetToday(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	entry, err := h.service.GetTodayEntry(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, mood.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no mood logged today"})
			return
		}
		h.logger.Error("Failed to load today's entry", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load today's entry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entryToResponse(entry)})
}

// UpdateToday updates today's entry in place. The date never changes.
func (h *MoodHandler) UpdateToday(c *gin.Context) {
	var req dto.UpdateMoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	entry, err := h.service.UpdateTodayEntry(c.Request.Context(), userID, mood.UpdateMoodInput{
		MoodRating:   req.MoodRating,
		EnergyLevel:  req.EnergyLevel,
		AnxietyLevel: req.AnxietyLevel,
		Notes:        req.Notes,
	})
	if err != nil {
		if errors.Is(err, mood.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no mood logged today"})
			return
		}
		h.logger.Error("Failed to update today's entry", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update today's entry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entryToResponse(entry)})
}

// buildHistoryResponse computes statistics over the logged days only.
// tracking_percentage is entries/days rounded to one decimal.
func buildHistoryResponse(days int, records []mood.ChartRecord) dto.MoodHistoryResponse {
	response := dto.MoodHistoryResponse{
		Days:    days,
		Records: make([]dto.ChartRecordResponse, 0, len(records)),
	}

	var sum, count int
	best, worst := 0, 0
	for _, r := range records {
		response.Records = append(response.Records, dto.ChartRecordResponse(r))
		if !r.HasEntry || r.MoodRating == nil {
			continue
		}
		rating := *r.MoodRating
		sum += rating
		count++
		if best == 0 || rating > best {
			best = rating
		}
		if worst == 0 || rating < worst {
			worst = rating
		}
	}

	if count > 0 {
		response.Statistics = &dto.MoodStatistics{
			AverageMood:        math.Round(float64(sum)/float64(count)*100) / 100,
			BestMood:           best,
			WorstMood:          worst,
			TotalEntries:       count,
			TrackingPercentage: math.Round(float64(count)/float64(days)*1000) / 10,
		}
	}

	return response
}

func entryToResponse(e *mood.MoodEntry) dto.MoodEntryResponse {
	return dto.MoodEntryResponse{
		ID:           e.ID,
		Date:         e.Date.Format("2006-01-02"),
		MoodRating:   e.MoodRating,
		EnergyLevel:  e.EnergyLevel,
		AnxietyLevel: e.AnxietyLevel,
		Notes:        e.Notes,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func streakToResponse(s *mood.MoodStreak) dto.StreakResponse {
	resp := dto.StreakResponse{
		CurrentStreak: s.CurrentStreak,
		LongestStreak: s.LongestStreak,
		TotalEntries:  s.TotalEntries,
	}
	if s.LastCheckIn != nil {
		formatted := s.LastCheckIn.Format("2006-01-02")
		resp.LastCheckIn = &formatted
	}
	return resp
}

func insightToResponse(i *mood.MoodInsight) dto.InsightResponse {
	var data map[string]interface{}
	if len(i.Data) > 0 {
		if err := json.Unmarshal(i.Data, &data); err != nil {
			data = nil
		}
	}
	return dto.InsightResponse{
		ID:          i.ID,
		InsightType: i.InsightType,
		Title:       i.Title,
		Description: i.Description,
		Data:        data,
		GeneratedAt: i.GeneratedAt,
		IsRead:      i.IsRead,
	}
}
