package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/masab-afzaal/mindbuddy/internal/ai"
	"github.com/masab-afzaal/mindbuddy/internal/api/dto"
	"github.com/masab-afzaal/mindbuddy/internal/api/middleware"
	"github.com/masab-afzaal/mindbuddy/internal/domain/quiz"
)

// QuizHandler handles HTTP requests for AI quiz operations
type QuizHandler struct {
	service quiz.Service
	logger  *zap.Logger
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(service quiz.Service, logger *zap.Logger) *QuizHandler {
	return &QuizHandler{service: service, logger: logger}
}

// CreateQuiz generates a new quiz for a topic.
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req dto.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	created, err := h.service.CreateQuiz(c.Request.Context(), userID, req.Topic, req.Length)
	if err != nil {
		switch {
		case errors.Is(err, quiz.ErrInvalidLength), errors.Is(err, quiz.ErrEmptyTopic):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, quiz.ErrQuestionCount), errors.Is(err, quiz.ErrInvalidQuestions):
			c.JSON(http.StatusBadGateway, gin.H{"error": "question generation failed, please try again"})
		default:
			h.logger.Error("Failed to create quiz", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create quiz"})
		}
		return
	}

	resp, err := quizToResponse(created)
	if err != nil {
		h.logger.Error("Failed to decode quiz questions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create quiz"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

// SubmitAnswers records a quiz submission and returns the generated insights.
func (h *QuizHandler) SubmitAnswers(c *gin.Context) {
	var req dto.SubmitAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	quizID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quiz ID"})
		return
	}

	result, err := h.service.SubmitAnswers(c.Request.Context(), userID, quizID, req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, quiz.ErrQuizNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "quiz not found"})
		case errors.Is(err, quiz.ErrAnswerCount):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Failed to submit quiz", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit quiz"})
		}
		return
	}

	h.respondWithResult(c, http.StatusCreated, result)
}

// GetResult returns one submission with its insights.
func (h *QuizHandler) GetResult(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	resultID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid result ID"})
		return
	}

	result, err := h.service.GetResult(c.Request.Context(), userID, resultID)
	if err != nil {
		if errors.Is(err, quiz.ErrResultNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "result not found"})
			return
		}
		h.logger.Error("Failed to load quiz result", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load result"})
		return
	}

	h.respondWithResult(c, http.StatusOK, result)
}

// LikeInsight marks a result's insights as liked.
func (h *QuizHandler) LikeInsight(c *gin.Context) {
	h.react(c, true)
}

// DislikeInsight marks a result's insights as disliked.
func (h *QuizHandler) DislikeInsight(c *gin.Context) {
	h.react(c, false)
}

// RegenerateInsights replaces a disliked insight with a fresh one.
func (h *QuizHandler) RegenerateInsights(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	resultID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid result ID"})
		return
	}

	result, err := h.service.RegenerateInsights(c.Request.Context(), userID, resultID)
	if err != nil {
		if errors.Is(err, quiz.ErrResultNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "result not found"})
			return
		}
		h.logger.Error("Failed to regenerate insights", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to regenerate insights"})
		return
	}

	h.respondWithResult(c, http.StatusOK, result)
}

// GetHistory returns the latest stored run per topic.
func (h *QuizHandler) GetHistory(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	history, err := h.service.GetUserHistory(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load quiz history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load quiz history"})
		return
	}

	items := make([]dto.QuizHistoryItemResponse, 0, len(history))
	for i := range history {
		var results []dto.AnsweredQuestionResponse
		if err := json.Unmarshal(history[i].Results, &results); err != nil {
			h.logger.Warn("Skipping undecodable history entry",
				zap.String("history_id", history[i].ID.String()),
				zap.Error(err),
			)
			continue
		}
		items = append(items, dto.QuizHistoryItemResponse{
			Topic:   history[i].Topic.Name,
			Results: results,
			TakenAt: history[i].TakenAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": dto.QuizHistoryResponse{History: items}})
}

func (h *QuizHandler) react(c *gin.Context, liked bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	resultID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid result ID"})
		return
	}

	var result *quiz.QuizResult
	if liked {
		result, err = h.service.LikeInsight(c.Request.Context(), userID, resultID)
	} else {
		result, err = h.service.DislikeInsight(c.Request.Context(), userID, resultID)
	}
	if err != nil {
		if errors.Is(err, quiz.ErrResultNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "result not found"})
			return
		}
		h.logger.Error("Failed to save reaction", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save reaction"})
		return
	}

	h.respondWithResult(c, http.StatusOK, result)
}

func (h *QuizHandler) respondWithResult(c *gin.Context, status int, result *quiz.QuizResult) {
	resp, err := resultToResponse(result)
	if err != nil {
		h.logger.Error("Failed to decode quiz result", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load result"})
		return
	}
	c.JSON(status, gin.H{"data": resp})
}

func quizToResponse(q *quiz.Quiz) (dto.QuizResponse, error) {
	var questions []quiz.Question
	if err := json.Unmarshal(q.Questions, &questions); err != nil {
		return dto.QuizResponse{}, err
	}

	responses := make([]dto.QuestionResponse, 0, len(questions))
	for _, question := range questions {
		responses = append(responses, dto.QuestionResponse{
			Question: question.Question,
			Options:  question.Options,
		})
	}

	return dto.QuizResponse{
		ID:        q.ID,
		Topic:     q.Topic.Name,
		Length:    q.Length,
		Questions: responses,
		CreatedAt: q.CreatedAt,
	}, nil
}

func resultToResponse(r *quiz.QuizResult) (dto.QuizResultResponse, error) {
	var answered []ai.AnsweredQuestion
	if err := json.Unmarshal(r.Answers, &answered); err != nil {
		return dto.QuizResultResponse{}, err
	}

	answers := make([]dto.AnsweredQuestionResponse, 0, len(answered))
	for _, a := range answered {
		answers = append(answers, dto.AnsweredQuestionResponse{
			Question: a.Question,
			Answer:   a.Answer,
		})
	}

	return dto.QuizResultResponse{
		ID:          r.ID,
		QuizID:      r.QuizID,
		Topic:       r.Quiz.Topic.Name,
		Answers:     answers,
		Insights:    r.Insights,
		Liked:       r.Liked,
		CompletedAt: r.CompletedAt,
	}, nil
}
