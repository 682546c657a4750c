package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/masab-afzaal/mindbuddy/internal/ai"
)

var (
	ErrInvalidLength    = errors.New("quiz length must be 3, 5 or 8")
	ErrEmptyTopic       = errors.New("quiz topic is required")
	ErrAnswerCount      = errors.New("answer count does not match quiz length")
	ErrQuestionCount    = errors.New("generated question count does not match requested length")
	ErrInvalidQuestions = errors.New("could not parse generated questions")
)

const questionsMaxTokens = 2048

// Service defines the interface for quiz business operations
type Service interface {
	CreateQuiz(ctx context.Context, userID uuid.UUID, topic string, length int) (*Quiz, error)
	SubmitAnswers(ctx context.Context, userID, quizID uuid.UUID, answers []string) (*QuizResult, error)
	GetResult(ctx context.Context, userID, resultID uuid.UUID) (*QuizResult, error)
	LikeInsight(ctx context.Context, userID, resultID uuid.UUID) (*QuizResult, error)
	DislikeInsight(ctx context.Context, userID, resultID uuid.UUID) (*QuizResult, error)
	RegenerateInsights(ctx context.Context, userID, resultID uuid.UUID) (*QuizResult, error)
	GetUserHistory(ctx context.Context, userID uuid.UUID) ([]QuizHistory, error)
	CountResults(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo   Repository
	ai     ai.Client
	logger *logrus.Logger
}

// NewService creates a new quiz service
func NewService(repo Repository, aiClient ai.Client, logger *logrus.Logger) Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &service{
		repo:   repo,
		ai:     aiClient,
		logger: logger,
	}
}

// CreateQuiz generates a fresh set of questions for a topic. The quiz is only
// persisted when the provider returns a parseable array of exactly the
// requested number of questions.
func (s *service) CreateQuiz(ctx context.Context, userID uuid.UUID, topic string, length int) (*Quiz, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	if !ValidLengths[length] {
		return nil, ErrInvalidLength
	}

	t, err := s.repo.GetOrCreateTopic(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve topic: %w", err)
	}

	completion, err := s.ai.Complete(ctx, ai.Request{
		System:    ai.BuildQuizQuestionsPrompt(topic, length),
		MaxTokens: questionsMaxTokens,
		JSONMode:  true,
	})
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"topic":   topic,
		}).WithError(err).Error("Quiz question generation failed")
		return nil, fmt.Errorf("failed to generate questions: %w", err)
	}

	questions, err := parseQuestions(completion.Content)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"topic":   topic,
		}).WithError(err).Error("Quiz question parsing failed")
		return nil, err
	}
	if len(questions) != length {
		s.logger.WithFields(logrus.Fields{
			"user_id":   userID,
			"topic":     topic,
			"requested": length,
			"received":  len(questions),
		}).Warn("Provider returned wrong question count")
		return nil, ErrQuestionCount
	}

	raw, err := json.Marshal(questions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode questions: %w", err)
	}

	quiz := &Quiz{
		ID:        uuid.New(),
		UserID:    userID,
		TopicID:   t.ID,
		Topic:     *t,
		Length:    length,
		Questions: datatypes.JSON(raw),
	}
	if err := s.repo.CreateQuiz(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to save quiz: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"quiz_id": quiz.ID,
		"topic":   topic,
		"length":  length,
	}).Info("Quiz created")

	return quiz, nil
}

// SubmitAnswers records a submission, generates an insight for it and
// replaces the stored per-topic history with the new answers.
func (s *service) SubmitAnswers(ctx context.Context, userID, quizID uuid.UUID, answers []string) (*QuizResult, error) {
	quiz, err := s.repo.FindQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.UserID != userID {
		return nil, ErrQuizNotFound
	}

	var questions []Question
	if err := json.Unmarshal(quiz.Questions, &questions); err != nil {
		return nil, fmt.Errorf("failed to decode quiz questions: %w", err)
	}
	if len(answers) != len(questions) {
		return nil, ErrAnswerCount
	}

	answered := pairAnswers(questions, answers)

	previous, err := s.previousResults(ctx, userID, quiz.TopicID)
	if err != nil {
		s.logger.WithError(err).Warn("Could not load previous quiz history")
		previous = nil
	}

	insights := s.generateInsights(ctx, quiz.Topic.Name, answered, previous, "")

	rawAnswers, err := json.Marshal(answered)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}

	result := &QuizResult{
		ID:          uuid.New(),
		UserID:      userID,
		QuizID:      quiz.ID,
		Quiz:        *quiz,
		Answers:     datatypes.JSON(rawAnswers),
		Insights:    insights,
		CompletedAt: time.Now(),
	}
	if err := s.repo.CreateResult(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to save quiz result: %w", err)
	}

	if err := s.repo.UpsertHistory(ctx, userID, quiz.TopicID, datatypes.JSON(rawAnswers)); err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id":  userID,
			"topic_id": quiz.TopicID,
		}).WithError(err).Error("Failed to update quiz history")
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":   userID,
		"quiz_id":   quiz.ID,
		"result_id": result.ID,
	}).Info("Quiz submitted")

	return result, nil
}

func (s *service) GetResult(ctx context.Context, userID, resultID uuid.UUID) (*QuizResult, error) {
	return s.repo.FindResult(ctx, userID, resultID)
}

func (s *service) LikeInsight(ctx context.Context, userID, resultID uuid.UUID) (*QuizResult, error) {
	return s.setLiked(ctx, userID, resultID, true)
}

func (s *service) DislikeInsight(ctx context.Context, userID, resultID uuid.UUID) (*QuizResult, error) {
	return s.setLiked(ctx, userID, resultID, false)
}

// RegenerateInsights asks for a fresh insight, feeding the disliked text back
// so the provider changes tone. The reaction resets to undecided.
func (s *service) RegenerateInsights(ctx context.Context, userID, resultID uuid.UUID) (*QuizResult, error) {
	result, err := s.repo.FindResult(ctx, userID, resultID)
	if err != nil {
		return nil, err
	}

	var answered []ai.AnsweredQuestion
	if err := json.Unmarshal(result.Answers, &answered); err != nil {
		return nil, fmt.Errorf("failed to decode stored answers: %w", err)
	}

	result.Insights = s.generateInsights(ctx, result.Quiz.Topic.Name, answered, nil, result.Insights)
	result.Liked = nil
	if err := s.repo.SaveResult(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to save regenerated insights: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":   userID,
		"result_id": resultID,
	}).Info("Quiz insights regenerated")

	return result, nil
}

func (s *service) GetUserHistory(ctx context.Context, userID uuid.UUID) ([]QuizHistory, error) {
	return s.repo.ListHistory(ctx, userID)
}

func (s *service) CountResults(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountResults(ctx, userID)
}

func (s *service) setLiked(ctx context.Context, userID, resultID uuid.UUID, liked bool) (*QuizResult, error) {
	result, err := s.repo.FindResult(ctx, userID, resultID)
	if err != nil {
		return nil, err
	}
	result.Liked = &liked
	if err := s.repo.SaveResult(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to save reaction: %w", err)
	}
	return result, nil
}

// generateInsights never fails the submission: provider errors fall back to a
// canned apology so the result is still stored.
func (s *service) generateInsights(ctx context.Context, topic string, answered []ai.AnsweredQuestion, previous *ai.PreviousQuizResults, dislikedText string) string {
	completion, err := s.ai.Complete(ctx, ai.Request{
		System: ai.BuildInsightsPrompt(topic, answered, previous, dislikedText),
	})
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"topic": topic,
		}).WithError(err).Error("Quiz insight generation failed")
		return ai.InsightFallback
	}
	return completion.Content
}

func (s *service) previousResults(ctx context.Context, userID, topicID uuid.UUID) (*ai.PreviousQuizResults, error) {
	history, err := s.repo.LatestHistory(ctx, userID, topicID)
	if err != nil || history == nil {
		return nil, err
	}
	var results []ai.AnsweredQuestion
	if err := json.Unmarshal(history.Results, &results); err != nil {
		return nil, err
	}
	return &ai.PreviousQuizResults{
		Date:    history.TakenAt.Format("January 02, 2006"),
		Results: results,
	}, nil
}

func pairAnswers(questions []Question, answers []string) []ai.AnsweredQuestion {
	n := len(questions)
	if len(answers) < n {
		n = len(answers)
	}
	answered := make([]ai.AnsweredQuestion, 0, n)
	for i := 0; i < n; i++ {
		answered = append(answered, ai.AnsweredQuestion{
			Question: questions[i].Question,
			Answer:   answers[i],
		})
	}
	return answered
}

// parseQuestions accepts either a bare JSON array or an object wrapping the
// array under some key, which JSON mode providers commonly produce.
func parseQuestions(content string) ([]Question, error) {
	content = strings.TrimSpace(content)

	var questions []Question
	if err := json.Unmarshal([]byte(content), &questions); err == nil {
		return questions, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &wrapper); err != nil {
		return nil, ErrInvalidQuestions
	}
	for _, raw := range wrapper {
		var inner []Question
		if err := json.Unmarshal(raw, &inner); err == nil && len(inner) > 0 {
			return inner, nil
		}
	}
	return nil, ErrInvalidQuestions
}
