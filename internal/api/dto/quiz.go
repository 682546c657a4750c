package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateQuizRequest represents the request to generate a quiz
type CreateQuizRequest struct {
	Topic  string `json:"topic" binding:"required"`
	Length int    `json:"length" binding:"required"`
}

// SubmitAnswersRequest represents a quiz submission
type SubmitAnswersRequest struct {
	Answers []string `json:"answers" binding:"required"`
}

// QuestionResponse is one generated question with its options
type QuestionResponse struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// QuizResponse represents a generated quiz
type QuizResponse struct {
	ID        uuid.UUID          `json:"id"`
	Topic     string             `json:"topic"`
	Length    int                `json:"length"`
	Questions []QuestionResponse `json:"questions"`
	CreatedAt time.Time          `json:"created_at"`
}

// AnsweredQuestionResponse pairs a question with the submitted answer
type AnsweredQuestionResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QuizResultResponse represents a submission with its insights
type QuizResultResponse struct {
	ID          uuid.UUID                  `json:"id"`
	QuizID      uuid.UUID                  `json:"quiz_id"`
	Topic       string                     `json:"topic"`
	Answers     []AnsweredQuestionResponse `json:"answers"`
	Insights    string                     `json:"insights"`
	Liked       *bool                      `json:"liked"`
	CompletedAt time.Time                  `json:"completed_at"`
}

// QuizHistoryItemResponse is the stored latest run for one topic
type QuizHistoryItemResponse struct {
	Topic   string                     `json:"topic"`
	Results []AnsweredQuestionResponse `json:"results"`
	TakenAt time.Time                  `json:"taken_at"`
}

// QuizHistoryResponse represents the quiz history payload
type QuizHistoryResponse struct {
	History []QuizHistoryItemResponse `json:"history"`
}
