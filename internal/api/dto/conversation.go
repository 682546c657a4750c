package dto

import (
	"time"

	"github.com/google/uuid"
)

// ChatRequest represents a chat message submission. ConversationID is
// omitted to start a new conversation.
type ChatRequest struct {
	Message        string     `json:"message" binding:"required"`
	ConversationID *uuid.UUID `json:"conversation_id,omitempty"`
}

// MessageResponse represents a single message in API responses
type MessageResponse struct {
	ID           uuid.UUID `json:"id"`
	Content      string    `json:"content"`
	SenderType   string    `json:"sender_type"`
	ModelUsed    string    `json:"model_used,omitempty"`
	ResponseTime *float64  `json:"response_time,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ChatResponse is returned after a chat round trip
type ChatResponse struct {
	ConversationID uuid.UUID       `json:"conversation_id"`
	UserMessage    MessageResponse `json:"user_message"`
	AIResponse     MessageResponse `json:"ai_response"`
}

// ConversationResponse represents a conversation in list/detail responses
type ConversationResponse struct {
	ID        uuid.UUID         `json:"id"`
	Title     string            `json:"title"`
	IsActive  bool              `json:"is_active"`
	Messages  []MessageResponse `json:"messages,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ConversationListResponse represents the conversation list payload
type ConversationListResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
	TotalCount    int64                  `json:"total_count"`
}
