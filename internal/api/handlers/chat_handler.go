package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/masab-afzaal/mindbuddy/internal/api/dto"
	"github.com/masab-afzaal/mindbuddy/internal/api/middleware"
	"github.com/masab-afzaal/mindbuddy/internal/domain/conversation"
)

// ChatHandler handles HTTP requests for therapeutic chat operations
type ChatHandler struct {
	service conversation.Service
	logger  *zap.Logger
}

// NewChatHandler creates a new ChatHandler instance
func NewChatHandler(service conversation.Service, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{service: service, logger: logger}
}

// Chat sends a message and returns the assistant reply. Provider failures
// still return 200 with a fallback reply.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	result, err := h.service.Chat(c.Request.Context(), conversation.ChatInput{
		UserID:         userID,
		ConversationID: req.ConversationID,
		Message:        req.Message,
	})
	if err != nil {
		if errors.Is(err, conversation.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message cannot be empty"})
			return
		}
		h.logger.Error("Chat failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto.ChatResponse{
		ConversationID: result.Conversation.ID,
		UserMessage:    messageToResponse(result.UserMessage),
		AIResponse:     messageToResponse(result.AssistantMessage),
	}})
}

// ListConversations returns the user's active conversations, most recent first.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	conversations, err := h.service.ListConversations(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list conversations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list conversations"})
		return
	}

	responses := make([]dto.ConversationResponse, 0, len(conversations))
	for i := range conversations {
		responses = append(responses, conversationToResponse(&conversations[i], false))
	}

	c.JSON(http.StatusOK, gin.H{"data": dto.ConversationListResponse{
		Conversations: responses,
		TotalCount:    int64(len(responses)),
	}})
}

// GetConversation returns one conversation with its full message list.
func (h *ChatHandler) GetConversation(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation ID"})
		return
	}

	conv, err := h.service.GetConversation(c.Request.Context(), userID, id)
	if err != nil {
		if errors.Is(err, conversation.ErrConversationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		h.logger.Error("Failed to load conversation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": conversationToResponse(conv, true)})
}

func messageToResponse(m *conversation.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:           m.ID,
		Content:      m.Content,
		SenderType:   m.SenderType,
		ModelUsed:    m.ModelUsed,
		ResponseTime: m.ResponseTime,
		CreatedAt:    m.CreatedAt,
	}
}

func conversationToResponse(conv *conversation.Conversation, withMessages bool) dto.ConversationResponse {
	resp := dto.ConversationResponse{
		ID:        conv.ID,
		Title:     conv.Title,
		IsActive:  conv.IsActive,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}
	if withMessages {
		resp.Messages = make([]dto.MessageResponse, 0, len(conv.Messages))
		for i := range conv.Messages {
			resp.Messages = append(resp.Messages, messageToResponse(&conv.Messages[i]))
		}
	}
	return resp
}
