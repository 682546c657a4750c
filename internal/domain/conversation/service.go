package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/masab-afzaal/mindbuddy/internal/ai"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var ErrEmptyMessage = errors.New("message content cannot be empty")

// Number of prior messages handed to the provider as context
const contextWindow = 10

type Service interface {
	Chat(ctx context.Context, input ChatInput) (*ChatResult, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]Conversation, error)
	GetConversation(ctx context.Context, userID, id uuid.UUID) (*Conversation, error)
	CountConversations(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo   Repository
	ai     ai.Client
	logger *zap.Logger
}

func NewService(repo Repository, aiClient ai.Client, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		ai:     aiClient,
		logger: logger,
	}
}

// Chat runs one round trip: persist the user message, call the provider with
// the recent context and stored memory, persist the assistant reply. A
// provider failure substitutes the fallback text; it never fails the request.
func (s *service) Chat(ctx context.Context, input ChatInput) (*ChatResult, error) {
	if strings.TrimSpace(input.Message) == "" {
		return nil, ErrEmptyMessage
	}

	conv, err := s.getOrCreateConversation(ctx, input.UserID, input.ConversationID)
	if err != nil {
		return nil, err
	}

	userMsg := &Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		Content:        input.Message,
		SenderType:     SenderUser,
	}
	if err := s.repo.CreateMessage(ctx, userMsg); err != nil {
		return nil, err
	}

	history, err := s.repo.RecentMessages(ctx, conv.ID, contextWindow)
	if err != nil {
		return nil, err
	}

	memory, err := s.repo.GetOrCreateMemory(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	assistantMsg := s.completeAssistantReply(ctx, conv, history, memory)
	if err := s.repo.CreateMessage(ctx, assistantMsg); err != nil {
		return nil, err
	}

	if err := s.updateMemory(ctx, memory, input.Message, assistantMsg.Content); err != nil {
		s.logger.Error("Failed to update conversation memory",
			zap.String("conversation_id", conv.ID.String()),
			zap.Error(err),
		)
	}

	if err := s.repo.TouchConversation(ctx, conv); err != nil {
		s.logger.Error("Failed to touch conversation", zap.Error(err))
	}

	return &ChatResult{
		Conversation:     conv,
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
	}, nil
}

func (s *service) getOrCreateConversation(ctx context.Context, userID uuid.UUID, conversationID *uuid.UUID) (*Conversation, error) {
	if conversationID != nil {
		conv, err := s.repo.FindConversation(ctx, userID, *conversationID)
		if err == nil {
			return conv, nil
		}
		if !errors.Is(err, ErrConversationNotFound) {
			return nil, err
		}
		// Unknown id falls through to a fresh conversation.
	}

	conv := &Conversation{
		ID:       uuid.New(),
		UserID:   userID,
		Title:    "New Conversation",
		IsActive: true,
	}
	if err := s.repo.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *service) completeAssistantReply(ctx context.Context, conv *Conversation, history []Message, memory *ConversationMemory) *Message {
	var profile map[string]interface{}
	if len(memory.UserProfile) > 0 {
		if err := json.Unmarshal(memory.UserProfile, &profile); err != nil {
			s.logger.Warn("Ignoring malformed user profile", zap.Error(err))
		}
	}

	messages := make([]ai.Message, 0, len(history))
	for _, m := range history {
		role := ai.RoleUser
		if m.SenderType == SenderAssistant {
			role = ai.RoleAssistant
		}
		messages = append(messages, ai.Message{Role: role, Content: m.Content})
	}

	completion, err := s.ai.Complete(ctx, ai.Request{
		System:      ai.BuildTherapeuticPrompt(profile),
		Messages:    messages,
		MaxTokens:   500,
		Temperature: 0.7,
		TopP:        0.9,
	})
	if err != nil {
		s.logger.Error("Provider call failed, substituting fallback",
			zap.String("conversation_id", conv.ID.String()),
			zap.Error(err),
		)
		meta, _ := json.Marshal(map[string]string{"error": err.Error()})
		return &Message{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			Content:        ai.TherapeuticFallback,
			SenderType:     SenderAssistant,
			ModelUsed:      s.ai.Model(),
			TokenUsage:     meta,
		}
	}

	msg := &Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		Content:        completion.Content,
		SenderType:     SenderAssistant,
		ModelUsed:      completion.Model,
		ResponseTime:   &completion.ResponseTime,
	}
	if completion.TokenUsage != nil {
		if usage, err := json.Marshal(completion.TokenUsage); err == nil {
			msg.TokenUsage = usage
		}
	}
	return msg
}

// updateMemory runs the keyword scan over the user message and appends
// truncated session notes.
func (s *service) updateMemory(ctx context.Context, memory *ConversationMemory, userMessage, assistantReply string) error {
	var insights []string
	if len(memory.KeyInsights) > 0 {
		if err := json.Unmarshal(memory.KeyInsights, &insights); err != nil {
			insights = nil
		}
	}

	lower := strings.ToLower(userMessage)
	if containsAny(lower, "anxious", "anxiety", "worried") {
		insights = appendUnique(insights, "anxiety")
	}
	if containsAny(lower, "sad", "depressed", "down") {
		insights = appendUnique(insights, "depression")
	}

	data, err := json.Marshal(insights)
	if err != nil {
		return err
	}
	memory.KeyInsights = datatypes.JSON(data)
	memory.SessionNotes += "\nUser: " + truncate(userMessage, 100) + "...\nAssistant: " + truncate(assistantReply, 100) + "...\n"

	return s.repo.SaveMemory(ctx, memory)
}

func (s *service) ListConversations(ctx context.Context, userID uuid.UUID) ([]Conversation, error) {
	return s.repo.ListConversations(ctx, userID)
}

func (s *service) GetConversation(ctx context.Context, userID, id uuid.UUID) (*Conversation, error) {
	return s.repo.FindConversationWithMessages(ctx, userID, id)
}

func (s *service) CountConversations(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountConversations(ctx, userID)
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
