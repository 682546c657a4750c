package conversation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/masab-afzaal/mindbuddy/internal/infrastructure/persistence/postgres/connection"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrConversationNotFound = errors.New("conversation not found")

// Repository defines the interface for conversation persistence operations
type Repository interface {
	CreateConversation(ctx context.Context, conv *Conversation) error
	FindConversation(ctx context.Context, userID, id uuid.UUID) (*Conversation, error)
	FindConversationWithMessages(ctx context.Context, userID, id uuid.UUID) (*Conversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]Conversation, error)
	CountConversations(ctx context.Context, userID uuid.UUID) (int64, error)
	TouchConversation(ctx context.Context, conv *Conversation) error

	CreateMessage(ctx context.Context, msg *Message) error
	RecentMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]Message, error)

	GetOrCreateMemory(ctx context.Context, conversationID uuid.UUID) (*ConversationMemory, error)
	SaveMemory(ctx context.Context, memory *ConversationMemory) error
}

type repository struct {
	db *connection.Database
}

func NewRepository(db *connection.Database) Repository {
	return &repository{db: db}
}

func (r *repository) CreateConversation(ctx context.Context, conv *Conversation) error {
	return r.db.WithContext(ctx).Create(conv).Error
}

func (r *repository) FindConversation(ctx context.Context, userID, id uuid.UUID) (*Conversation, error) {
	var conv Conversation
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&conv)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, result.Error
	}
	return &conv, nil
}

func (r *repository) FindConversationWithMessages(ctx context.Context, userID, id uuid.UUID) (*Conversation, error) {
	var conv Conversation
	result := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&conv)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, result.Error
	}
	return &conv, nil
}

func (r *repository) ListConversations(ctx context.Context, userID uuid.UUID) ([]Conversation, error) {
	var convs []Conversation
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("updated_at DESC").
		Find(&convs).Error
	return convs, err
}

func (r *repository) CountConversations(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Conversation{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&count).Error
	return count, err
}

func (r *repository) TouchConversation(ctx context.Context, conv *Conversation) error {
	return r.db.WithContext(ctx).Save(conv).Error
}

func (r *repository) CreateMessage(ctx context.Context, msg *Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// RecentMessages returns the latest limit messages in chronological order.
func (r *repository) RecentMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]Message, error) {
	var messages []Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *repository) GetOrCreateMemory(ctx context.Context, conversationID uuid.UUID) (*ConversationMemory, error) {
	var memory ConversationMemory
	result := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		First(&memory)
	if result.Error == nil {
		return &memory, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	memory = ConversationMemory{
		ID:               uuid.New(),
		ConversationID:   conversationID,
		UserProfile:      datatypes.JSON([]byte("{}")),
		KeyInsights:      datatypes.JSON([]byte("[]")),
		TherapeuticGoals: datatypes.JSON([]byte("[]")),
	}
	if err := r.db.WithContext(ctx).Create(&memory).Error; err != nil {
		return nil, err
	}
	return &memory, nil
}

func (r *repository) SaveMemory(ctx context.Context, memory *ConversationMemory) error {
	return r.db.WithContext(ctx).Save(memory).Error
}
