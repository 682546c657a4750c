package conversation

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Message sender types
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
	SenderSystem    = "system"
)

// Conversation is a chat session between a user and the assistant.
type Conversation struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Title     string    `gorm:"size:200"`
	IsActive  bool      `gorm:"default:true;not null"`
	CreatedAt time.Time `gorm:"not null;default:current_timestamp"`
	UpdatedAt time.Time `gorm:"not null;default:current_timestamp;autoUpdateTime"`

	Messages []Message `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
}

// Message is one turn in a conversation. Assistant messages carry provider
// metadata; failed provider calls store the failure reason in token_usage.
type Message struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	ConversationID uuid.UUID      `gorm:"type:uuid;not null;index"`
	Content        string         `gorm:"type:text;not null"`
	SenderType     string         `gorm:"size:10;not null"`
	ModelUsed      string         `gorm:"size:50"`
	ResponseTime   *float64       `gorm:"default:null"`
	TokenUsage     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"not null;default:current_timestamp"`
}

// ConversationMemory accumulates long-lived context for one conversation.
type ConversationMemory struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	ConversationID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex"`
	UserProfile         datatypes.JSON `gorm:"type:jsonb"`
	ConversationSummary string         `gorm:"type:text"`
	KeyInsights         datatypes.JSON `gorm:"type:jsonb"`
	TherapeuticGoals    datatypes.JSON `gorm:"type:jsonb"`
	SessionNotes        string         `gorm:"type:text"`
	UpdatedAt           time.Time      `gorm:"not null;default:current_timestamp;autoUpdateTime"`
}

// ChatInput represents an incoming chat request
type ChatInput struct {
	UserID         uuid.UUID
	ConversationID *uuid.UUID
	Message        string
}

// ChatResult is the outcome of one chat round trip
type ChatResult struct {
	Conversation     *Conversation
	UserMessage      *Message
	AssistantMessage *Message
}

// TableName specifies the table name for the Conversation model
func (Conversation) TableName() string {
	return "conversations"
}

// TableName specifies the table name for the Message model
func (Message) TableName() string {
	return "messages"
}

// TableName specifies the table name for the ConversationMemory model
func (ConversationMemory) TableName() string {
	return "conversation_memories"
}

// BeforeCreate is called before creating a new conversation
func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()
	return nil
}

// BeforeCreate is called before creating a new message
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	return nil
}

// BeforeCreate is called before creating a new memory record
func (m *ConversationMemory) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.UserProfile == nil {
		m.UserProfile = datatypes.JSON([]byte("{}"))
	}
	if m.KeyInsights == nil {
		m.KeyInsights = datatypes.JSON([]byte("[]"))
	}
	if m.TherapeuticGoals == nil {
		m.TherapeuticGoals = datatypes.JSON([]byte("[]"))
	}
	return nil
}
