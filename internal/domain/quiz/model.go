package quiz

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Allowed quiz lengths
var ValidLengths = map[int]bool{3: true, 5: true, 8: true}

// QuizTopic names a wellness subject quizzes are generated about.
type QuizTopic struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Name      string    `gorm:"size:200;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"not null;default:current_timestamp"`
}

// Quiz holds one generated set of multiple-choice questions.
type Quiz struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index"`
	TopicID   uuid.UUID      `gorm:"type:uuid;not null"`
	Topic     QuizTopic      `gorm:"foreignKey:TopicID"`
	Length    int            `gorm:"not null"`
	Questions datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null;default:current_timestamp"`
}

// QuizResult stores a submission with its generated insight text.
// liked is three-valued: nil until the user reacts.
type QuizResult struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index"`
	QuizID      uuid.UUID      `gorm:"type:uuid;not null"`
	Quiz        Quiz           `gorm:"foreignKey:QuizID"`
	Answers     datatypes.JSON `gorm:"type:jsonb;not null"`
	Insights    string         `gorm:"type:text"`
	Liked       *bool          `gorm:"default:null"`
	CompletedAt time.Time      `gorm:"not null;default:current_timestamp"`
}

// QuizHistory keeps the latest results per (user, topic), replaced on each
// new submission for the same topic.
type QuizHistory struct {
	ID      uuid.UUID      `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID  uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_quiz_history_user_topic,priority:1"`
	TopicID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_quiz_history_user_topic,priority:2"`
	Topic   QuizTopic      `gorm:"foreignKey:TopicID"`
	Results datatypes.JSON `gorm:"type:jsonb;not null"`
	TakenAt time.Time      `gorm:"not null;default:current_timestamp;autoUpdateTime"`
}

// Question is one generated multiple-choice question.
type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// TableName specifies the table name for the QuizTopic model
func (QuizTopic) TableName() string {
	return "quiz_topics"
}

// TableName specifies the table name for the Quiz model
func (Quiz) TableName() string {
	return "quizzes"
}

// TableName specifies the table name for the QuizResult model
func (QuizResult) TableName() string {
	return "quiz_results"
}

// TableName specifies the table name for the QuizHistory model
func (QuizHistory) TableName() string {
	return "quiz_histories"
}

// BeforeCreate is called before creating a new topic
func (t *QuizTopic) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// BeforeCreate is called before creating a new quiz
func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// BeforeCreate is called before creating a new result
func (r *QuizResult) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CompletedAt.IsZero() {
		r.CompletedAt = time.Now()
	}
	return nil
}

// BeforeCreate is called before creating a new history record
func (h *QuizHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
