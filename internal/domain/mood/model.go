package mood

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Insight types
const (
	InsightWeeklyAverage   = "weekly_average"
	InsightMonthlyTrend    = "monthly_trend"
	InsightPatternDetected = "pattern_detected"
	InsightMilestone       = "milestone"
)

// MoodEntry is one mood log for a calendar day. A user can have at most one
// entry per day; the date never changes after creation.
type MoodEntry struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_mood_user_date,priority:1"`
	Date         time.Time `gorm:"type:date;not null;uniqueIndex:idx_mood_user_date,priority:2"`
	MoodRating   int       `gorm:"not null"`
	EnergyLevel  *int      `gorm:"default:null"`
	AnxietyLevel *int      `gorm:"default:null"`
	Notes        string    `gorm:"size:500"`
	CreatedAt    time.Time `gorm:"not null;default:current_timestamp"`
	UpdatedAt    time.Time `gorm:"not null;default:current_timestamp;autoUpdateTime"`
}

// MoodStreak is the per-user streak record, created lazily on first log.
// longest_streak >= current_streak holds after every update.
type MoodStreak struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	CurrentStreak int        `gorm:"default:0;not null"`
	LongestStreak int        `gorm:"default:0;not null"`
	LastCheckIn   *time.Time `gorm:"type:date;default:null"`
	TotalEntries  int        `gorm:"default:0;not null"`
	CreatedAt     time.Time  `gorm:"not null;default:current_timestamp"`
	UpdatedAt     time.Time  `gorm:"not null;default:current_timestamp;autoUpdateTime"`
}

// MoodInsight is a generated observation about a user's mood data.
// Append-only, except the is_read flag.
type MoodInsight struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index"`
	InsightType string         `gorm:"size:50;not null"`
	Title       string         `gorm:"size:255;not null"`
	Description string         `gorm:"type:text"`
	Data        datatypes.JSON `gorm:"type:jsonb"`
	GeneratedAt time.Time      `gorm:"not null;default:current_timestamp"`
	IsRead      bool           `gorm:"default:false;not null"`
}

// LogMoodInput represents the input for logging a mood entry
type LogMoodInput struct {
	UserID       uuid.UUID `json:"user_id"`
	Date         time.Time `json:"date"`
	MoodRating   int       `json:"mood_rating"`
	EnergyLevel  *int      `json:"energy_level,omitempty"`
	AnxietyLevel *int      `json:"anxiety_level,omitempty"`
	Notes        string    `json:"notes"`
}

// UpdateMoodInput represents the input for updating an existing entry.
// The entry date is not updatable.
type UpdateMoodInput struct {
	MoodRating   *int    `json:"mood_rating,omitempty"`
	EnergyLevel  *int    `json:"energy_level,omitempty"`
	AnxietyLevel *int    `json:"anxiety_level,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

// ChartRecord is one day in a chart window. Days without an entry are
// explicit, with HasEntry false and nil ratings.
type ChartRecord struct {
	Date         string `json:"date"`
	HasEntry     bool   `json:"has_entry"`
	MoodRating   *int   `json:"mood_rating"`
	EnergyLevel  *int   `json:"energy_level"`
	AnxietyLevel *int   `json:"anxiety_level"`
	Notes        string `json:"notes"`
}

// TableName specifies the table name for the MoodEntry model
func (MoodEntry) TableName() string {
	return "mood_entries"
}

// TableName specifies the table name for the MoodStreak model
func (MoodStreak) TableName() string {
	return "mood_streaks"
}

// TableName specifies the table name for the MoodInsight model
func (MoodInsight) TableName() string {
	return "mood_insights"
}

// BeforeCreate is called before creating a new mood entry
func (m *MoodEntry) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	m.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate is called before updating a mood entry
func (m *MoodEntry) BeforeUpdate(tx *gorm.DB) error {
	m.UpdatedAt = time.Now()
	return nil
}

// BeforeCreate is called before creating a new streak record
func (s *MoodStreak) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	s.UpdatedAt = time.Now()
	return nil
}

// BeforeCreate is called before creating a new insight
func (i *MoodInsight) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.GeneratedAt.IsZero() {
		i.GeneratedAt = time.Now()
	}
	return nil
}
