package dto

import (
	"time"

	"github.com/google/uuid"
)

// LogMoodRequest represents the request to log a mood entry
type LogMoodRequest struct {
	Date         string `json:"date" binding:"required"`
	MoodRating   int    `json:"mood_rating" binding:"required,min=1,max=5"`
	EnergyLevel  *int   `json:"energy_level,omitempty" binding:"omitempty,min=1,max=5"`
	AnxietyLevel *int   `json:"anxiety_level,omitempty" binding:"omitempty,min=1,max=5"`
	Notes        string `json:"notes,omitempty" binding:"max=500"`
}

// UpdateMoodRequest represents the request to update today's entry
type UpdateMoodRequest struct {
	MoodRating   *int    `json:"mood_rating,omitempty" binding:"omitempty,min=1,max=5"`
	EnergyLevel  *int    `json:"energy_level,omitempty" binding:"omitempty,min=1,max=5"`
	AnxietyLevel *int    `json:"anxiety_level,omitempty" binding:"omitempty,min=1,max=5"`
	Notes        *string `json:"notes,omitempty" binding:"omitempty,max=500"`
}

// MoodEntryResponse represents a mood entry in API responses
type MoodEntryResponse struct {
	ID           uuid.UUID `json:"id"`
	Date         string    `json:"date"`
	MoodRating   int       `json:"mood_rating"`
	EnergyLevel  *int      `json:"energy_level"`
	AnxietyLevel *int      `json:"anxiety_level"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StreakResponse represents the user's streak record
type StreakResponse struct {
	CurrentStreak int     `json:"current_streak"`
	LongestStreak int     `json:"longest_streak"`
	LastCheckIn   *string `json:"last_check_in"`
	TotalEntries  int     `json:"total_entries"`
}

// LogMoodResponse is returned after logging an entry
type LogMoodResponse struct {
	Entry  MoodEntryResponse `json:"entry"`
	Streak StreakResponse    `json:"streak"`
}

// ChartRecordResponse is one day inside a history window
type ChartRecordResponse struct {
	Date         string `json:"date"`
	HasEntry     bool   `json:"has_entry"`
	MoodRating   *int   `json:"mood_rating"`
	EnergyLevel  *int   `json:"energy_level"`
	AnxietyLevel *int   `json:"anxiety_level"`
	Notes        string `json:"notes"`
}

// MoodStatistics summarizes the logged days in a history window.
// Omitted entirely when the window has no entries.
type MoodStatistics struct {
	AverageMood        float64 `json:"average_mood"`
	BestMood           int     `json:"best_mood"`
	WorstMood          int     `json:"worst_mood"`
	TotalEntries       int     `json:"total_entries"`
	TrackingPercentage float64 `json:"tracking_percentage"`
}

// MoodHistoryResponse represents the chart endpoint payload
type MoodHistoryResponse struct {
	Days       int                   `json:"days"`
	Records    []ChartRecordResponse `json:"records"`
	Statistics *MoodStatistics       `json:"statistics,omitempty"`
}

// InsightResponse represents a generated insight
type InsightResponse struct {
	ID          uuid.UUID              `json:"id"`
	InsightType string                 `json:"insight_type"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data"`
	GeneratedAt time.Time              `json:"generated_at"`
	IsRead      bool                   `json:"is_read"`
}

// InsightListResponse represents the insights endpoint payload
type InsightListResponse struct {
	Insights []InsightResponse `json:"insights"`
}
