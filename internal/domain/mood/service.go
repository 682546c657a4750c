package mood

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/masab-afzaal/mindbuddy/internal/domain/events"
	"github.com/masab-afzaal/mindbuddy/internal/infrastructure/cache"
	"github.com/masab-afzaal/mindbuddy/pkg/clock"
	"go.uber.org/zap"
)

// Streak lengths that produce a milestone insight
var milestoneThresholds = map[int]bool{7: true, 30: true, 100: true}

type Service interface {
	LogMood(ctx context.Context, input LogMoodInput) (*MoodEntry, *MoodStreak, error)
	UpdateStreak(ctx context.Context, userID uuid.UUID, entryDate time.Time) (*MoodStreak, error)
	GenerateWeeklyInsight(ctx context.Context, userID uuid.UUID) error
	GetChartData(ctx context.Context, userID uuid.UUID, days int) ([]ChartRecord, error)
	GetStreak(ctx context.Context, userID uuid.UUID) (*MoodStreak, error)
	GetTodayEntry(ctx context.Context, userID uuid.UUID) (*MoodEntry, error)
	UpdateTodayEntry(ctx context.Context, userID uuid.UUID, input UpdateMoodInput) (*MoodEntry, error)
	ListInsights(ctx context.Context, userID uuid.UUID) ([]MoodInsight, error)
	CountUnreadInsights(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkInsightRead(ctx context.Context, userID, insightID uuid.UUID) error
}

type service struct {
	repo   Repository
	redis  *cache.RedisClient
	clock  clock.Clock
	logger *zap.Logger
}

func NewService(repo Repository, redis *cache.RedisClient, clk clock.Clock, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		redis:  redis,
		clock:  clk,
		logger: logger,
	}
}

// LogMood creates a mood entry, advances the streak, and generates a weekly
// insight on every 7th total entry. A duplicate date returns the existing
// entry alongside ErrEntryExists so callers can surface it.
func (s *service) LogMood(ctx context.Context, input LogMoodInput) (*MoodEntry, *MoodStreak, error) {
	entry := &MoodEntry{
		ID:           uuid.New(),
		UserID:       input.UserID,
		Date:         clock.Midnight(input.Date),
		MoodRating:   input.MoodRating,
		EnergyLevel:  input.EnergyLevel,
		AnxietyLevel: input.AnxietyLevel,
		Notes:        input.Notes,
	}

	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		if errors.Is(err, ErrEntryExists) {
			existing, findErr := s.repo.FindEntryByDate(ctx, input.UserID, entry.Date)
			if findErr != nil {
				return nil, nil, findErr
			}
			return existing, nil, ErrEntryExists
		}
		return nil, nil, err
	}

	streak, err := s.UpdateStreak(ctx, input.UserID, entry.Date)
	if err != nil {
		return nil, nil, err
	}

	if streak.TotalEntries > 0 && streak.TotalEntries%7 == 0 {
		if err := s.GenerateWeeklyInsight(ctx, input.UserID); err != nil {
			s.logger.Error("Failed to generate weekly insight",
				zap.String("user_id", input.UserID.String()),
				zap.Error(err),
			)
		}
	}

	s.invalidateCaches(ctx, input.UserID, entry.ID)

	return entry, streak, nil
}

// UpdateStreak recalculates the user's streak after an entry lands on
// entryDate. It runs inside a transaction holding a row lock on the streak
// record, so concurrent logs for the same user serialize.
//
// Only entries dated today or yesterday can move the streak; anything older
// updates total_entries alone. The yesterday branch is skipped when
// last_check_in is already yesterday, which also means a backfill for
// yesterday submitted after today's log restarts the streak at 1 rather than
// extending it. That matches the shipped behavior and callers depend on the
// total recount, so it stays.
func (s *service) UpdateStreak(ctx context.Context, userID uuid.UUID, entryDate time.Time) (*MoodStreak, error) {
	var updated *MoodStreak

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		streak, err := tx.GetOrCreateStreakForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		// Always a full recount, never an increment. Backfilled entries
		// make incremental counting unsafe.
		total, err := tx.CountEntries(ctx, userID)
		if err != nil {
			return err
		}
		streak.TotalEntries = int(total)

		today := clock.Midnight(s.clock.Now())
		yesterday := today.AddDate(0, 0, -1)
		entryDay := clock.Midnight(entryDate)

		switch {
		case entryDay.Equal(today):
			if streak.LastCheckIn != nil && clock.SameDay(*streak.LastCheckIn, yesterday) {
				streak.CurrentStreak++
			} else if streak.LastCheckIn != nil && clock.SameDay(*streak.LastCheckIn, today) {
				// Already logged today, no streak change.
			} else {
				streak.CurrentStreak = 1
			}
			streak.LastCheckIn = &today

		case entryDay.Equal(yesterday) && (streak.LastCheckIn == nil || !clock.SameDay(*streak.LastCheckIn, yesterday)):
			dayBefore := entryDay.AddDate(0, 0, -1)
			if streak.LastCheckIn != nil && clock.SameDay(*streak.LastCheckIn, dayBefore) {
				streak.CurrentStreak++
			} else {
				streak.CurrentStreak = 1
			}
			checkIn := entryDay
			streak.LastCheckIn = &checkIn
		}

		if streak.CurrentStreak > streak.LongestStreak {
			streak.LongestStreak = streak.CurrentStreak

			if milestoneThresholds[streak.CurrentStreak] {
				if err := s.emitMilestone(ctx, tx, userID, streak.CurrentStreak); err != nil {
					return err
				}
			}
		}

		if err := tx.SaveStreak(ctx, streak); err != nil {
			return err
		}
		updated = streak
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) emitMilestone(ctx context.Context, tx Repository, userID uuid.UUID, length int) error {
	data, err := json.Marshal(map[string]int{"streak_length": length})
	if err != nil {
		return err
	}

	insight := &MoodInsight{
		ID:          uuid.New(),
		UserID:      userID,
		InsightType: InsightMilestone,
		Title:       fmt.Sprintf("%d Day Streak!", length),
		Description: fmt.Sprintf("Congratulations! You've maintained a %d-day mood logging streak.", length),
		Data:        data,
		GeneratedAt: s.clock.Now(),
	}
	return tx.CreateInsight(ctx, insight)
}

// GenerateWeeklyInsight summarizes the last 7 days of entries. A week with no
// entries generates nothing.
func (s *service) GenerateWeeklyInsight(ctx context.Context, userID uuid.UUID) error {
	endDate := clock.Midnight(s.clock.Now())
	startDate := endDate.AddDate(0, 0, -7)

	entries, err := s.repo.FindEntriesInRange(ctx, userID, startDate, endDate)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	var moodSum int
	var energySum, energyCount int
	var anxietySum, anxietyCount int
	for _, e := range entries {
		moodSum += e.MoodRating
		if e.EnergyLevel != nil {
			energySum += *e.EnergyLevel
			energyCount++
		}
		if e.AnxietyLevel != nil {
			anxietySum += *e.AnxietyLevel
			anxietyCount++
		}
	}

	avgMood := float64(moodSum) / float64(len(entries))
	avgEnergy := 0.0
	if energyCount > 0 {
		avgEnergy = float64(energySum) / float64(energyCount)
	}
	avgAnxiety := 0.0
	if anxietyCount > 0 {
		avgAnxiety = float64(anxietySum) / float64(anxietyCount)
	}

	data, err := json.Marshal(map[string]interface{}{
		"avg_mood":      round2(avgMood),
		"avg_energy":    round2(avgEnergy),
		"avg_anxiety":   round2(avgAnxiety),
		"entries_count": len(entries),
	})
	if err != nil {
		return err
	}

	insight := &MoodInsight{
		ID:          uuid.New(),
		UserID:      userID,
		InsightType: InsightWeeklyAverage,
		Title:       "Weekly Mood Summary",
		Description: fmt.Sprintf("Your average mood this week was %.1f/5. Keep tracking to see your patterns!", avgMood),
		Data:        data,
		GeneratedAt: s.clock.Now(),
	}
	return s.repo.CreateInsight(ctx, insight)
}

// GetChartData returns one record per calendar day for the window ending
// today, days long, ascending. Days without an entry are present with
// has_entry false.
func (s *service) GetChartData(ctx context.Context, userID uuid.UUID, days int) ([]ChartRecord, error) {
	endDate := clock.Midnight(s.clock.Now())
	startDate := endDate.AddDate(0, 0, -(days - 1))

	entries, err := s.repo.FindEntriesInRange(ctx, userID, startDate, endDate)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]*MoodEntry, len(entries))
	for i := range entries {
		byDate[entries[i].Date.Format("2006-01-02")] = &entries[i]
	}

	chartData := make([]ChartRecord, 0, days)
	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		if entry, ok := byDate[key]; ok {
			rating := entry.MoodRating
			energy := 0
			if entry.EnergyLevel != nil {
				energy = *entry.EnergyLevel
			}
			anxiety := 0
			if entry.AnxietyLevel != nil {
				anxiety = *entry.AnxietyLevel
			}
			chartData = append(chartData, ChartRecord{
				Date:         key,
				HasEntry:     true,
				MoodRating:   &rating,
				EnergyLevel:  &energy,
				AnxietyLevel: &anxiety,
				Notes:        entry.Notes,
			})
		} else {
			chartData = append(chartData, ChartRecord{
				Date:     key,
				HasEntry: false,
				Notes:    "",
			})
		}
	}

	return chartData, nil
}

// GetStreak returns the user's streak, zero-valued when none exists yet.
func (s *service) GetStreak(ctx context.Context, userID uuid.UUID) (*MoodStreak, error) {
	streak, err := s.repo.FindStreak(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrStreakNotFound) {
			return &MoodStreak{UserID: userID}, nil
		}
		return nil, err
	}
	return streak, nil
}

func (s *service) GetTodayEntry(ctx context.Context, userID uuid.UUID) (*MoodEntry, error) {
	today := clock.Midnight(s.clock.Now())
	return s.repo.FindEntryByDate(ctx, userID, today)
}

// UpdateTodayEntry updates today's entry in place. The entry date never
// changes.
func (s *service) UpdateTodayEntry(ctx context.Context, userID uuid.UUID, input UpdateMoodInput) (*MoodEntry, error) {
	entry, err := s.GetTodayEntry(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.MoodRating != nil {
		entry.MoodRating = *input.MoodRating
	}
	if input.EnergyLevel != nil {
		entry.EnergyLevel = input.EnergyLevel
	}
	if input.AnxietyLevel != nil {
		entry.AnxietyLevel = input.AnxietyLevel
	}
	if input.Notes != nil {
		entry.Notes = *input.Notes
	}

	if err := s.repo.UpdateEntry(ctx, entry); err != nil {
		return nil, err
	}

	s.invalidateCaches(ctx, userID, entry.ID)

	return entry, nil
}

func (s *service) ListInsights(ctx context.Context, userID uuid.UUID) ([]MoodInsight, error) {
	return s.repo.ListInsights(ctx, userID, 10)
}

func (s *service) CountUnreadInsights(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnreadInsights(ctx, userID)
}

func (s *service) MarkInsightRead(ctx context.Context, userID, insightID uuid.UUID) error {
	return s.repo.MarkInsightRead(ctx, userID, insightID)
}

// invalidateCaches drops chart/history caches and publishes a dashboard
// invalidation event. Cache failures are logged and swallowed.
func (s *service) invalidateCaches(ctx context.Context, userID, entryID uuid.UUID) {
	if s.redis == nil {
		return
	}

	if err := s.redis.InvalidateUserMoodCache(ctx, userID); err != nil {
		s.logger.Error("Failed to invalidate mood cache", zap.Error(err))
	}

	event := &events.DashboardEvent{
		EventType: events.DashboardEventCacheInvalidate,
		UserID:    userID,
		EntityID:  entryID,
		Timestamp: time.Now().UTC(),
		Details: map[string]interface{}{
			"action": "mood_logged",
		},
	}
	if err := s.redis.PublishDashboardEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish dashboard event", zap.Error(err))
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
