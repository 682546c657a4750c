package mood

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/masab-afzaal/mindbuddy/internal/infrastructure/persistence/postgres/connection"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrEntryNotFound   = errors.New("mood entry not found")
	ErrEntryExists     = errors.New("mood entry already exists for this date")
	ErrStreakNotFound  = errors.New("streak not found")
	ErrInsightNotFound = errors.New("insight not found")
)

// Repository defines the interface for mood persistence operations
type Repository interface {
	// Entries
	CreateEntry(ctx context.Context, entry *MoodEntry) error
	FindEntryByID(ctx context.Context, id uuid.UUID) (*MoodEntry, error)
	FindEntryByDate(ctx context.Context, userID uuid.UUID, date time.Time) (*MoodEntry, error)
	FindEntriesInRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]MoodEntry, error)
	CountEntries(ctx context.Context, userID uuid.UUID) (int64, error)
	UpdateEntry(ctx context.Context, entry *MoodEntry) error

	// Streaks
	FindStreak(ctx context.Context, userID uuid.UUID) (*MoodStreak, error)
	GetOrCreateStreakForUpdate(ctx context.Context, userID uuid.UUID) (*MoodStreak, error)
	SaveStreak(ctx context.Context, streak *MoodStreak) error

	// Insights
	CreateInsight(ctx context.Context, insight *MoodInsight) error
	ListInsights(ctx context.Context, userID uuid.UUID, limit int) ([]MoodInsight, error)
	CountUnreadInsights(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkInsightRead(ctx context.Context, userID, insightID uuid.UUID) error

	// Transaction runs fn against a repository bound to a single database
	// transaction. Row locks taken inside fn are held until fn returns.
	Transaction(ctx context.Context, fn func(Repository) error) error
}

type repository struct {
	db *connection.Database
}

func NewRepository(db *connection.Database) Repository {
	return &repository{db: db}
}

func (r *repository) CreateEntry(ctx context.Context, entry *MoodEntry) error {
	err := r.db.WithContext(ctx).Create(entry).Error
	if err != nil && connection.IsUniqueViolation(err) {
		return ErrEntryExists
	}
	return err
}

func (r *repository) FindEntryByID(ctx context.Context, id uuid.UUID) (*MoodEntry, error) {
	var entry MoodEntry
	result := r.db.WithContext(ctx).First(&entry, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, result.Error
	}
	return &entry, nil
}

func (r *repository) FindEntryByDate(ctx context.Context, userID uuid.UUID, date time.Time) (*MoodEntry, error) {
	var entry MoodEntry
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date.Format("2006-01-02")).
		First(&entry)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, result.Error
	}
	return &entry, nil
}

func (r *repository) FindEntriesInRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]MoodEntry, error) {
	var entries []MoodEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date BETWEEN ? AND ?",
			userID, start.Format("2006-01-02"), end.Format("2006-01-02")).
		Order("date ASC").
		Find(&entries).Error
	return entries, err
}

func (r *repository) CountEntries(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&MoodEntry{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *repository) UpdateEntry(ctx context.Context, entry *MoodEntry) error {
	result := r.db.WithContext(ctx).Save(entry)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *repository) FindStreak(ctx context.Context, userID uuid.UUID) (*MoodStreak, error) {
	var streak MoodStreak
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&streak)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrStreakNotFound
		}
		return nil, result.Error
	}
	return &streak, nil
}

// GetOrCreateStreakForUpdate fetches the user's streak row under a FOR UPDATE
// lock, creating it with zero values when missing. Concurrent callers for the
// same user serialize here.
func (r *repository) GetOrCreateStreakForUpdate(ctx context.Context, userID uuid.UUID) (*MoodStreak, error) {
	var streak MoodStreak
	result := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&streak)
	if result.Error == nil {
		return &streak, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	streak = MoodStreak{UserID: userID}
	if err := r.db.WithContext(ctx).Create(&streak).Error; err != nil {
		// Another request created it between our read and write.
		if connection.IsUniqueViolation(err) {
			result = r.db.WithContext(ctx).
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("user_id = ?", userID).
				First(&streak)
			return &streak, result.Error
		}
		return nil, err
	}
	return &streak, nil
}

func (r *repository) SaveStreak(ctx context.Context, streak *MoodStreak) error {
	return r.db.WithContext(ctx).Save(streak).Error
}

func (r *repository) CreateInsight(ctx context.Context, insight *MoodInsight) error {
	return r.db.WithContext(ctx).Create(insight).Error
}

func (r *repository) ListInsights(ctx context.Context, userID uuid.UUID, limit int) ([]MoodInsight, error) {
	var insights []MoodInsight
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("generated_at DESC").
		Limit(limit).
		Find(&insights).Error
	return insights, err
}

func (r *repository) CountUnreadInsights(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&MoodInsight{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *repository) MarkInsightRead(ctx context.Context, userID, insightID uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&MoodInsight{}).
		Where("id = ? AND user_id = ?", insightID, userID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsightNotFound
	}
	return nil
}

func (r *repository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: &connection.Database{DB: tx}})
	})
}
