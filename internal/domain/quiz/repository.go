package quiz

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/masab-afzaal/mindbuddy/internal/infrastructure/persistence/postgres/connection"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrQuizNotFound   = errors.New("quiz not found")
	ErrResultNotFound = errors.New("quiz result not found")
)

// Repository defines the interface for quiz persistence operations
type Repository interface {
	GetOrCreateTopic(ctx context.Context, name string) (*QuizTopic, error)
	CreateQuiz(ctx context.Context, quiz *Quiz) error
	FindQuiz(ctx context.Context, id uuid.UUID) (*Quiz, error)

	CreateResult(ctx context.Context, result *QuizResult) error
	FindResult(ctx context.Context, userID, id uuid.UUID) (*QuizResult, error)
	SaveResult(ctx context.Context, result *QuizResult) error
	CountResults(ctx context.Context, userID uuid.UUID) (int64, error)

	LatestHistory(ctx context.Context, userID, topicID uuid.UUID) (*QuizHistory, error)
	UpsertHistory(ctx context.Context, userID, topicID uuid.UUID, results datatypes.JSON) error
	ListHistory(ctx context.Context, userID uuid.UUID) ([]QuizHistory, error)
}

type repository struct {
	db *connection.Database
}

func NewRepository(db *connection.Database) Repository {
	return &repository{db: db}
}

func (r *repository) GetOrCreateTopic(ctx context.Context, name string) (*QuizTopic, error) {
	name = strings.TrimSpace(name)
	var topic QuizTopic
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		FirstOrCreate(&topic, QuizTopic{Name: name}).Error
	if err != nil {
		return nil, err
	}
	return &topic, nil
}

func (r *repository) CreateQuiz(ctx context.Context, quiz *Quiz) error {
	return r.db.WithContext(ctx).Create(quiz).Error
}

func (r *repository) FindQuiz(ctx context.Context, id uuid.UUID) (*Quiz, error) {
	var quiz Quiz
	result := r.db.WithContext(ctx).
		Preload("Topic").
		First(&quiz, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, result.Error
	}
	return &quiz, nil
}

func (r *repository) CreateResult(ctx context.Context, result *QuizResult) error {
	return r.db.WithContext(ctx).Create(result).Error
}

func (r *repository) FindResult(ctx context.Context, userID, id uuid.UUID) (*QuizResult, error) {
	var res QuizResult
	result := r.db.WithContext(ctx).
		Preload("Quiz").
		Preload("Quiz.Topic").
		Where("id = ? AND user_id = ?", id, userID).
		First(&res)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, result.Error
	}
	return &res, nil
}

func (r *repository) SaveResult(ctx context.Context, result *QuizResult) error {
	return r.db.WithContext(ctx).Save(result).Error
}

func (r *repository) CountResults(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&QuizResult{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *repository) LatestHistory(ctx context.Context, userID, topicID uuid.UUID) (*QuizHistory, error) {
	var history QuizHistory
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND topic_id = ?", userID, topicID).
		Order("taken_at DESC").
		First(&history)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &history, nil
}

// UpsertHistory replaces the stored results for (user, topic).
func (r *repository) UpsertHistory(ctx context.Context, userID, topicID uuid.UUID, results datatypes.JSON) error {
	var history QuizHistory
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND topic_id = ?", userID, topicID).
		First(&history).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		history = QuizHistory{
			ID:      uuid.New(),
			UserID:  userID,
			TopicID: topicID,
			Results: results,
		}
		return r.db.WithContext(ctx).Create(&history).Error
	}

	history.Results = results
	return r.db.WithContext(ctx).Save(&history).Error
}

func (r *repository) ListHistory(ctx context.Context, userID uuid.UUID) ([]QuizHistory, error) {
	var history []QuizHistory
	err := r.db.WithContext(ctx).
		Preload("Topic").
		Where("user_id = ?", userID).
		Order("taken_at DESC").
		Find(&history).Error
	return history, err
}
