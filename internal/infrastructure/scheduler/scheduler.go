package scheduler

import (
	"context"
	"time"

	"github.com/masab-afzaal/mindbuddy/internal/infrastructure/cache"
	"github.com/masab-afzaal/mindbuddy/pkg/logger"
	"go.uber.org/zap"
)

// Scheduler runs the midnight cache rollover. Chart and dashboard responses
// are computed relative to "today", so everything cached under those keys is
// wrong as soon as the day changes.
type Scheduler struct {
	cache  *cache.RedisClient
	logger *logger.Logger
	done   chan struct{}
}

func NewScheduler(cache *cache.RedisClient, logger *logger.Logger) *Scheduler {
	return &Scheduler{
		cache:  cache,
		logger: logger,
		done:   make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	now := time.Now().UTC()
	nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	timeUntilMidnight := nextMidnight.Sub(now)

	s.logger.Info("Cache rollover scheduler initialized",
		zap.Time("current_time", now),
		zap.Time("next_run", nextMidnight),
		zap.Duration("time_until_next_run", timeUntilMidnight),
	)

	go func() {
		timer := time.NewTimer(timeUntilMidnight)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-s.done:
			return
		}
		s.runMidnightRollover()

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.runMidnightRollover()
			case <-s.done:
				return
			}
		}
	}()
}

// Stop terminates the rollover goroutine.
func (s *Scheduler) Stop() {
	close(s.done)
}

func (s *Scheduler) runMidnightRollover() {
	ctx := context.Background()
	startTime := time.Now()

	s.logger.Info("Starting midnight cache rollover", zap.Time("start_time", startTime))

	for _, pattern := range []string{"mood_chart:*", "mood_history:*", "dashboard:*"} {
		if err := s.cache.ClearByPattern(ctx, pattern); err != nil {
			s.logger.Error("Failed to clear cache pattern",
				zap.String("pattern", pattern),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Completed midnight cache rollover",
		zap.Time("end_time", time.Now()),
		zap.Duration("duration", time.Since(startTime)),
	)
}
