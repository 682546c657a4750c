package mood

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/masab-afzaal/mindbuddy/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockRepository is an in-memory Repository for service tests.
type mockRepository struct {
	entries  []MoodEntry
	streaks  map[uuid.UUID]*MoodStreak
	insights []MoodInsight
}

func newMockRepository() *mockRepository {
	return &mockRepository{streaks: make(map[uuid.UUID]*MoodStreak)}
}

func (m *mockRepository) CreateEntry(ctx context.Context, entry *MoodEntry) error {
	for _, e := range m.entries {
		if e.UserID == entry.UserID && e.Date.Equal(entry.Date) {
			return ErrEntryExists
		}
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockRepository) FindEntryByID(ctx context.Context, id uuid.UUID) (*MoodEntry, error) {
	for i := range m.entries {
		if m.entries[i].ID == id {
			return &m.entries[i], nil
		}
	}
	return nil, ErrEntryNotFound
}

func (m *mockRepository) FindEntryByDate(ctx context.Context, userID uuid.UUID, date time.Time) (*MoodEntry, error) {
	for i := range m.entries {
		if m.entries[i].UserID == userID && m.entries[i].Date.Equal(date) {
			return &m.entries[i], nil
		}
	}
	return nil, ErrEntryNotFound
}

func (m *mockRepository) FindEntriesInRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]MoodEntry, error) {
	var out []MoodEntry
	for _, e := range m.entries {
		if e.UserID == userID && !e.Date.Before(start) && !e.Date.After(end) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *mockRepository) CountEntries(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for _, e := range m.entries {
		if e.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *mockRepository) UpdateEntry(ctx context.Context, entry *MoodEntry) error {
	for i := range m.entries {
		if m.entries[i].ID == entry.ID {
			m.entries[i] = *entry
			return nil
		}
	}
	return ErrEntryNotFound
}

func (m *mockRepository) FindStreak(ctx context.Context, userID uuid.UUID) (*MoodStreak, error) {
	if s, ok := m.streaks[userID]; ok {
		return s, nil
	}
	return nil, ErrStreakNotFound
}

func (m *mockRepository) GetOrCreateStreakForUpdate(ctx context.Context, userID uuid.UUID) (*MoodStreak, error) {
	if s, ok := m.streaks[userID]; ok {
		return s, nil
	}
	s := &MoodStreak{ID: uuid.New(), UserID: userID}
	m.streaks[userID] = s
	return s, nil
}

func (m *mockRepository) SaveStreak(ctx context.Context, streak *MoodStreak) error {
	m.streaks[streak.UserID] = streak
	return nil
}

func (m *mockRepository) CreateInsight(ctx context.Context, insight *MoodInsight) error {
	m.insights = append(m.insights, *insight)
	return nil
}

func (m *mockRepository) ListInsights(ctx context.Context, userID uuid.UUID, limit int) ([]MoodInsight, error) {
	var out []MoodInsight
	for _, i := range m.insights {
		if i.UserID == userID {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockRepository) CountUnreadInsights(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for _, i := range m.insights {
		if i.UserID == userID && !i.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *mockRepository) MarkInsightRead(ctx context.Context, userID, insightID uuid.UUID) error {
	for i := range m.insights {
		if m.insights[i].ID == insightID && m.insights[i].UserID == userID {
			m.insights[i].IsRead = true
			return nil
		}
	}
	return ErrInsightNotFound
}

func (m *mockRepository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return fn(m)
}

var testToday = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func newTestService(repo Repository) Service {
	return NewService(repo, nil, clock.Fixed(testToday), zap.NewNop())
}

func (m *mockRepository) seedEntry(userID uuid.UUID, date time.Time, rating int) {
	m.entries = append(m.entries, MoodEntry{
		ID:         uuid.New(),
		UserID:     userID,
		Date:       clock.Midnight(date),
		MoodRating: rating,
	})
}

func datePtr(t time.Time) *time.Time {
	d := clock.Midnight(t)
	return &d
}

func TestUpdateStreak(t *testing.T) {
	today := clock.Midnight(testToday)
	yesterday := today.AddDate(0, 0, -1)

	tests := []struct {
		name            string
		existing        *MoodStreak
		entryDate       time.Time
		expectedCurrent int
		expectedLongest int
		expectedCheckIn *time.Time
	}{
		{
			name:            "First entry starts streak at 1",
			existing:        nil,
			entryDate:       today,
			expectedCurrent: 1,
			expectedLongest: 1,
			expectedCheckIn: &today,
		},
		{
			name: "Today after yesterday continues streak",
			existing: &MoodStreak{
				CurrentStreak: 3,
				LongestStreak: 5,
				LastCheckIn:   datePtr(yesterday),
			},
			entryDate:       today,
			expectedCurrent: 4,
			expectedLongest: 5,
			expectedCheckIn: &today,
		},
		{
			name: "Today after gap resets streak to 1",
			existing: &MoodStreak{
				CurrentStreak: 9,
				LongestStreak: 9,
				LastCheckIn:   datePtr(today.AddDate(0, 0, -4)),
			},
			entryDate:       today,
			expectedCurrent: 1,
			expectedLongest: 9,
			expectedCheckIn: &today,
		},
		{
			name: "Same day update leaves streak unchanged",
			existing: &MoodStreak{
				CurrentStreak: 4,
				LongestStreak: 6,
				LastCheckIn:   datePtr(today),
			},
			entryDate:       today,
			expectedCurrent: 4,
			expectedLongest: 6,
			expectedCheckIn: &today,
		},
		{
			name: "Yesterday backfill extends streak anchored to day before",
			existing: &MoodStreak{
				CurrentStreak: 2,
				LongestStreak: 4,
				LastCheckIn:   datePtr(today.AddDate(0, 0, -2)),
			},
			entryDate:       yesterday,
			expectedCurrent: 3,
			expectedLongest: 4,
			expectedCheckIn: &yesterday,
		},
		{
			name:            "Yesterday backfill with no prior streak starts at 1",
			existing:        nil,
			entryDate:       yesterday,
			expectedCurrent: 1,
			expectedLongest: 1,
			expectedCheckIn: &yesterday,
		},
		{
			name: "Yesterday backfill after today's log restarts at 1",
			existing: &MoodStreak{
				CurrentStreak: 1,
				LongestStreak: 1,
				LastCheckIn:   datePtr(today),
			},
			entryDate:       yesterday,
			expectedCurrent: 1,
			expectedLongest: 1,
			expectedCheckIn: &yesterday,
		},
		{
			name: "Yesterday backfill skipped when already anchored to yesterday",
			existing: &MoodStreak{
				CurrentStreak: 5,
				LongestStreak: 5,
				LastCheckIn:   datePtr(yesterday),
			},
			entryDate:       yesterday,
			expectedCurrent: 5,
			expectedLongest: 5,
			expectedCheckIn: &yesterday,
		},
		{
			name: "Older backfill leaves streak fields untouched",
			existing: &MoodStreak{
				CurrentStreak: 2,
				LongestStreak: 8,
				LastCheckIn:   datePtr(yesterday),
			},
			entryDate:       today.AddDate(0, 0, -5),
			expectedCurrent: 2,
			expectedLongest: 8,
			expectedCheckIn: &yesterday,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			userID := uuid.New()
			if tt.existing != nil {
				tt.existing.ID = uuid.New()
				tt.existing.UserID = userID
				repo.streaks[userID] = tt.existing
			}
			repo.seedEntry(userID, tt.entryDate, 3)

			svc := newTestService(repo)
			streak, err := svc.UpdateStreak(context.Background(), userID, tt.entryDate)

			require.NoError(t, err)
			assert.Equal(t, tt.expectedCurrent, streak.CurrentStreak)
			assert.Equal(t, tt.expectedLongest, streak.LongestStreak)
			require.NotNil(t, streak.LastCheckIn)
			assert.True(t, clock.SameDay(*streak.LastCheckIn, *tt.expectedCheckIn))
			assert.GreaterOrEqual(t, streak.LongestStreak, streak.CurrentStreak)
			assert.Equal(t, 1, streak.TotalEntries)
		})
	}
}

func TestUpdateStreakRecountsTotalEntries(t *testing.T) {
	repo := newMockRepository()
	userID := uuid.New()
	today := clock.Midnight(testToday)

	for i := 0; i < 5; i++ {
		repo.seedEntry(userID, today.AddDate(0, 0, -i), 3)
	}

	svc := newTestService(repo)
	streak, err := svc.UpdateStreak(context.Background(), userID, today)

	require.NoError(t, err)
	assert.Equal(t, 5, streak.TotalEntries)
}

func TestUpdateStreakMilestones(t *testing.T) {
	today := clock.Midnight(testToday)
	yesterday := today.AddDate(0, 0, -1)

	tests := []struct {
		name          string
		current       int
		longest       int
		wantMilestone bool
		wantLength    int
	}{
		{name: "Reaching 7 as a new personal best emits milestone", current: 6, longest: 6, wantMilestone: true, wantLength: 7},
		{name: "Reaching 30 as a new personal best emits milestone", current: 29, longest: 29, wantMilestone: true, wantLength: 30},
		{name: "Reaching 7 below personal best emits nothing", current: 6, longest: 12, wantMilestone: false},
		{name: "Non-threshold personal best emits nothing", current: 8, longest: 8, wantMilestone: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			userID := uuid.New()
			repo.streaks[userID] = &MoodStreak{
				ID:            uuid.New(),
				UserID:        userID,
				CurrentStreak: tt.current,
				LongestStreak: tt.longest,
				LastCheckIn:   datePtr(yesterday),
			}
			repo.seedEntry(userID, today, 4)

			svc := newTestService(repo)
			streak, err := svc.UpdateStreak(context.Background(), userID, today)
			require.NoError(t, err)
			assert.Equal(t, tt.current+1, streak.CurrentStreak)

			if !tt.wantMilestone {
				assert.Empty(t, repo.insights)
				return
			}

			require.Len(t, repo.insights, 1)
			insight := repo.insights[0]
			assert.Equal(t, InsightMilestone, insight.InsightType)
			assert.Equal(t, fmt.Sprintf("%d Day Streak!", tt.wantLength), insight.Title)
			assert.Contains(t, insight.Description, fmt.Sprintf("%d-day", tt.wantLength))

			var data map[string]int
			require.NoError(t, json.Unmarshal(insight.Data, &data))
			assert.Equal(t, tt.wantLength, data["streak_length"])
		})
	}
}

func TestGenerateWeeklyInsight(t *testing.T) {
	repo := newMockRepository()
	userID := uuid.New()
	today := clock.Midnight(testToday)

	energy := 4
	repo.entries = append(repo.entries,
		MoodEntry{ID: uuid.New(), UserID: userID, Date: today, MoodRating: 4, EnergyLevel: &energy},
		MoodEntry{ID: uuid.New(), UserID: userID, Date: today.AddDate(0, 0, -2), MoodRating: 3},
		MoodEntry{ID: uuid.New(), UserID: userID, Date: today.AddDate(0, 0, -6), MoodRating: 5},
	)
	// Outside the 7-day window, must be ignored.
	repo.seedEntry(userID, today.AddDate(0, 0, -10), 1)

	svc := newTestService(repo)
	require.NoError(t, svc.GenerateWeeklyInsight(context.Background(), userID))

	require.Len(t, repo.insights, 1)
	insight := repo.insights[0]
	assert.Equal(t, InsightWeeklyAverage, insight.InsightType)
	assert.Equal(t, "Weekly Mood Summary", insight.Title)
	assert.Contains(t, insight.Description, "4.0/5")

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(insight.Data, &data))
	assert.Equal(t, 4.0, data["avg_mood"])
	assert.Equal(t, 4.0, data["avg_energy"])
	assert.Equal(t, 0.0, data["avg_anxiety"])
	assert.Equal(t, 3.0, data["entries_count"])
}

func TestGenerateWeeklyInsightNoEntries(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	require.NoError(t, svc.GenerateWeeklyInsight(context.Background(), uuid.New()))
	assert.Empty(t, repo.insights)
}

func TestGetChartData(t *testing.T) {
	repo := newMockRepository()
	userID := uuid.New()

	// Window ends 2024-01-15 (fixed clock); entries two days apart.
	repo.seedEntry(userID, time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC), 4)
	repo.seedEntry(userID, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 2)

	svc := newTestService(repo)
	records, err := svc.GetChartData(context.Background(), userID, 3)

	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "2024-01-13", records[0].Date)
	assert.True(t, records[0].HasEntry)
	require.NotNil(t, records[0].MoodRating)
	assert.Equal(t, 4, *records[0].MoodRating)
	require.NotNil(t, records[0].EnergyLevel)
	assert.Equal(t, 0, *records[0].EnergyLevel)

	assert.Equal(t, "2024-01-14", records[1].Date)
	assert.False(t, records[1].HasEntry)
	assert.Nil(t, records[1].MoodRating)
	assert.Equal(t, "", records[1].Notes)

	assert.Equal(t, "2024-01-15", records[2].Date)
	assert.True(t, records[2].HasEntry)
	require.NotNil(t, records[2].MoodRating)
	assert.Equal(t, 2, *records[2].MoodRating)
}

func TestGetChartDataWindowLength(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	records, err := svc.GetChartData(context.Background(), uuid.New(), 30)
	require.NoError(t, err)
	require.Len(t, records, 30)

	assert.Equal(t, clock.Midnight(testToday).AddDate(0, 0, -29).Format("2006-01-02"), records[0].Date)
	assert.Equal(t, clock.Midnight(testToday).Format("2006-01-02"), records[29].Date)
	for _, r := range records {
		assert.False(t, r.HasEntry)
	}
}

func TestLogMood(t *testing.T) {
	repo := newMockRepository()
	userID := uuid.New()
	svc := newTestService(repo)

	entry, streak, err := svc.LogMood(context.Background(), LogMoodInput{
		UserID:     userID,
		Date:       testToday,
		MoodRating: 4,
		Notes:      "good day",
	})

	require.NoError(t, err)
	assert.Equal(t, 4, entry.MoodRating)
	assert.True(t, clock.SameDay(entry.Date, testToday))
	assert.Equal(t, 1, streak.CurrentStreak)
	assert.Equal(t, 1, streak.TotalEntries)
}

func TestLogMoodDuplicateReturnsExisting(t *testing.T) {
	repo := newMockRepository()
	userID := uuid.New()
	svc := newTestService(repo)

	first, _, err := svc.LogMood(context.Background(), LogMoodInput{
		UserID: userID, Date: testToday, MoodRating: 4,
	})
	require.NoError(t, err)

	dup, _, err := svc.LogMood(context.Background(), LogMoodInput{
		UserID: userID, Date: testToday, MoodRating: 2,
	})

	require.ErrorIs(t, err, ErrEntryExists)
	require.NotNil(t, dup)
	assert.Equal(t, first.ID, dup.ID)
	assert.Equal(t, 4, dup.MoodRating)
}

func TestLogMoodWeeklyInsightTrigger(t *testing.T) {
	repo := newMockRepository()
	userID := uuid.New()
	today := clock.Midnight(testToday)

	// Six prior entries; the 7th log should trigger a weekly summary.
	for i := 1; i <= 6; i++ {
		repo.seedEntry(userID, today.AddDate(0, 0, -i), 3)
	}
	repo.streaks[userID] = &MoodStreak{
		ID: uuid.New(), UserID: userID,
		CurrentStreak: 6, LongestStreak: 6,
		LastCheckIn: datePtr(today.AddDate(0, 0, -1)),
	}

	svc := newTestService(repo)
	_, streak, err := svc.LogMood(context.Background(), LogMoodInput{
		UserID: userID, Date: today, MoodRating: 5,
	})

	require.NoError(t, err)
	assert.Equal(t, 7, streak.TotalEntries)

	var weekly, milestone int
	for _, i := range repo.insights {
		switch i.InsightType {
		case InsightWeeklyAverage:
			weekly++
		case InsightMilestone:
			milestone++
		}
	}
	assert.Equal(t, 1, weekly)
	assert.Equal(t, 1, milestone, "7th consecutive day is also a streak milestone")
}

func TestStreakSequenceKeepsInvariant(t *testing.T) {
	repo := newMockRepository()
	userID := uuid.New()
	today := clock.Midnight(testToday)
	svc := newTestService(repo)

	dates := []time.Time{
		today.AddDate(0, 0, -1),
		today,
		today.AddDate(0, 0, -5),
		today,
	}

	for _, d := range dates {
		repo.seedEntry(userID, d, 3)
		streak, err := svc.UpdateStreak(context.Background(), userID, d)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, streak.LongestStreak, streak.CurrentStreak)
		assert.GreaterOrEqual(t, streak.CurrentStreak, 0)
	}
}

func TestGetStreakMissingReturnsZeroValues(t *testing.T) {
	repo := newMockRepository()
	userID := uuid.New()
	svc := newTestService(repo)

	streak, err := svc.GetStreak(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, userID, streak.UserID)
	assert.Equal(t, 0, streak.CurrentStreak)
	assert.Equal(t, 0, streak.LongestStreak)
	assert.Nil(t, streak.LastCheckIn)
}

func TestUpdateTodayEntry(t *testing.T) {
	repo := newMockRepository()
	userID := uuid.New()
	today := clock.Midnight(testToday)
	repo.seedEntry(userID, today, 2)
	originalDate := today

	svc := newTestService(repo)
	rating := 5
	notes := "felt better in the evening"
	entry, err := svc.UpdateTodayEntry(context.Background(), userID, UpdateMoodInput{
		MoodRating: &rating,
		Notes:      &notes,
	})

	require.NoError(t, err)
	assert.Equal(t, 5, entry.MoodRating)
	assert.Equal(t, notes, entry.Notes)
	assert.True(t, entry.Date.Equal(originalDate), "date must never change")
}

func TestMarkInsightRead(t *testing.T) {
	repo := newMockRepository()
	userID := uuid.New()
	insight := MoodInsight{ID: uuid.New(), UserID: userID, InsightType: InsightMilestone}
	repo.insights = append(repo.insights, insight)

	svc := newTestService(repo)
	require.NoError(t, svc.MarkInsightRead(context.Background(), userID, insight.ID))
	assert.True(t, repo.insights[0].IsRead)

	err := svc.MarkInsightRead(context.Background(), userID, uuid.New())
	assert.ErrorIs(t, err, ErrInsightNotFound)
}
