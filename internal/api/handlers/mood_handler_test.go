package handlers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masab-afzaal/mindbuddy/internal/domain/mood"
)

func ratingPtr(v int) *int {
	return &v
}

func emptyDay(date string) mood.ChartRecord {
	return mood.ChartRecord{Date: date, HasEntry: false}
}

func loggedDay(date string, rating int) mood.ChartRecord {
	return mood.ChartRecord{
		Date:       date,
		HasEntry:   true,
		MoodRating: ratingPtr(rating),
	}
}

func TestBuildHistoryResponseStatistics(t *testing.T) {
	records := []mood.ChartRecord{
		loggedDay("2024-01-01", 4),
		emptyDay("2024-01-02"),
		loggedDay("2024-01-03", 2),
	}

	response := buildHistoryResponse(3, records)

	assert.Equal(t, 3, response.Days)
	require.Len(t, response.Records, 3)
	assert.Equal(t, "2024-01-01", response.Records[0].Date)
	assert.True(t, response.Records[0].HasEntry)
	assert.False(t, response.Records[1].HasEntry)
	assert.Nil(t, response.Records[1].MoodRating)

	require.NotNil(t, response.Statistics)
	assert.Equal(t, 3.0, response.Statistics.AverageMood)
	assert.Equal(t, 4, response.Statistics.BestMood)
	assert.Equal(t, 2, response.Statistics.WorstMood)
	assert.Equal(t, 2, response.Statistics.TotalEntries)
	assert.Equal(t, 66.7, response.Statistics.TrackingPercentage)
}

func TestBuildHistoryResponseRounding(t *testing.T) {
	records := []mood.ChartRecord{
		loggedDay("2024-01-01", 4),
		emptyDay("2024-01-02"),
		emptyDay("2024-01-03"),
	}

	response := buildHistoryResponse(3, records)

	require.NotNil(t, response.Statistics)
	assert.Equal(t, 4.0, response.Statistics.AverageMood)
	assert.Equal(t, 33.3, response.Statistics.TrackingPercentage)
}

func TestBuildHistoryResponseEmptyWindow(t *testing.T) {
	records := []mood.ChartRecord{
		emptyDay("2024-01-01"),
		emptyDay("2024-01-02"),
		emptyDay("2024-01-03"),
	}

	response := buildHistoryResponse(3, records)
	assert.Nil(t, response.Statistics)

	body, err := json.Marshal(response)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "statistics")
	assert.NotContains(t, string(body), "best_mood")
}
