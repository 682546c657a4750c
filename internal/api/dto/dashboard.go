package dto

// DashboardResponse aggregates per-user metrics for the dashboard view
type DashboardResponse struct {
	Streak         StreakResponse  `json:"streak"`
	MoodStatistics *MoodStatistics `json:"mood_statistics,omitempty"`
	UnreadInsights int64           `json:"unread_insights"`
	Conversations  int64           `json:"conversations"`
	QuizzesTaken   int64           `json:"quizzes_taken"`
}
