package events

import (
	"time"

	"github.com/google/uuid"
)

// DashboardEventChannel is the redis pubsub channel for dashboard events.
const DashboardEventChannel = "dashboard:events"

// Dashboard event types
const (
	DashboardEventCacheInvalidate = "cache_invalidate"
	DashboardEventMetricsUpdate   = "metrics_update"
)

// DashboardEvent is published whenever a write changes data the dashboard
// aggregates (mood logs, insights, quiz results), so per-user dashboard
// caches can be dropped.
type DashboardEvent struct {
	EventType string      `json:"event_type"`
	UserID    uuid.UUID   `json:"user_id"`
	EntityID  uuid.UUID   `json:"entity_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Details   interface{} `json:"details,omitempty"`
}
