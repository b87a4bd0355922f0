package kafka

import "time"

// PlanningTriggerEvent asks the planner to run for a delivery date given
// as YYYY-MM-DD. An empty TargetDate plans for tomorrow.
type PlanningTriggerEvent struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	TargetDate string    `json:"target_date,omitempty"`
	Source     string    `json:"source,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypePlanningRequested = "planning.requested"
)

// Kafka topics
const (
	TopicKitchenEvents   = "kitchen.events"
	TopicPlanningTrigger = "kitchen.planning-trigger"
)

// Message headers
const (
	HeaderEventType = "event_type"
	HeaderEventID   = "event_id"
)
