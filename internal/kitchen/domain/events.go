package domain

import (
	"context"
	"sync"
	"time"
)

// Event types published on the kitchen event stream.
const (
	EventOrderCreated          = "order.created"
	EventOrderStatusChanged    = "order.status_changed"
	EventPlanningCompleted     = "planning.completed"
	EventRawBatchQCCompleted   = "raw_batch.qc_completed"
	EventCookedBatchQCComplete = "cooked_batch.qc_completed"
	EventRiskPoolTransferred   = "risk_pool.transferred"
	EventDisputeFiled          = "dispute.filed"
	EventDisputeResolved       = "dispute.resolved"
	EventCreditUsed            = "credit.used"
)

// Event is a fact recorded after a committed use case.
type Event struct {
	ID         string      `json:"event_id"`
	Type       string      `json:"event_type"`
	Key        string      `json:"key"`
	OccurredAt time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// NewEvent stamps a new event of eventType keyed by key.
func NewEvent(eventType, key string, at time.Time, payload interface{}) Event {
	return Event{ID: NewID(), Type: eventType, Key: key, OccurredAt: at, Payload: payload}
}

// EventPublisher delivers events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...Event) error { return nil }

// RecordingPublisher keeps published events in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []Event
}

func (p *RecordingPublisher) Publish(_ context.Context, events ...Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, events...)
	return nil
}

// Types returns the types of the recorded events in publish order.
func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.Events))
	for i, e := range p.Events {
		out[i] = e.Type
	}
	return out
}
