package evaluation

import "time"

// Batch progress event types.
const (
	EventBatchStarted   = "batch_started"
	EventIdeaStarted    = "idea_started"
	EventIdeaCompleted  = "idea_completed"
	EventIdeaFailed     = "idea_failed"
	EventIdeaSkipped    = "idea_skipped"
	EventBatchCompleted = "batch_completed"
)

// BatchEvent describes one observable moment of a batch run.
type BatchEvent struct {
	BatchID   string    `json:"batch_id"`
	EventType string    `json:"event_type"`
	IdeaID    string    `json:"idea_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Completed int       `json:"completed"`
	Total     int       `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

// EventPublisher receives batch progress events. Publishing must never
// block the evaluation loop.
type EventPublisher interface {
	PublishBatchEvent(event BatchEvent)
}

// NopPublisher discards all events; used by the CLI and tests.
type NopPublisher struct{}

// PublishBatchEvent implements EventPublisher.
func (NopPublisher) PublishBatchEvent(BatchEvent) {}
