package api

import (
	"thinkwise/internal/evaluation"
)

// SSEEventPublisher adapts the SSEHub to the evaluation.EventPublisher
// interface so batch runs can stream progress without knowing about HTTP.
type SSEEventPublisher struct {
	sseHub *SSEHub
}

// NewSSEEventPublisher creates a new SSE event publisher
func NewSSEEventPublisher(sseHub *SSEHub) *SSEEventPublisher {
	return &SSEEventPublisher{sseHub: sseHub}
}

// PublishBatchEvent forwards a batch progress event to connected clients
func (p *SSEEventPublisher) PublishBatchEvent(event evaluation.BatchEvent) {
	p.sseHub.Broadcast(event)
}
