package api

import (
	"encoding/json"
	"io"
	"log"
	"sync"
	"time"

	"thinkwise/internal/evaluation"

	"github.com/gin-gonic/gin"
)

// SSEClient represents a connected SSE client
type SSEClient struct {
	BatchID string
	Channel chan evaluation.BatchEvent
}

// SSEHub manages Server-Sent Events for real-time batch progress updates
type SSEHub struct {
	clients    map[string]map[chan evaluation.BatchEvent]bool
	clientsMu  sync.RWMutex
	register   chan SSEClient
	unregister chan SSEClient
	broadcast  chan evaluation.BatchEvent
}

// NewSSEHub creates a new SSE hub
func NewSSEHub() *SSEHub {
	hub := &SSEHub{
		clients:    make(map[string]map[chan evaluation.BatchEvent]bool),
		register:   make(chan SSEClient, 10),
		unregister: make(chan SSEClient, 10),
		broadcast:  make(chan evaluation.BatchEvent, 100),
	}

	go hub.run()
	return hub
}

// run processes SSE hub operations
func (h *SSEHub) run() {
	for {
		select {
		case client := <-h.register:
			h.clientsMu.Lock()
			if h.clients[client.BatchID] == nil {
				h.clients[client.BatchID] = make(map[chan evaluation.BatchEvent]bool)
			}
			h.clients[client.BatchID][client.Channel] = true
			log.Printf("[SSE] Client registered for batch %s (total clients: %d)",
				client.BatchID, len(h.clients[client.BatchID]))
			h.clientsMu.Unlock()

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if clients, exists := h.clients[client.BatchID]; exists {
				delete(clients, client.Channel)
				close(client.Channel)
				log.Printf("[SSE] Client unregistered from batch %s (remaining clients: %d)",
					client.BatchID, len(clients))
				if len(clients) == 0 {
					delete(h.clients, client.BatchID)
				}
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			if clients, exists := h.clients[event.BatchID]; exists {
				for clientChan := range clients {
					select {
					case clientChan <- event:
						// Event sent successfully
					default:
						// Client channel is full, skip
						log.Printf("[SSE] Client channel full for batch %s, skipping event",
							event.BatchID)
					}
				}
			}
			h.clientsMu.RUnlock()
		}
	}
}

// Broadcast sends an event to all clients listening to a batch
func (h *SSEHub) Broadcast(event evaluation.BatchEvent) {
	select {
	case h.broadcast <- event:
	default:
		log.Printf("[SSE] Broadcast channel full, dropping event: %s", event.EventType)
	}
}

// HandleSSE handles the Server-Sent Events endpoint for batch progress
func (h *SSEHub) HandleSSE(c *gin.Context) {
	batchID := c.Param("batch")
	if batchID == "" {
		batchID = c.Query("batch_id")
	}
	if batchID == "" {
		c.JSON(400, gin.H{"error": "batch identifier required"})
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Headers", "Cache-Control")

	// Create client channel
	clientChan := make(chan evaluation.BatchEvent, 10)

	// Register client
	select {
	case h.register <- SSEClient{BatchID: batchID, Channel: clientChan}:
	default:
		c.JSON(500, gin.H{"error": "SSE hub registration failed"})
		return
	}

	defer func() {
		select {
		case h.unregister <- SSEClient{BatchID: batchID, Channel: clientChan}:
		default:
			// Hub might be overloaded, just close channel
		}
	}()

	// Keep connection alive and stream events
	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-clientChan:
			if !ok {
				return false
			}
			eventJSON, err := json.Marshal(event)
			if err != nil {
				log.Printf("[SSE] Failed to marshal event: %v", err)
				return true
			}

			c.SSEvent("progress", string(eventJSON))
			// A finished batch will emit nothing further
			return event.EventType != evaluation.EventBatchCompleted

		case <-time.After(30 * time.Second):
			// Send ping to keep connection alive
			c.SSEvent("ping", `{"status": "alive", "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			// Client disconnected
			return false
		}
	})
}

// GetActiveBatches returns batches with active SSE clients
func (h *SSEHub) GetActiveBatches() []string {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	batches := make([]string, 0, len(h.clients))
	for batchID := range h.clients {
		batches = append(batches, batchID)
	}
	return batches
}

// GetClientCount returns the number of active clients for a batch
func (h *SSEHub) GetClientCount(batchID string) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	if clients, exists := h.clients[batchID]; exists {
		return len(clients)
	}
	return 0
}
