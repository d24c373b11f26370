package service

import (
	"sync"

	"github.com/torisu/jimaku/internal/domain"
)

type EventType string

const (
	EventProcessingUpdate   EventType = "processing-update"
	EventProcessingComplete EventType = "processing-complete"
	EventProcessingError    EventType = "processing-error"
)

// Event is one status update fanned out to connected observers.
type Event struct {
	Type        EventType        `json:"type"`
	AudioFileID string           `json:"audioFileId"`
	Stage       domain.JobStage  `json:"stage"`
	Progress    int              `json:"progress"`
	Status      domain.JobStatus `json:"status"`
	Error       string           `json:"error,omitempty"`
}

// Hub maintains the set of live observers and broadcasts events to all of
// them. Delivery is at-most-once and best-effort: an observer whose buffer
// is full is skipped, never retried, so one slow consumer cannot stall the
// pipeline.
type Hub struct {
	subscribers map[chan Event]struct{}
	mu          sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[chan Event]struct{}),
	}
}

func (h *Hub) Subscribe() chan Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 16)
	h.subscribers[ch] = struct{}{}
	return ch
}

func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscribers[ch]; ok {
		delete(h.subscribers, ch)
		close(ch)
	}
}

func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			// Drop event if subscriber is slow
		}
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
