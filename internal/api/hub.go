package api

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
)

const clientBuffer = 64

// Hub fans mesh events out to the connected stream clients
type Hub struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	clients map[chan []byte]struct{}
}

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:  logger.Named("hub"),
		clients: make(map[chan []byte]struct{}),
	}
}

// Subscribe registers a client. The returned function removes it.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, clientBuffer)

	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients, ch)
			h.mu.Unlock()
		})
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to every client. A client whose buffer is full
// misses the event.
func (h *Hub) Broadcast(ev model.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("Failed to marshal event", zap.String("event_id", ev.ID), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- data:
		default:
			h.logger.Warn("Dropping event for slow client", zap.String("event_id", ev.ID))
		}
	}
}
