package websocket

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"signal-backend/internal/domain"
)

const sendBuffer = 16

// Event is the envelope written to subscribers.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type client struct {
	accountID uuid.UUID
	send      chan []byte
}

// Hub fans new signals out to the connected sessions of each account.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	log     zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		log:     log.With().Str("component", "ws_hub").Logger(),
	}
}

func (h *Hub) subscribe(accountID uuid.UUID) *client {
	c := &client{accountID: accountID, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *Hub) unsubscribe(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Subscribers returns the number of open sessions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish sends sig to the channel owner and to the account that submitted it.
// Slow sessions with a full buffer miss the event.
func (h *Hub) Publish(ch *domain.Channel, sig *domain.Signal) {
	targets := make(map[uuid.UUID]bool, 2)
	if ch != nil && ch.AccountID != nil {
		targets[*ch.AccountID] = true
	}
	if id, err := uuid.Parse(sig.UserID); err == nil {
		targets[id] = true
	}
	if len(targets) == 0 {
		return
	}

	payload, err := json.Marshal(Event{Type: "signal", Data: sig})
	if err != nil {
		h.log.Error().Err(err).Msg("failed to encode signal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !targets[c.accountID] {
			continue
		}
		select {
		case c.send <- payload:
		default:
			h.log.Warn().Str("account_id", c.accountID.String()).Msg("subscriber buffer full, dropping event")
		}
	}
}
