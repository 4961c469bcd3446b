package system

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/peatiscoding/cadence-sub000/internal/common/models"

	"github.com/gofiber/contrib/websocket"
)

// ActivityHub fans recorded activity entries out to connected websocket
// clients. Publish never blocks; a client that cannot keep up is dropped.
type ActivityHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
	logger  *zap.Logger
}

func NewActivityHub(logger *zap.Logger) *ActivityHub {
	return &ActivityHub{
		clients: make(map[*websocket.Conn]chan []byte),
		logger:  logger,
	}
}

// Publish implements the stats feature's Publisher port.
func (h *ActivityHub) Publish(entry models.ActivityLog) {
	payload, err := json.Marshal(entry)
	if err != nil {
		h.logger.Warn("activity broadcast marshal failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- payload:
		default:
			// slow consumer
			delete(h.clients, conn)
			close(ch)
		}
	}
}

// HandleConnection serves one websocket client until it disconnects.
func (h *ActivityHub) HandleConnection(c *websocket.Conn) {
	ch := make(chan []byte, 64)
	h.mu.Lock()
	h.clients[c] = ch
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[c]; ok {
			delete(h.clients, c)
			close(ch)
		}
		h.mu.Unlock()
		c.Close()
	}()

	for {
		select {
		case payload, ok := <-ch:
			if !ok {
				return
			}
			if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
