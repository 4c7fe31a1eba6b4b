// Package opsfeed broadcasts signal and worker-health events to internal
// dashboard subscribers over WebSocket. The Telegram bot and any other
// downstream consumer (Non-goals) are just one more subscriber of this
// same stream, not a special case.
package opsfeed

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

var jsonBufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

// SignalMessage reports a newly-built signal to subscribers.
type SignalMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// HealthMessage reports a worker/venue health transition.
type HealthMessage struct {
	Type string      `json:"type"`
	Data HealthEvent `json:"data"`
}

// HealthEvent is one worker's current health, broadcast on every tick.
type HealthEvent struct {
	VenueID           string `json:"venue_id"`
	Healthy           bool   `json:"healthy"`
	LastSuccessUnix   int64  `json:"last_success_unix"`
	ConsecutiveErrors int    `json:"consecutive_errors"`
}

// Hub fans out broadcast messages to every registered client, dropping
// slow clients rather than blocking the broadcaster, mirroring the
// register/unregister/broadcast channel pattern used for the dashboard
// feed throughout this codebase's predecessor.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	log zerolog.Logger
	mu  sync.RWMutex
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug().Int("clients", n).Msg("opsfeed: client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug().Int("clients", n).Msg("opsfeed: client disconnected")

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for c := range h.clients {
				clients = append(clients, c)
			}
			h.mu.RUnlock()

			var slow []*Client
			for _, c := range clients {
				select {
				case c.send <- message:
				default:
					slow = append(slow, c)
				}
			}

			if len(slow) > 0 {
				h.mu.Lock()
				for _, c := range slow {
					if _, ok := h.clients[c]; ok {
						delete(h.clients, c)
						close(c.send)
					}
				}
				h.mu.Unlock()
				h.log.Warn().Int("dropped", len(slow)).Msg("opsfeed: dropped slow clients")
			}
		}
	}
}

func (h *Hub) broadcastJSON(v interface{}) {
	buf := jsonBufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		h.log.Warn().Err(err).Msg("opsfeed: failed to marshal broadcast message")
		jsonBufferPool.Put(buf)
		return
	}
	data := buf.Bytes()
	if len(data) > 0 && data[len(data)-1] == '\n' {
		data = data[:len(data)-1]
	}
	msgCopy := make([]byte, len(data))
	copy(msgCopy, data)
	jsonBufferPool.Put(buf)

	h.broadcast <- msgCopy
}

// BroadcastSignal pushes a new signal event to every connected client.
func (h *Hub) BroadcastSignal(sig interface{}) {
	h.broadcastJSON(&SignalMessage{Type: "signal", Data: sig})
}

// BroadcastHealth pushes a worker health transition to every connected client.
func (h *Hub) BroadcastHealth(ev HealthEvent) {
	h.broadcastJSON(&HealthMessage{Type: "health", Data: ev})
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
