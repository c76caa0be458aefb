package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sincl1t/m365-digital-twin/internal/metrics"
)

// Hub tracks connected live viewers and fans telemetry out to them.
// Delivery is best-effort and at-most-once: a viewer with a full buffer or a
// failed socket is skipped and never affects the others.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// NewHub builds an empty viewer registry.
func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// Register adds a connected viewer to the broadcast set.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.ViewersConnected.Set(float64(n))
}

// Unregister removes a viewer. Safe to call for an already removed client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	metrics.ViewersConnected.Set(float64(n))
}

// Count returns the number of connected viewers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast pushes one serialized envelope to every connected viewer.
// Iterates a snapshot so a disconnect during delivery cannot corrupt the set.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	snapshot := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()

	for _, c := range snapshot {
		if c.Send(payload) {
			metrics.BroadcastTotal.WithLabelValues("sent").Inc()
		} else {
			metrics.BroadcastTotal.WithLabelValues("dropped").Inc()
		}
	}
}

type envelope struct {
	Type string      `json:"type"`
	Ts   string      `json:"ts,omitempty"`
	Data interface{} `json:"data,omitempty"`
}

// HelloMessage is sent to a viewer right after connecting.
func HelloMessage(now time.Time) []byte {
	msg, _ := json.Marshal(envelope{Type: "hello", Ts: now.UTC().Format(time.RFC3339)})
	return msg
}

// TelemetryMessage wraps one record for broadcast.
func TelemetryMessage(record interface{}) ([]byte, error) {
	return json.Marshal(envelope{Type: "telemetry", Data: record})
}
