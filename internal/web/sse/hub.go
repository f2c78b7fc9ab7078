package sse

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/communityportal/internal/metrics"
	"github.com/mcoot/communityportal/internal/model"
)

// Hub fans events out to every open stream of one browser (one per tab)
type Hub struct {
	clientID model.ClientID
	streams  map[*Client]bool
	mu       sync.RWMutex
	logger   *slog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a new Hub for a client
func NewHub(clientID model.ClientID, logger *slog.Logger) *Hub {
	return &Hub{
		clientID:   clientID,
		streams:    make(map[*Client]bool),
		logger:     logger.With(slog.String("client_id", string(clientID))),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Debug("sse hub started")
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.streams[c] = true
			count := len(h.streams)
			h.mu.Unlock()
			metrics.SessionStreams.Inc()
			h.logger.Info("sse stream opened",
				slog.String("stream_id", c.id),
				slog.Int("open_streams", count))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.streams[c]; ok {
				delete(h.streams, c)
				close(c.send)
				count := len(h.streams)
				h.mu.Unlock()
				metrics.SessionStreams.Dec()
				h.logger.Info("sse stream closed",
					slog.String("stream_id", c.id),
					slog.Duration("connection_duration", time.Since(c.connectedAt)),
					slog.Int("open_streams", count))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.mu.RLock()
			dropped := 0
			for c := range h.streams {
				select {
				case c.send <- message:
				default:
					dropped++
				}
			}
			h.mu.RUnlock()
			if dropped > 0 {
				h.logger.Warn("sse message dropped, stream buffer full", slog.Int("dropped", dropped))
			}

		case <-h.done:
			h.mu.Lock()
			count := len(h.streams)
			for c := range h.streams {
				close(c.send)
				delete(h.streams, c)
			}
			h.mu.Unlock()
			metrics.SessionStreams.Sub(float64(count))
			h.logger.Debug("sse hub stopped", slog.Int("disconnected_streams", count))
			return
		}
	}
}

// Register adds a stream to the hub. It returns false if the hub is closed.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a stream from the hub
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast sends a message to every stream
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("sse broadcast dropped, hub buffer full")
	}
}

// BroadcastEvent sends a named SSE event
func (h *Hub) BroadcastEvent(eventName, data string) {
	h.Broadcast(formatSSEMessage(eventName, data))
}

// Close shuts down the hub and its streams
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// StreamCount returns the number of open streams
func (h *Hub) StreamCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.streams)
}

// formatSSEMessage formats an SSE event. Every line of data gets its own
// "data: " prefix.
func formatSSEMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(eventName)
	b.WriteByte('\n')
	for _, line := range splitLines(data) {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// splitLines splits on \n, drops \r and a trailing empty line, and always
// returns at least one line
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

// HubManager manages the hubs of all connected browsers
type HubManager struct {
	hubs   map[model.ClientID]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.ClientID]*Hub),
		logger: logger.With(slog.String("component", "sse")),
	}
}

// GetOrCreateHub returns the hub for a client, creating one if it doesn't exist
func (m *HubManager) GetOrCreateHub(clientID model.ClientID) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[clientID]; ok {
		return hub
	}

	hub := NewHub(clientID, m.logger)
	m.hubs[clientID] = hub
	go hub.Run()
	return hub
}

// GetHub returns the hub for a client, or nil if it doesn't exist
func (m *HubManager) GetHub(clientID model.ClientID) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[clientID]
}

// RemoveHub removes and closes a hub
func (m *HubManager) RemoveHub(clientID model.ClientID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[clientID]; ok {
		hub.Close()
		delete(m.hubs, clientID)
	}
}

// CleanupEmptyHubs removes hubs with no open streams and returns how many
// were removed
func (m *HubManager) CleanupEmptyHubs() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, hub := range m.hubs {
		if hub.StreamCount() == 0 {
			hub.Close()
			delete(m.hubs, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("sse empty hubs cleaned up", slog.Int("removed", removed))
	}
	return removed
}

// CloseAll shuts every hub down
func (m *HubManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, id)
	}
}
