// Package realtime pushes session notices to open pages over server-sent
// events.
package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/patternlab/internal/platform/logger"
)

type Event string

const (
	EventSessionExpired Event = "session.expired"
	EventSessionEnded   Event = "session.ended"
)

type Message struct {
	Event    Event  `json:"event"`
	Redirect string `json:"redirect,omitempty"`
	Text     string `json:"text,omitempty"`
	Data     any    `json:"data,omitempty"`
}

type Client struct {
	ID       uuid.UUID
	Outbound chan Message
	done     chan struct{}
	once     sync.Once
}

type Hub struct {
	mu        sync.RWMutex
	log       *logger.Logger
	clients   map[*Client]struct{}
	heartbeat time.Duration
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:       log.With("component", "SessionEventHub"),
		clients:   make(map[*Client]struct{}),
		heartbeat: 15 * time.Second,
	}
}

// Register adds a client that receives every later broadcast.
func (h *Hub) Register() *Client {
	c := &Client{
		ID:       uuid.New(),
		Outbound: make(chan Message, 8),
		done:     make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("sse client registered", "clientID", c.ID)
	return c
}

// Unregister is idempotent.
func (h *Hub) Unregister(c *Client) {
	c.once.Do(func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		close(c.done)
		h.log.Debug("sse client unregistered", "clientID", c.ID)
	})
}

// Close ends every open stream.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		h.Unregister(c)
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast never blocks; a client with a full buffer misses the message.
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.Outbound <- msg:
		default:
			h.log.Warn("dropping sse message; outbound buffer full", "clientID", c.ID, "event", string(msg.Event))
		}
	}
}

// Serve streams c's messages to w until the request ends or c is
// unregistered.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, c *Client) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-heartbeat.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg := <-c.Outbound:
			raw, err := json.Marshal(msg)
			if err != nil {
				h.log.Warn("failed to marshal sse message", "error", err)
				continue
			}
			_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, raw)
			flusher.Flush()
		}
	}
}
