package api

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"uniscan/internal"
)

// EventWorkflow is the SSE event name carrying a workflow snapshot
const EventWorkflow = "workflow"

const pingInterval = 30 * time.Second

// Event is one message for the clients of a session
type Event struct {
	SessionID string          `json:"session_id"`
	Type      string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

type client struct {
	sessionID string
	ch        chan Event
}

// SSEHub fans events out to the browser tabs of each session
type SSEHub struct {
	clients    map[string]map[chan Event]bool
	clientsMu  sync.RWMutex
	register   chan client
	unregister chan client
	broadcast  chan Event
	done       chan struct{}
	stopped    chan struct{}
	closeOnce  sync.Once
	log        *internal.Logger
}

// NewSSEHub creates a hub and starts its loop
func NewSSEHub(logger *internal.Logger) *SSEHub {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	hub := &SSEHub{
		clients:    make(map[string]map[chan Event]bool),
		register:   make(chan client, 10),
		unregister: make(chan client, 10),
		broadcast:  make(chan Event, 100),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		log:        logger.With("component", "sse"),
	}

	go hub.run()
	return hub
}

func (h *SSEHub) run() {
	defer close(h.stopped)
	for {
		select {
		case c := <-h.register:
			h.clientsMu.Lock()
			if h.clients[c.sessionID] == nil {
				h.clients[c.sessionID] = make(map[chan Event]bool)
			}
			h.clients[c.sessionID][c.ch] = true
			h.log.Debug("client registered", "session_id", c.sessionID, "clients", len(h.clients[c.sessionID]))
			h.clientsMu.Unlock()

		case c := <-h.unregister:
			h.drop(c)

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for ch := range h.clients[event.SessionID] {
				select {
				case ch <- event:
				default:
					h.log.Warn("client channel full, skipping event", "session_id", event.SessionID)
				}
			}
			h.clientsMu.RUnlock()

		case <-h.done:
			h.clientsMu.Lock()
			for sessionID, clients := range h.clients {
				for ch := range clients {
					close(ch)
				}
				delete(h.clients, sessionID)
			}
			h.clientsMu.Unlock()
			return
		}
	}
}

func (h *SSEHub) drop(c client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	clients, ok := h.clients[c.sessionID]
	if !ok || !clients[c.ch] {
		return
	}
	delete(clients, c.ch)
	close(c.ch)
	if len(clients) == 0 {
		delete(h.clients, c.sessionID)
	}
	h.log.Debug("client unregistered", "session_id", c.sessionID, "remaining", len(clients))
}

// Publish encodes data and sends it to every client of the session. Events
// for sessions without clients are discarded.
func (h *SSEHub) Publish(sessionID, eventType string, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		h.log.Error("failed to encode event", "event_type", eventType, "error", err)
		return
	}
	h.Broadcast(Event{SessionID: sessionID, Type: eventType, Data: raw, Timestamp: time.Now()})
}

// Broadcast queues an event without blocking
func (h *SSEHub) Broadcast(event Event) {
	select {
	case <-h.done:
		return
	default:
	}
	select {
	case h.broadcast <- event:
	default:
		h.log.Warn("broadcast channel full, dropping event", "event_type", event.Type)
	}
}

// Stream serves the event stream of one session until the client goes away
// or the hub closes. initial, when set, is written first so the client does
// not wait for the next change to render.
func (h *SSEHub) Stream(c *gin.Context, sessionID string, initial *Event) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ch := make(chan Event, 10)
	select {
	case h.register <- client{sessionID: sessionID, ch: ch}:
	case <-h.done:
		c.Status(503)
		return
	default:
		c.JSON(503, gin.H{"error": "Troppe connessioni aperte, riprova."})
		return
	}
	defer func() {
		select {
		case h.unregister <- client{sessionID: sessionID, ch: ch}:
		case <-h.stopped:
		}
	}()

	if initial != nil {
		c.SSEvent(initial.Type, string(initial.Data))
		c.Writer.Flush()
	}

	ctx := c.Request.Context()
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(event.Type, string(event.Data))
			return true
		case t := <-ticker.C:
			c.SSEvent("ping", `{"status":"alive","timestamp":"`+t.Format(time.RFC3339)+`"}`)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// ClientCount returns the number of connected clients of a session
func (h *SSEHub) ClientCount(sessionID string) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients[sessionID])
}

// Close disconnects every client and stops the hub loop
func (h *SSEHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
	<-h.stopped
}
