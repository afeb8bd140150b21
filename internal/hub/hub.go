package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"commandcenter/internal/service"
)

const (
	keepAliveInterval = 30 * time.Second
	clientBufferSize  = 64
)

// Commander accepts operator commands
type Commander interface {
	Send(text string) error
}

// client is a connected SSE or WebSocket consumer
type client struct {
	id     string
	kind   string
	events chan []byte
}

// Hub manages client connections
type Hub struct {
	mu         sync.RWMutex
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan service.Event
	done       chan struct{}

	commander Commander
	gauge     prometheus.Gauge
	logger    *zap.Logger
}

// Option configures a Hub
type Option func(*Hub)

// WithClientGauge tracks the number of connected clients
func WithClientGauge(g prometheus.Gauge) Option {
	return func(h *Hub) {
		h.gauge = g
	}
}

// New creates a hub. Commands from WebSocket clients go to commander.
func New(commander Commander, logger *zap.Logger, opts ...Option) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan service.Event, 256),
		done:       make(chan struct{}),
		commander:  commander,
		logger:     logger.Named("hub"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run forwards bus events to clients until ctx is cancelled.
// bus may be nil when events only arrive through Broadcast.
func (h *Hub) Run(ctx context.Context, bus *service.EventBus) error {
	defer close(h.done)

	var events chan service.Event
	if bus != nil {
		events = make(chan service.Event, 256)
		bus.Subscribe(events)
		defer bus.Unsubscribe(events)
	}

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			h.setGauge(total)
			h.logger.Info("Client connected", zap.String("client_id", c.id), zap.String("kind", c.kind), zap.Int("total", total))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.events)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.setGauge(total)
			h.logger.Info("Client disconnected", zap.String("client_id", c.id), zap.Int("total", total))

		case ev := <-events:
			h.fanOut(ev)

		case ev := <-h.broadcast:
			h.fanOut(ev)

		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.events)
			}
			h.mu.Unlock()
			h.setGauge(0)
			return nil
		}
	}
}

func (h *Hub) fanOut(ev service.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("Failed to marshal event", zap.String("type", string(ev.Type)), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.events <- data:
		default:
			// Client is slow, skip this message
			h.logger.Debug("Client is slow, skipping message", zap.String("client_id", c.id))
		}
	}
}

func (h *Hub) setGauge(n int) {
	if h.gauge != nil {
		h.gauge.Set(float64(n))
	}
}

// Broadcast sends an event to all connected clients
func (h *Hub) Broadcast(ev service.Event) {
	select {
	case h.broadcast <- ev:
	default:
		h.logger.Warn("Broadcast channel full, dropping event", zap.String("type", string(ev.Type)))
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// attach registers a new client; false once the hub has stopped
func (h *Hub) attach(kind string) (*client, bool) {
	c := &client{
		id:     uuid.NewString(),
		kind:   kind,
		events: make(chan []byte, clientBufferSize),
	}
	select {
	case h.register <- c:
		return c, true
	case <-h.done:
		return nil, false
	}
}

func (h *Hub) detach(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ServeHTTP handles SSE connections
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	c, ok := h.attach("sse")
	if !ok {
		http.Error(w, "hub stopped", http.StatusServiceUnavailable)
		return
	}
	defer h.detach(c)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.events:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", msg); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
