package hub

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// SlowClientPolicy decides what happens when a client's queue is full
type SlowClientPolicy int

const (
	// DisconnectSlow closes a client that falls behind
	DisconnectSlow SlowClientPolicy = iota
	// DropOldest discards the client's oldest queued message so the newest
	// pose or preview frame still gets through
	DropOldest
)

// defaultQueueSize is the per-client send queue length
const defaultQueueSize = 64

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Name for logging
	name   string
	logger *slog.Logger

	// Registered clients
	clients map[*Client]bool

	// Inbound messages to broadcast
	broadcast chan Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	// Optional cap on broadcasts per second
	limiter *rate.Limiter

	// Client settings, fixed before Run
	policy    SlowClientPolicy
	queueSize int
	keepalive Keepalive

	// Mutex for client count (read-only access from outside)
	mu sync.RWMutex

	running atomic.Bool
	dropped atomic.Uint64
}

// New creates a new Hub
func New(name string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		name:       name,
		logger:     logger.With("hub", name),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		queueSize:  defaultQueueSize,
		keepalive:  DefaultKeepalive,
	}
}

// SetSlowClientPolicy chooses how full client queues are handled.
// Call before Run.
func (h *Hub) SetSlowClientPolicy(p SlowClientPolicy) {
	h.policy = p
}

// SetQueueSize sets the send queue length for clients created afterwards
func (h *Hub) SetQueueSize(n int) {
	if n < 1 {
		n = 1
	}
	h.queueSize = n
}

// SetKeepalive sets ping/pong timings for clients created afterwards
func (h *Hub) SetKeepalive(k Keepalive) {
	if k.WriteWait > 0 && k.PongWait > 0 {
		h.keepalive = k
	}
}

// SetRateLimit caps broadcasts to hz per second with the given burst.
// Excess messages are dropped. hz <= 0 removes the limit.
// Call before Run.
func (h *Hub) SetRateLimit(hz float64, burst int) {
	if hz <= 0 {
		h.limiter = nil
		return
	}
	if burst < 1 {
		burst = 1
	}
	h.limiter = rate.NewLimiter(rate.Limit(hz), burst)
}

// Run starts the hub's main loop until ctx is cancelled.
// This should be called once, in a goroutine.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer func() {
		h.running.Store(false)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client connected", "client", client.ID, "total", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client disconnected", "client", client.ID, "remaining", count)

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// deliver queues message on every client, applying the slow-client policy
func (h *Hub) deliver(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if client.enqueue(message) {
			continue
		}
		if h.policy == DropOldest {
			client.evictOldest()
			if client.enqueue(message) {
				h.dropped.Add(1)
				continue
			}
		}
		close(client.send)
		delete(h.clients, client)
		h.logger.Warn("dropped slow client", "client", client.ID)
	}
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(msg Message) {
	if h.limiter != nil && !h.limiter.Allow() {
		h.dropped.Add(1)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		h.dropped.Add(1)
		h.logger.Debug("broadcast channel full, dropping message")
	}
}

// BroadcastJSON encodes and broadcasts a JSON message
func (h *Hub) BroadcastJSON(v any) error {
	msg, err := EncodeJSON(v)
	if err != nil {
		return err
	}
	h.Broadcast(msg)
	return nil
}

// BroadcastBinary broadcasts binary data (e.g., camera frames)
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(NewBinaryMessage(data))
}

// BroadcastFrame broadcasts a JPEG preview; empty frames are skipped
func (h *Hub) BroadcastFrame(jpeg []byte) {
	if msg, ok := NewFrameMessage(jpeg); ok {
		h.Broadcast(msg)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many broadcasts were discarded
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// IsRunning returns whether the hub is running
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}
