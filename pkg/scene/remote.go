// Package scene delivers camera orientations to renderers.
package scene

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-parallax/pkg/tracking"
)

// MessageType identifies orientation updates on the wire
const MessageType = "camera.orientation"

// ErrClosed is returned after Close
var ErrClosed = errors.New("scene: remote closed")

// Update is the JSON message sent to the renderer for every tick
type Update struct {
	Type        string               `json:"type"`
	Session     string               `json:"session,omitempty"`
	Seq         uint64               `json:"seq"`
	Timestamp   int64                `json:"timestamp"` // Unix milliseconds
	Orientation tracking.Orientation `json:"orientation"`
}

// Remote pushes orientations to a renderer over a websocket.
// ApplyOrientation never blocks on the network: the latest update is handed
// to a writer goroutine that owns dialing and sending. The connection is
// dialed lazily and redialed after failures, no more often than RetryInterval.
type Remote struct {
	url     string
	session string
	logger  *slog.Logger
	dialer  websocket.Dialer
	header  http.Header

	RetryInterval time.Duration
	WriteTimeout  time.Duration

	// pending holds at most one update; newer updates replace it
	pending chan Update
	ctx     context.Context
	cancel  context.CancelFunc
	start   sync.Once
	dialMu  sync.Mutex

	mu       sync.Mutex
	ws       *websocket.Conn
	seq      uint64
	lastDial time.Time
	closed   bool
	dropped  uint64
}

// NewRemote creates a renderer client for url (ws:// or wss://)
func NewRemote(url, session string, logger *slog.Logger) *Remote {
	if logger == nil {
		logger = slog.Default()
	}
	header := make(http.Header)
	if session != "" {
		header.Set("X-Parallax-Session", session)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Remote{
		url:     url,
		session: session,
		logger:  logger.With("component", "scene", "url", url),
		dialer: websocket.Dialer{
			HandshakeTimeout: 5 * time.Second,
		},
		header:        header,
		RetryInterval: time.Second,
		WriteTimeout:  time.Second,
		pending:       make(chan Update, 1),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Connect dials the renderer now and starts the writer.
// A failed dial is retried by the writer on later updates.
func (r *Remote) Connect() error {
	if r.isClosed() {
		return ErrClosed
	}
	r.start.Do(func() { go r.run() })
	_, err := r.dial()
	return err
}

// dial opens a connection unless one is already open
func (r *Remote) dial() (*websocket.Conn, error) {
	r.dialMu.Lock()
	defer r.dialMu.Unlock()

	r.mu.Lock()
	if r.ws != nil {
		ws := r.ws
		r.mu.Unlock()
		return ws, nil
	}
	r.lastDial = time.Now()
	r.mu.Unlock()

	ws, _, err := r.dialer.DialContext(r.ctx, r.url, r.header)
	if err != nil {
		return nil, fmt.Errorf("dial renderer: %w", err)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		ws.Close()
		return nil, ErrClosed
	}
	r.ws = ws
	r.mu.Unlock()

	// Drain control frames so pings and close are handled
	go func() {
		for {
			if _, _, err := ws.NextReader(); err != nil {
				r.drop(ws)
				return
			}
		}
	}()

	r.logger.Info("renderer connected")
	return ws, nil
}

// drop forgets ws if it is still the active connection
func (r *Remote) drop(ws *websocket.Conn) {
	ws.Close()
	r.mu.Lock()
	if r.ws == ws {
		r.ws = nil
	}
	r.mu.Unlock()
}

// ApplyOrientation queues o for the renderer and returns immediately.
// An update still waiting to be sent is replaced.
func (r *Remote) ApplyOrientation(o tracking.Orientation) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.seq++
	msg := Update{
		Type:        MessageType,
		Session:     r.session,
		Seq:         r.seq,
		Timestamp:   time.Now().UnixMilli(),
		Orientation: o,
	}
	r.mu.Unlock()

	r.start.Do(func() { go r.run() })

	select {
	case <-r.pending:
		r.countDrop()
	default:
	}
	select {
	case r.pending <- msg:
	default:
		r.countDrop()
	}
	return nil
}

// run sends queued updates until Close
func (r *Remote) run() {
	for {
		select {
		case <-r.ctx.Done():
			return
		case msg := <-r.pending:
			r.send(msg)
		}
	}
}

// send writes msg, dialing first when disconnected and the retry interval has passed
func (r *Remote) send(msg Update) {
	r.mu.Lock()
	ws := r.ws
	wait := r.ws == nil && time.Since(r.lastDial) < r.RetryInterval
	r.mu.Unlock()

	if wait {
		r.countDrop()
		return
	}
	if ws == nil {
		var err error
		if ws, err = r.dial(); err != nil {
			if !errors.Is(err, ErrClosed) && r.ctx.Err() == nil {
				r.logger.Warn("renderer unavailable", "error", err)
			}
			r.countDrop()
			return
		}
	}

	ws.SetWriteDeadline(time.Now().Add(r.WriteTimeout))
	if err := ws.WriteJSON(msg); err != nil {
		r.drop(ws)
		if r.ctx.Err() == nil {
			r.logger.Warn("renderer disconnected", "error", err)
		}
		r.countDrop()
	}
}

func (r *Remote) countDrop() {
	r.mu.Lock()
	r.dropped++
	r.mu.Unlock()
}

func (r *Remote) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Dropped returns how many updates were replaced or could not be delivered
func (r *Remote) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Connected reports whether a renderer connection is open
func (r *Remote) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ws != nil
}

// Close sends a close frame and stops the writer. Safe to call more than once.
// A dial still in progress is abandoned when it returns.
func (r *Remote) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	ws := r.ws
	r.ws = nil
	r.mu.Unlock()

	r.cancel()
	if ws == nil {
		return nil
	}

	ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return ws.Close()
}
