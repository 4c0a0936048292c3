package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// maxReadSize bounds what a dashboard client may send; clients only send pongs
const maxReadSize = 4 * 1024

// Keepalive sets the websocket liveness timings for a hub's clients
type Keepalive struct {
	WriteWait time.Duration // Deadline for each write
	PongWait  time.Duration // Client is dropped if no pong arrives in this time
}

// DefaultKeepalive suits browser dashboards
var DefaultKeepalive = Keepalive{
	WriteWait: 10 * time.Second,
	PongWait:  60 * time.Second,
}

func (k Keepalive) pingPeriod() time.Duration {
	return k.PongWait * 9 / 10
}

// Client is one dashboard websocket subscribed to a hub
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// NewClient creates a client and registers it with the hub
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	client := &Client{
		ID:   uuid.NewString(),
		hub:  hub,
		conn: conn,
		send: make(chan Message, hub.queueSize),
	}
	select {
	case hub.register <- client:
	case <-hub.done:
		close(client.send)
	}
	return client
}

// enqueue offers msg without blocking
func (c *Client) enqueue(msg Message) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// evictOldest discards the oldest queued message, if any
func (c *Client) evictOldest() {
	select {
	case <-c.send:
	default:
	}
}

// Run serves the connection until it closes. Call it from the websocket handler.
func (c *Client) Run() {
	go c.writeLoop()
	c.readLoop()
}

// readLoop only watches for pongs and disconnects
func (c *Client) readLoop() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	ka := c.hub.keepalive
	c.conn.SetReadLimit(maxReadSize)
	c.conn.SetReadDeadline(time.Now().Add(ka.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ka.PongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop owns all writes to the connection
func (c *Client) writeLoop() {
	ka := c.hub.keepalive
	ping := time.NewTicker(ka.pingPeriod())
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(ka.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(frameType(msg), msg.Data); err != nil {
				return
			}

		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(ka.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func frameType(msg Message) int {
	if msg.Type == BinaryMessage {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}
