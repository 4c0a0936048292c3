package hub

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	fws "github.com/gofiber/websocket/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serve mounts h at /ws on a fiber app listening on port
func serve(t *testing.T, h *Hub, port int) string {
	t.Helper()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws", fws.New(func(c *fws.Conn) {
		NewClient(h, c).Run()
	}))

	go app.Listen(fmt.Sprintf(":%d", port))
	t.Cleanup(func() { app.Shutdown() })
	time.Sleep(100 * time.Millisecond)

	return fmt.Sprintf("ws://localhost:%d/ws", port)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 10*time.Millisecond)
}

func TestNew(t *testing.T) {
	h := New("test", nil)
	require.NotNil(t, h)
	assert.Equal(t, 0, h.ClientCount())
	assert.False(t, h.IsRunning())
}

func TestMessages(t *testing.T) {
	j := NewJSONMessage([]byte(`{"a":1}`))
	assert.Equal(t, JSONMessage, j.Type)

	b := NewBinaryMessage([]byte{0xFF, 0xD8})
	assert.Equal(t, BinaryMessage, b.Type)
	assert.Equal(t, []byte{0xFF, 0xD8}, b.Data)

	e, err := EncodeJSON(map[string]float64{"yaw": 12.5})
	require.NoError(t, err)
	assert.Equal(t, JSONMessage, e.Type)
	assert.JSONEq(t, `{"yaw":12.5}`, string(e.Data))

	_, err = EncodeJSON(make(chan int))
	assert.Error(t, err)

	f, ok := NewFrameMessage([]byte{0xFF, 0xD8, 0xFF, 0xD9})
	assert.True(t, ok)
	assert.Equal(t, BinaryMessage, f.Type)

	_, ok = NewFrameMessage(nil)
	assert.False(t, ok)
}

func TestBroadcastFrameSkipsEmpty(t *testing.T) {
	h := New("test", nil)
	h.SetRateLimit(0, 0)

	h.BroadcastFrame(nil)
	h.BroadcastFrame([]byte{})
	assert.Len(t, h.broadcast, 0)

	h.BroadcastFrame([]byte{0xFF, 0xD8})
	assert.Len(t, h.broadcast, 1)
}

// queuedClient is a client without a connection, for exercising delivery
func queuedClient(h *Hub, id string, queue int) *Client {
	c := &Client{ID: id, hub: h, send: make(chan Message, queue)}
	h.clients[c] = true
	return c
}

func TestDeliver_DisconnectSlow(t *testing.T) {
	h := New("logs", nil)
	slow := queuedClient(h, "slow", 1)

	h.deliver(NewJSONMessage([]byte(`1`)))
	assert.Equal(t, 1, h.ClientCount())

	h.deliver(NewJSONMessage([]byte(`2`)))
	assert.Equal(t, 0, h.ClientCount(), "full client should be removed")

	first, ok := <-slow.send
	require.True(t, ok)
	assert.Equal(t, []byte(`1`), first.Data)
	_, ok = <-slow.send
	assert.False(t, ok, "send channel should be closed")
}

func TestDeliver_DropOldest(t *testing.T) {
	h := New("camera", nil)
	h.SetSlowClientPolicy(DropOldest)
	slow := queuedClient(h, "slow", 2)

	for i := 1; i <= 5; i++ {
		h.deliver(NewBinaryMessage([]byte{byte(i)}))
	}

	assert.Equal(t, 1, h.ClientCount(), "client stays connected")
	assert.Equal(t, uint64(3), h.Dropped())
	require.Len(t, slow.send, 2)
	assert.Equal(t, []byte{4}, (<-slow.send).Data)
	assert.Equal(t, []byte{5}, (<-slow.send).Data)
}

func TestClientSettings(t *testing.T) {
	h := New("test", nil)
	h.SetQueueSize(0)
	assert.Equal(t, 1, h.queueSize)

	h.SetKeepalive(Keepalive{})
	assert.Equal(t, DefaultKeepalive, h.keepalive, "zero keepalive is ignored")

	k := Keepalive{WriteWait: time.Second, PongWait: 10 * time.Second}
	h.SetKeepalive(k)
	assert.Equal(t, 9*time.Second, h.keepalive.pingPeriod())
}

func TestBroadcastWithoutRun(t *testing.T) {
	h := New("test", nil)

	// Channel buffer absorbs messages, the rest are dropped without blocking
	for i := 0; i < 300; i++ {
		h.BroadcastBinary([]byte{byte(i)})
	}
	assert.Equal(t, uint64(300-256), h.Dropped())
}

func TestRateLimit(t *testing.T) {
	h := New("test", nil)
	h.SetRateLimit(1, 3)

	for i := 0; i < 10; i++ {
		require.NoError(t, h.BroadcastJSON(map[string]int{"i": i}))
	}
	assert.Equal(t, uint64(7), h.Dropped(), "only the burst should pass")

	h.SetRateLimit(0, 0)
	h.BroadcastBinary(nil)
	assert.Equal(t, uint64(7), h.Dropped(), "limit removed")
}

func TestBroadcastJSON_Error(t *testing.T) {
	h := New("test", nil)
	assert.Error(t, h.BroadcastJSON(func() {}))
}

func TestHub_FanOut(t *testing.T) {
	h := New("orientation", nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	url := serve(t, h, 18190)

	a, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer a.Close()
	b, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer b.Close()

	waitFor(t, func() bool { return h.ClientCount() == 2 })
	assert.True(t, h.IsRunning())

	require.NoError(t, h.BroadcastJSON(map[string]float64{"yaw": 12.5}))
	h.BroadcastBinary([]byte{0xFF, 0xD8, 0xFF})

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))

		mt, data, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, websocket.TextMessage, mt)
		assert.JSONEq(t, `{"yaw":12.5}`, string(data))

		mt, data, err = conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, websocket.BinaryMessage, mt)
		assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, data)
	}

	a.Close()
	waitFor(t, func() bool { return h.ClientCount() == 1 })
}

func TestHub_StopClosesClients(t *testing.T) {
	h := New("camera", nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	url := serve(t, h, 18191)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	cancel()
	waitFor(t, func() bool { return !h.IsRunning() })
	assert.Equal(t, 0, h.ClientCount())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "client should be closed when the hub stops")
}
