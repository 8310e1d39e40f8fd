package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
)

type fakeConn struct {
	mu      sync.Mutex
	written []Message
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	<-c.closed
	return 0, nil, errors.New("closed")
}

func (c *fakeConn) WriteMessage(t int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch t {
	case websocket.TextMessage, websocket.BinaryMessage:
		c.written = append(c.written, Message{Binary: t == websocket.BinaryMessage, Data: data})
	}
	return nil
}

func (c *fakeConn) SetReadLimit(int64)                {}
func (c *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error  { return nil }
func (c *fakeConn) SetPongHandler(func(string) error) {}
func (c *fakeConn) Close() error                      { c.once.Do(func() { close(c.closed) }); return nil }

func (c *fakeConn) messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.written...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestHubBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New("test")
	go h.Run(ctx)

	conn := newFakeConn()
	c := NewClient(h, conn)
	go c.Serve()

	waitFor(t, func() bool { return h.ClientCount() == 1 })

	if err := h.BroadcastJSON(map[string]string{"plant": "menta"}); err != nil {
		t.Fatalf("BroadcastJSON() error = %v", err)
	}
	h.BroadcastBinary([]byte{0xff, 0xd8})

	waitFor(t, func() bool { return len(conn.messages()) == 2 })

	msgs := conn.messages()
	if msgs[0].Binary || string(msgs[0].Data) != `{"plant":"menta"}` {
		t.Errorf("first message = %+v, want JSON plant", msgs[0])
	}
	if !msgs[1].Binary || len(msgs[1].Data) != 2 {
		t.Errorf("second message = %+v, want 2-byte binary", msgs[1])
	}
}

func TestHubUnregisterOnDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New("test")
	go h.Run(ctx)

	conn := newFakeConn()
	c := NewClient(h, conn)
	go c.Serve()
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	conn.Close()
	waitFor(t, func() bool { return h.ClientCount() == 0 })
}

func TestHubStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := New("test")
	go h.Run(ctx)

	conn := newFakeConn()
	c := NewClient(h, conn)
	go c.Serve()
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	cancel()
	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if n := h.ClientCount(); n != 0 {
		t.Errorf("ClientCount() = %d, want 0", n)
	}

	// Registering after stop must not block.
	NewClient(h, newFakeConn())
}

func TestBroadcastWithoutRunDoesNotBlock(t *testing.T) {
	h := New("idle")
	for i := 0; i < 100; i++ {
		h.Broadcast(Message{Binary: true, Data: []byte{1}})
	}
}
