package capture

import (
	"sync"
	"time"
)

// Headless is a Display with no window. Keys are injected with Press.
type Headless struct {
	keys chan int

	mu     sync.Mutex
	closed bool
}

// NewHeadless creates a headless display.
func NewHeadless() *Headless {
	return &Headless{keys: make(chan int, 8)}
}

// HeadlessFactory is a DisplayFactory for Headless.
func HeadlessFactory(h *Headless) DisplayFactory {
	return func() (Display, error) { return h, nil }
}

// Show discards the frame.
func (h *Headless) Show(Frame, Overlay) error { return nil }

// WaitKey returns the next pressed key, or KeyNone after d.
func (h *Headless) WaitKey(d time.Duration) int {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case k := <-h.keys:
		return k
	case <-t.C:
		return KeyNone
	}
}

// Press queues a key. It returns false if the queue is full.
func (h *Headless) Press(key int) bool {
	select {
	case h.keys <- key:
		return true
	default:
		return false
	}
}

// Close marks the display closed. Safe to call more than once.
func (h *Headless) Close() error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (h *Headless) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
