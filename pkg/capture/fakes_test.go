package capture

import (
	"errors"
	"sync"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeFrame struct {
	data      []byte
	encodeErr error
	closed    bool
}

func (f *fakeFrame) Encode() ([]byte, error) {
	if f.encodeErr != nil {
		return nil, f.encodeErr
	}
	return f.data, nil
}

func (f *fakeFrame) Close() error {
	f.closed = true
	return nil
}

// fakeCamera returns numbered frames. Reads fail once failAfter frames
// have been returned (0 = never).
type fakeCamera struct {
	mu        sync.Mutex
	reads     int
	failAfter int
	failNext  bool
	encodeErr error
	closes    int
}

func (c *fakeCamera) Read() (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failNext {
		c.failNext = false
		return nil, errors.New("grab failed")
	}
	if c.failAfter > 0 && c.reads >= c.failAfter {
		return nil, errors.New("device unplugged")
	}
	c.reads++
	return &fakeFrame{data: []byte{0xff, 0xd8, byte(c.reads)}, encodeErr: c.encodeErr}, nil
}

func (c *fakeCamera) Close() error {
	c.mu.Lock()
	c.closes++
	c.mu.Unlock()
	return nil
}

func (c *fakeCamera) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

// fakeDisplay advances the clock by the tick on every WaitKey, plays back
// scripted keys by WaitKey call number (1-based), and quits after maxTicks.
type fakeDisplay struct {
	clock    *fakeClock
	keys     map[int]int
	maxTicks int
	onTick   func(tick int)

	ticks    int
	overlays []Overlay
	closes   int
}

func (d *fakeDisplay) Show(frame Frame, overlay Overlay) error {
	d.overlays = append(d.overlays, overlay)
	return nil
}

func (d *fakeDisplay) WaitKey(wait time.Duration) int {
	d.clock.Advance(wait)
	d.ticks++
	if d.onTick != nil {
		d.onTick(d.ticks)
	}
	if k, ok := d.keys[d.ticks]; ok {
		return k
	}
	if d.maxTicks > 0 && d.ticks >= d.maxTicks {
		return KeyQuit
	}
	return KeyNone
}

func (d *fakeDisplay) Close() error {
	d.closes++
	return nil
}

func openerFor(cams map[int]*fakeCamera) Opener {
	return func(index int) (Camera, error) {
		if c, ok := cams[index]; ok {
			return c, nil
		}
		return nil, errors.New("no such device")
	}
}
