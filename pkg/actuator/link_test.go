package actuator

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

// fakePort answers commands from a response table. Reads return (0, nil)
// when nothing is pending, like a serial port whose read timeout elapsed.
type fakePort struct {
	mu        sync.Mutex
	written   []byte
	pending   bytes.Buffer
	responses map[byte]string
	chunk     int
	writeErr  error
	readErr   error
	closed    bool
}

func newFakePort(responses map[byte]string) *fakePort {
	return &fakePort{responses: responses, chunk: 4}
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	p.written = append(p.written, b...)
	for _, c := range b {
		p.pending.WriteString(p.responses[c])
	}
	return len(b), nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.readErr != nil {
		return 0, p.readErr
	}
	if p.pending.Len() == 0 {
		return 0, nil
	}
	if len(b) > p.chunk {
		b = b[:p.chunk]
	}
	return p.pending.Read(b)
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func (p *fakePort) SetReadTimeout(time.Duration) error { return nil }

func testLink(p *fakePort) *Link {
	return NewLink(p, DefaultConfig("/dev/fake"))
}

func TestHumidityFirmwareFormats(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     float64
	}{
		{"labelled", "Humidity: 45.2%\r\n", 45.2},
		{"bare", "61.5\n", 61.5},
		{"bare percent", "12%\n", 12},
		{"leading blank lines", "\r\n\r\nHumidity: 7.0%\r\n", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port := newFakePort(map[byte]string{CmdHumidity: tt.response})
			r, err := testLink(port).Humidity()
			if err != nil {
				t.Fatalf("Humidity: %v", err)
			}
			if r.Value != tt.want {
				t.Errorf("Value = %v, want %v", r.Value, tt.want)
			}
			if r.Raw == "" || r.Time.IsZero() {
				t.Errorf("Reading missing raw/time: %+v", r)
			}
			if string(port.written) != "H" {
				t.Errorf("written = %q, want H", port.written)
			}
		})
	}
}

func TestHumidityMalformed(t *testing.T) {
	port := newFakePort(map[byte]string{CmdHumidity: "Sensor error\n"})
	_, err := testLink(port).Humidity()

	if !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
	var ioErr *IOError
	if !errors.As(err, &ioErr) || ioErr.Op != "parse" {
		t.Errorf("expected parse IOError, got %v", err)
	}
}

func TestHumidityTimeout(t *testing.T) {
	port := newFakePort(nil)
	_, err := testLink(port).Humidity()

	if !errors.Is(err, ErrIO) || !errors.Is(err, ErrTimeout) {
		t.Errorf("expected timeout IOError, got %v", err)
	}
}

func TestActivateDeactivate(t *testing.T) {
	port := newFakePort(map[byte]string{
		CmdActivate:   "LED ON\n",
		CmdDeactivate: "LED OFF\n",
	})
	l := testLink(port)

	if err := l.Activate(); err != nil {
		t.Fatal(err)
	}
	if err := l.Deactivate(); err != nil {
		t.Fatal(err)
	}
	if string(port.written) != "10" {
		t.Errorf("written = %q, want 10", port.written)
	}

	lines, err := l.Drain()
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(lines) != 2 || lines[0] != "LED ON" || lines[1] != "LED OFF" {
		t.Errorf("Drain = %q", lines)
	}
}

// resettingPort also supports ResetInputBuffer, like serial.Port.
type resettingPort struct {
	*fakePort
	resets int
}

func (p *resettingPort) ResetInputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resets++
	p.pending.Reset()
	return nil
}

func TestHumidityAfterRelayToggle(t *testing.T) {
	responses := map[byte]string{
		CmdActivate:   "LED ON\n",
		CmdDeactivate: "LED OFF\n",
		CmdHumidity:   "Humidity: 45.2%\n",
	}

	t.Run("port without reset", func(t *testing.T) {
		l := testLink(newFakePort(responses))
		if err := l.Activate(); err != nil {
			t.Fatal(err)
		}
		if err := l.Deactivate(); err != nil {
			t.Fatal(err)
		}

		r, err := l.Humidity()
		if err != nil {
			t.Fatalf("Humidity() error = %v", err)
		}
		if r.Value != 45.2 || r.Raw != "Humidity: 45.2%" {
			t.Errorf("Humidity() = %+v, want 45.2", r)
		}
	})

	t.Run("port with reset", func(t *testing.T) {
		port := &resettingPort{fakePort: newFakePort(responses)}
		l := NewLink(port, DefaultConfig("/dev/fake"))
		if err := l.Activate(); err != nil {
			t.Fatal(err)
		}
		if _, err := l.ReadLine(); err != nil {
			t.Fatal(err)
		}
		l.Deactivate()

		r, err := l.Humidity()
		if err != nil {
			t.Fatalf("Humidity() error = %v", err)
		}
		if r.Value != 45.2 {
			t.Errorf("Humidity().Value = %v, want 45.2", r.Value)
		}
		if port.resets != 1 {
			t.Errorf("resets = %d, want 1", port.resets)
		}
	})
}

func TestWriteAndReadErrorsAreIO(t *testing.T) {
	port := newFakePort(nil)
	port.writeErr = errors.New("device gone")
	if err := testLink(port).Activate(); !errors.Is(err, ErrIO) {
		t.Errorf("write error should be ErrIO, got %v", err)
	}

	port = newFakePort(nil)
	port.readErr = io.EOF
	if _, err := testLink(port).ReadLine(); !errors.Is(err, ErrIO) {
		t.Errorf("read error should be ErrIO, got %v", err)
	}
}

func TestOpenWithoutPort(t *testing.T) {
	_, err := Open(DefaultConfig(""))
	if !errors.Is(err, ErrIO) {
		t.Errorf("expected ErrIO, got %v", err)
	}
}

func TestClose(t *testing.T) {
	port := newFakePort(nil)
	if err := testLink(port).Close(); err != nil {
		t.Fatal(err)
	}
	if !port.closed {
		t.Error("port should be closed")
	}
}

func TestParseHumidity(t *testing.T) {
	good := map[string]float64{
		"45.2":             45.2,
		" 45.2 ":           45.2,
		"45.2%":            45.2,
		"Humidity: 45.2%":  45.2,
		"humidity:80":      80,
		"HUMIDITY: 3.5 % ": 3.5,
	}
	for in, want := range good {
		got, err := ParseHumidity(in)
		if err != nil || got != want {
			t.Errorf("ParseHumidity(%q) = %v, %v; want %v", in, got, err, want)
		}
	}

	for _, in := range []string{"", "Humidity:", "wet", "Humidity: n/a%"} {
		if _, err := ParseHumidity(in); err == nil {
			t.Errorf("ParseHumidity(%q) should fail", in)
		}
	}
}

func TestParseCommand(t *testing.T) {
	tests := map[string]byte{"1": CmdActivate, "on": CmdActivate, "0": CmdDeactivate, "OFF": CmdDeactivate, "h": CmdHumidity}
	for in, want := range tests {
		got, err := ParseCommand(in)
		if err != nil || got != want {
			t.Errorf("ParseCommand(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseCommand("2"); err == nil {
		t.Error("ParseCommand(\"2\") should fail")
	}
}
