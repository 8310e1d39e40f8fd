package actuator

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

// Port is the subset of serial.Port the link needs. A read that returns
// (0, nil) means the read timeout elapsed.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// Config holds serial link configuration.
type Config struct {
	PortName    string
	BaudRate    int
	ReadTimeout time.Duration

	// SettleDelay is waited after opening; most boards reset when the
	// port opens.
	SettleDelay time.Duration

	Logger *slog.Logger
}

// DefaultConfig returns settings for a 9600 baud microcontroller.
func DefaultConfig(portName string) Config {
	return Config{
		PortName:    portName,
		BaudRate:    9600,
		ReadTimeout: time.Second,
		SettleDelay: 2 * time.Second,
		Logger:      slog.Default(),
	}
}

// Link is an open serial connection to the actuator board.
type Link struct {
	cfg    Config
	port   Port
	logger *slog.Logger
	now    func() time.Time

	mu  sync.Mutex
	buf []byte
}

// Open opens the serial port and waits for the board to settle.
func Open(cfg Config) (*Link, error) {
	if cfg.PortName == "" {
		return nil, &IOError{Op: "open", Err: errors.New("no serial port configured")}
	}
	port, err := serial.Open(cfg.PortName, &serial.Mode{BaudRate: cfg.BaudRate})
	if err != nil {
		return nil, &IOError{Op: "open", Err: err}
	}
	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		port.Close()
		return nil, &IOError{Op: "open", Err: err}
	}
	l := NewLink(port, cfg)
	if cfg.SettleDelay > 0 {
		time.Sleep(cfg.SettleDelay)
	}
	if err := port.ResetInputBuffer(); err != nil {
		l.logger.Debug("reset input buffer failed", "error", err)
	}
	l.logger.Info("serial link open", "port", cfg.PortName, "baud", cfg.BaudRate)
	return l, nil
}

// NewLink wraps an already open port.
func NewLink(port Port, cfg Config) *Link {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Link{
		cfg:    cfg,
		port:   port,
		logger: logger.With("component", "actuator", "port", cfg.PortName),
		now:    time.Now,
	}
}

// SendCommand writes a single command byte.
func (l *Link) SendCommand(b byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.send(b)
}

func (l *Link) send(b byte) error {
	n, err := l.port.Write([]byte{b})
	if err != nil {
		return &IOError{Op: "write", Err: err}
	}
	if n != 1 {
		return &IOError{Op: "write", Err: io.ErrShortWrite}
	}
	l.logger.Debug("command sent", "cmd", string(b))
	return nil
}

// ReadLine returns the next response line with surrounding whitespace
// removed. It fails with ErrTimeout if the port times out first.
func (l *Link) ReadLine() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readLine()
}

func (l *Link) readLine() (string, error) {
	chunk := make([]byte, 64)
	for {
		if i := bytes.IndexByte(l.buf, '\n'); i >= 0 {
			line := string(l.buf[:i])
			l.buf = l.buf[i+1:]
			return strings.TrimSpace(line), nil
		}
		n, err := l.port.Read(chunk)
		if n > 0 {
			l.buf = append(l.buf, chunk[:n]...)
			continue
		}
		if err != nil {
			return "", &IOError{Op: "read", Err: err}
		}
		return "", &IOError{Op: "read", Err: ErrTimeout}
	}
}

// Activate switches the actuator on.
func (l *Link) Activate() error {
	return l.SendCommand(CmdActivate)
}

// Deactivate switches the actuator off.
func (l *Link) Deactivate() error {
	return l.SendCommand(CmdDeactivate)
}

// Humidity requests a reading and parses the reply. Output left over from
// earlier commands is discarded first, and lines that are not a humidity
// value are skipped until one arrives or the port times out.
func (l *Link) Humidity() (Reading, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.discardInput()
	if err := l.send(CmdHumidity); err != nil {
		return Reading{}, err
	}

	var parseErr error
	for {
		line, err := l.readLine()
		if err != nil {
			if parseErr != nil && errors.Is(err, ErrTimeout) {
				return Reading{}, &IOError{Op: "parse", Err: parseErr}
			}
			return Reading{}, err
		}
		if line == "" {
			continue
		}
		v, err := ParseHumidity(line)
		if err != nil {
			l.logger.Debug("skipping non-humidity line", "line", line)
			parseErr = err
			continue
		}
		l.logger.Debug("humidity read", "value", v, "raw", line)
		return Reading{Value: v, Raw: line, Time: l.now()}, nil
	}
}

// inputResetter is implemented by serial.Port.
type inputResetter interface {
	ResetInputBuffer() error
}

// discardInput drops buffered bytes and, when the port supports it, bytes
// still queued in the driver.
func (l *Link) discardInput() {
	if len(l.buf) > 0 {
		l.logger.Debug("discarding stale input", "bytes", len(l.buf))
	}
	l.buf = l.buf[:0]
	if r, ok := l.port.(inputResetter); ok {
		if err := r.ResetInputBuffer(); err != nil {
			l.logger.Debug("reset input buffer failed", "error", err)
		}
	}
}

// Drain returns every complete line currently buffered or readable before
// the port times out.
func (l *Link) Drain() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var lines []string
	for {
		line, err := l.readLine()
		if errors.Is(err, ErrTimeout) {
			return lines, nil
		}
		if err != nil {
			return lines, err
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
}

// Close closes the serial port.
func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.port.Close(); err != nil {
		return &IOError{Op: "close", Err: err}
	}
	return nil
}
