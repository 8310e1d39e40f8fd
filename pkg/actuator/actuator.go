// Package actuator drives the irrigation microcontroller over a serial link.
//
// The firmware speaks a single-byte protocol: '1' switches the actuator on,
// '0' switches it off, and 'H' asks for a humidity reading. Responses are
// newline-terminated text. Depending on the firmware build the humidity
// line is either a bare number ("45.2") or "Humidity: 45.2%"; both are
// accepted.
package actuator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Commands understood by the firmware.
const (
	CmdActivate   byte = '1'
	CmdDeactivate byte = '0'
	CmdHumidity   byte = 'H'
)

// ErrIO matches every *IOError via errors.Is.
var ErrIO = errors.New("actuator: I/O failure")

// ErrTimeout is wrapped by an *IOError when no line arrives in time.
var ErrTimeout = errors.New("read timeout")

// IOError is the single error kind surfaced by the link: open, write and
// read failures, timeouts and malformed responses.
type IOError struct {
	Op  string // open, write, read, parse
	Err error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("actuator: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrIO.
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// Reading is one humidity sample.
type Reading struct {
	Value float64   `json:"humidity"`
	Raw   string    `json:"raw_response"`
	Time  time.Time `json:"timestamp"`
}

const humidityPrefix = "humidity:"

// ParseHumidity extracts the humidity percentage from a firmware line.
func ParseHumidity(line string) (float64, error) {
	s := strings.TrimSpace(line)
	if i := strings.Index(strings.ToLower(s), humidityPrefix); i >= 0 {
		s = s[i+len(humidityPrefix):]
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0, fmt.Errorf("unexpected humidity response %q", line)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected humidity response %q", line)
	}
	return v, nil
}

// ParseCommand maps operator input to a command byte.
func ParseCommand(s string) (byte, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "on":
		return CmdActivate, nil
	case "0", "off":
		return CmdDeactivate, nil
	case "h", "humidity":
		return CmdHumidity, nil
	default:
		return 0, fmt.Errorf("unknown command %q", s)
	}
}
