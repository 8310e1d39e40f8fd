package capture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds loop configuration. Device indices are environment
// specific and come from flags or PLANTVISION_* variables.
type Config struct {
	// CameraIndex is tried first.
	CameraIndex int

	// FallbackIndex is tried when CameraIndex fails to open.
	// A negative value disables the fallback.
	FallbackIndex int

	// Interval between scheduled classifications.
	Interval time.Duration

	// Tick is how long each loop iteration waits for a key.
	Tick time.Duration

	// RequestTimeout bounds one classification round-trip.
	RequestTimeout time.Duration

	// SnapshotPath is overwritten with the JPEG sent on each cycle.
	// Empty disables the snapshot file.
	SnapshotPath string
}

// DefaultConfig returns the reference timing: classify every 10s, poll keys
// every 100ms, give the service 5s.
func DefaultConfig() Config {
	return Config{
		CameraIndex:    0,
		FallbackIndex:  1,
		Interval:       10 * time.Second,
		Tick:           100 * time.Millisecond,
		RequestTimeout: 5 * time.Second,
		SnapshotPath:   filepath.Join(os.TempDir(), "plantvision_capture.jpg"),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if c.CameraIndex < 0 {
		errs = append(errs, fmt.Errorf("camera index must be >= 0, got %d", c.CameraIndex))
	}
	if c.Interval <= 0 {
		errs = append(errs, errors.New("interval must be positive"))
	}
	if c.Tick <= 0 {
		errs = append(errs, errors.New("tick must be positive"))
	}
	if c.Tick > 0 && c.Interval > 0 && c.Tick > c.Interval {
		errs = append(errs, fmt.Errorf("tick %v exceeds interval %v", c.Tick, c.Interval))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	return errors.Join(errs...)
}
