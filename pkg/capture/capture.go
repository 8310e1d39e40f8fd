// Package capture runs the capture-classify-display loop.
//
// A Session owns one camera and one display surface. RunContinuous shows a
// live preview, classifies a frame every interval (or when the operator
// presses 'c'), and draws the latest classification on top of the preview.
// The loop is single-threaded: at most one classification request is in
// flight, and the preview stalls while it runs.
//
// Camera and display are interfaces so the loop can run against OpenCV
// (see pkg/camera), headless, or test fakes.
package capture

import (
	"errors"
	"time"
)

// Key codes returned by Display.WaitKey.
const (
	KeyNone     = -1
	KeyQuit     = 'q'
	KeyClassify = 'c'
)

// Errors that end or prevent the loop.
var (
	// ErrDeviceUnavailable is returned by Start when no camera index opens.
	ErrDeviceUnavailable = errors.New("capture: no camera device available")

	// ErrFrameRead is returned when a frame cannot be grabbed.
	ErrFrameRead = errors.New("capture: frame read failed")

	// ErrNotStarted is returned when the session has no open camera.
	ErrNotStarted = errors.New("capture: session not started")
)

// Frame is a single captured image. Callers must Close it.
type Frame interface {
	// Encode returns the frame as JPEG bytes.
	Encode() ([]byte, error)

	// Close releases the image buffer.
	Close() error
}

// Camera is an open capture device.
type Camera interface {
	// Read grabs the next frame.
	Read() (Frame, error)

	// Close releases the device.
	Close() error
}

// Opener opens the camera at a device index.
type Opener func(index int) (Camera, error)

// Display is the preview surface.
type Display interface {
	// Show renders a frame with overlay text.
	Show(frame Frame, overlay Overlay) error

	// WaitKey waits up to d for a key press and returns its code,
	// or KeyNone if nothing was pressed.
	WaitKey(d time.Duration) int

	// Close destroys the surface.
	Close() error
}

// DisplayFactory opens a display surface.
type DisplayFactory func() (Display, error)
