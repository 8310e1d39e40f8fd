// Package camera implements the capture interfaces on top of OpenCV.
package camera

import (
	"errors"
	"fmt"
)

// DefaultWindowName is the title of the preview window.
const DefaultWindowName = "Clasificador de Plantas"

// Config holds capture and preview settings.
type Config struct {
	// Width and Height request a capture resolution. Zero keeps the
	// driver default.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Quality is the JPEG quality used when encoding frames (1-100).
	Quality int `json:"quality"`

	// WindowName is the preview window title.
	WindowName string `json:"window_name"`

	// FontScale multiplies every overlay line's scale.
	FontScale float64 `json:"font_scale"`
}

// DefaultConfig returns the driver's default resolution with 90% JPEG
// quality.
func DefaultConfig() Config {
	return Config{
		Quality:    90,
		WindowName: DefaultWindowName,
		FontScale:  1.0,
	}
}

// Validate checks that values are within range.
func (c Config) Validate() error {
	var errs []error
	if c.Width < 0 || c.Height < 0 {
		errs = append(errs, fmt.Errorf("resolution must not be negative, got %dx%d", c.Width, c.Height))
	}
	if (c.Width == 0) != (c.Height == 0) {
		errs = append(errs, errors.New("width and height must be set together"))
	}
	if c.Quality < 1 || c.Quality > 100 {
		errs = append(errs, fmt.Errorf("quality must be between 1 and 100, got %d", c.Quality))
	}
	if c.WindowName == "" {
		errs = append(errs, errors.New("window name is required"))
	}
	if c.FontScale <= 0 {
		errs = append(errs, fmt.Errorf("font scale must be positive, got %g", c.FontScale))
	}
	return errors.Join(errs...)
}
