// Package plantvision wires the capture loop to the classifier, the
// dashboard and the irrigation actuator.
package plantvision

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/teslashibe/go-plantvision/internal/config"
	"github.com/teslashibe/go-plantvision/pkg/camera"
	"github.com/teslashibe/go-plantvision/pkg/capture"
	"github.com/teslashibe/go-plantvision/pkg/irrigation"
)

// Config holds all configuration for the application.
// Flag parsing is done in cmd/plantvision; this struct is data only.
type Config struct {
	Capture capture.Config
	Camera  camera.Config

	// ClassifyURL is the classification service endpoint.
	ClassifyURL string

	// Headless runs without a preview window; keys come from Headless().
	Headless bool

	// DashboardPort enables the web dashboard when non-empty.
	DashboardPort string

	// StaticDir holds dashboard assets.
	StaticDir string

	// SerialPort enables the actuator when non-empty.
	SerialPort string
	BaudRate   int

	// ForecastURL is the Open-Meteo endpoint used for watering estimates.
	ForecastURL string

	// PotDiameter is the pot diameter in cm.
	PotDiameter float64
}

// DefaultConfig returns the demo setup: camera 0 with fallback 1, the
// local mock classifier, no dashboard and no actuator.
func DefaultConfig() Config {
	return Config{
		Capture:     capture.DefaultConfig(),
		Camera:      camera.DefaultConfig(),
		ClassifyURL: config.DefaultClassifyURL,
		BaudRate:    config.DefaultBaudRate,
		ForecastURL: irrigation.DefaultForecastURL,
		PotDiameter: irrigation.DefaultPotDiameter,
	}
}

// LoadEnvConfig applies PLANTVISION_* environment overrides.
// Call it before flag parsing so flags take precedence.
func (c *Config) LoadEnvConfig() {
	c.Capture.CameraIndex = config.Int(config.EnvCamera, c.Capture.CameraIndex)
	c.Capture.FallbackIndex = config.Int(config.EnvFallbackCamera, c.Capture.FallbackIndex)
	c.Capture.Interval = config.Duration(config.EnvInterval, c.Capture.Interval)
	c.ClassifyURL = config.String(config.EnvClassifyURL, c.ClassifyURL)
	c.SerialPort = config.String(config.EnvSerialPort, c.SerialPort)
	c.BaudRate = config.Int(config.EnvBaudRate, c.BaudRate)
	c.DashboardPort = config.String(config.EnvDashboardPort, c.DashboardPort)
	c.Headless = config.Bool(config.EnvHeadless, c.Headless)
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Capture.Validate(); err != nil {
		errs = append(errs, &ConfigError{Field: "Capture", Message: err.Error()})
	}
	if !c.Headless {
		if err := c.Camera.Validate(); err != nil {
			errs = append(errs, &ConfigError{Field: "Camera", Message: err.Error()})
		}
	}
	if u, err := url.Parse(c.ClassifyURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, &ConfigError{Field: "ClassifyURL", Message: fmt.Sprintf("invalid URL %q", c.ClassifyURL)})
	}
	if c.SerialPort != "" && c.BaudRate <= 0 {
		errs = append(errs, &ConfigError{Field: "BaudRate", Message: fmt.Sprintf("must be positive, got %d", c.BaudRate)})
	}
	if c.PotDiameter <= 0 {
		errs = append(errs, &ConfigError{Field: "PotDiameter", Message: fmt.Sprintf("must be positive, got %g", c.PotDiameter)})
	}
	return errors.Join(errs...)
}
