// Package config provides environment configuration helpers for go-plantvision commands.
package config

import (
	"os"
	"strconv"
	"time"
)

// Environment variable names.
const (
	EnvCamera         = "PLANTVISION_CAMERA"
	EnvFallbackCamera = "PLANTVISION_FALLBACK_CAMERA"
	EnvClassifyURL    = "PLANTVISION_CLASSIFY_URL"
	EnvSerialPort     = "PLANTVISION_SERIAL_PORT"
	EnvBaudRate       = "PLANTVISION_BAUD"
	EnvInterval       = "PLANTVISION_INTERVAL"
	EnvDashboardPort  = "PLANTVISION_DASHBOARD_PORT"
	EnvHeadless       = "PLANTVISION_HEADLESS"
	EnvLogLevel       = "LOG_LEVEL"
)

// Defaults used when neither a flag nor an environment variable is set.
const (
	DefaultCamera         = 0
	DefaultFallbackCamera = 1
	DefaultClassifyURL    = "http://localhost:5001/classify"
	DefaultBaudRate       = 9600
	DefaultInterval       = 10 * time.Second
	DefaultLogLevel       = "info"
)

// String returns the value of key, or def if it is unset or empty.
func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Int returns the integer value of key, or def if it is unset or not a number.
func Int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Bool returns the boolean value of key, or def if it is unset or invalid.
func Bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Duration returns the duration value of key, or def if it is unset or
// invalid. Plain numbers are read as seconds.
func Duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return def
}

// CameraIndex returns the primary camera index from PLANTVISION_CAMERA.
func CameraIndex() int {
	return Int(EnvCamera, DefaultCamera)
}

// FallbackCameraIndex returns the secondary camera index from PLANTVISION_FALLBACK_CAMERA.
func FallbackCameraIndex() int {
	return Int(EnvFallbackCamera, DefaultFallbackCamera)
}

// ClassifyURL returns the classification endpoint from PLANTVISION_CLASSIFY_URL.
func ClassifyURL() string {
	return String(EnvClassifyURL, DefaultClassifyURL)
}

// SerialPort returns the actuator serial port from PLANTVISION_SERIAL_PORT.
// An empty string means no actuator is attached.
func SerialPort() string {
	return os.Getenv(EnvSerialPort)
}

// BaudRate returns the serial baud rate from PLANTVISION_BAUD.
func BaudRate() int {
	return Int(EnvBaudRate, DefaultBaudRate)
}

// Interval returns the classification interval from PLANTVISION_INTERVAL.
func Interval() time.Duration {
	return Duration(EnvInterval, DefaultInterval)
}

// DashboardPort returns the dashboard port from PLANTVISION_DASHBOARD_PORT.
// An empty string disables the dashboard.
func DashboardPort() string {
	return os.Getenv(EnvDashboardPort)
}

// LogLevel returns the log level from LOG_LEVEL.
func LogLevel() string {
	return String(EnvLogLevel, DefaultLogLevel)
}
