package config

import (
	"testing"
	"time"
)

func TestIntFallsBack(t *testing.T) {
	t.Setenv(EnvCamera, "")
	if got := CameraIndex(); got != DefaultCamera {
		t.Errorf("CameraIndex() = %d, want %d", got, DefaultCamera)
	}

	t.Setenv(EnvCamera, "2")
	if got := CameraIndex(); got != 2 {
		t.Errorf("CameraIndex() = %d, want 2", got)
	}

	t.Setenv(EnvCamera, "usb")
	if got := CameraIndex(); got != DefaultCamera {
		t.Errorf("CameraIndex() with bad value = %d, want default", got)
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", DefaultInterval},
		{"30s", 30 * time.Second},
		{"1m", time.Minute},
		{"2.5", 2500 * time.Millisecond},
		{"soon", DefaultInterval},
	}
	for _, tt := range tests {
		t.Setenv(EnvInterval, tt.value)
		if got := Interval(); got != tt.want {
			t.Errorf("Interval() with %q = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestStringDefaults(t *testing.T) {
	t.Setenv(EnvClassifyURL, "")
	if got := ClassifyURL(); got != DefaultClassifyURL {
		t.Errorf("ClassifyURL() = %q, want %q", got, DefaultClassifyURL)
	}
	t.Setenv(EnvClassifyURL, "http://vision:5000/classify")
	if got := ClassifyURL(); got != "http://vision:5000/classify" {
		t.Errorf("ClassifyURL() = %q", got)
	}

	t.Setenv(EnvSerialPort, "")
	if got := SerialPort(); got != "" {
		t.Errorf("SerialPort() = %q, want empty", got)
	}
}

func TestBool(t *testing.T) {
	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{"", false, false},
		{"", true, true},
		{"1", false, true},
		{"true", false, true},
		{"false", true, false},
		{"maybe", true, true},
	}
	for _, tt := range tests {
		t.Setenv(EnvHeadless, tt.value)
		if got := Bool(EnvHeadless, tt.def); got != tt.want {
			t.Errorf("Bool(%q, %v) = %v, want %v", tt.value, tt.def, got, tt.want)
		}
	}
}
