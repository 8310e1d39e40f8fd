package main

import (
	"flag"
	"io"
	"testing"
	"time"

	"github.com/teslashibe/go-plantvision/internal/config"
	"github.com/teslashibe/go-plantvision/pkg/camera"
)

func testFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("plantvision", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParseFlagsHeadlessFromEnv(t *testing.T) {
	t.Setenv(config.EnvHeadless, "true")

	cfg, _, err := parseFlags(testFlagSet(), nil)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if !cfg.Headless {
		t.Error("Headless = false, want true from environment")
	}

	cfg, _, err = parseFlags(testFlagSet(), []string{"-headless=false"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Headless {
		t.Error("Headless = true, want the flag to override the environment")
	}
}

func TestParseFlagsOverrideEnv(t *testing.T) {
	t.Setenv(config.EnvInterval, "30s")
	t.Setenv(config.EnvCamera, "2")

	cfg, level, err := parseFlags(testFlagSet(), []string{"-camera", "3", "-log-level", "debug"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Capture.CameraIndex != 3 {
		t.Errorf("CameraIndex = %d, want 3", cfg.Capture.CameraIndex)
	}
	if cfg.Capture.Interval != 30*time.Second {
		t.Errorf("Interval = %v, want 30s from environment", cfg.Capture.Interval)
	}
	if level != "debug" {
		t.Errorf("level = %q, want debug", level)
	}
}

func TestParseFlagsResolution(t *testing.T) {
	cfg, _, err := parseFlags(testFlagSet(), []string{"-resolution", camera.Preset720p, "-quality", "75"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Camera.Width != 1280 || cfg.Camera.Height != 720 || cfg.Camera.Quality != 75 {
		t.Errorf("camera = %+v, want 1280x720 q75", cfg.Camera)
	}

	_, level, err := parseFlags(testFlagSet(), []string{"-resolution", "8k", "-log-level", "warn"})
	if err == nil {
		t.Error("unknown preset should be an error")
	}
	if level != "warn" {
		t.Errorf("level = %q, want warn even on error", level)
	}
}
