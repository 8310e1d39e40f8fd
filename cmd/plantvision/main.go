// Plant Vision - webcam plant classifier with live overlay
// Captures a frame every interval, sends it to the classification service
// and draws the result on the preview. Press 'q' to quit, 'c' to classify now.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/teslashibe/go-plantvision/internal/config"
	"github.com/teslashibe/go-plantvision/internal/log"
	"github.com/teslashibe/go-plantvision/pkg/camera"
	"github.com/teslashibe/go-plantvision/pkg/capture"
	"github.com/teslashibe/go-plantvision/pkg/plantvision"
)

func main() {
	cfg, level, err := parseFlags(flag.CommandLine, os.Args[1:])
	log.Init(level)
	if err != nil {
		log.Error("invalid flags", "error", err)
		os.Exit(2)
	}

	app, err := plantvision.New(cfg, plantvision.WithLogger(log.L()))
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Init(ctx); err != nil {
		log.Error("initialization failed", "error", err)
		os.Exit(1)
	}
	defer app.Shutdown()

	if h := app.Headless(); h != nil {
		go readKeys(h)
	}

	if err := app.Run(ctx); err != nil {
		log.Error("capture stopped", "error", err)
		app.Shutdown()
		os.Exit(1)
	}
}

// parseFlags parses command line flags on top of environment defaults.
// It does not log; the logger is initialized from its result.
func parseFlags(fs *flag.FlagSet, args []string) (plantvision.Config, string, error) {
	cfg := plantvision.DefaultConfig()
	cfg.LoadEnvConfig()

	level := fs.String("log-level", config.LogLevel(), "Log level: debug, info, warn, error")
	fs.IntVar(&cfg.Capture.CameraIndex, "camera", cfg.Capture.CameraIndex, "Camera index")
	fs.IntVar(&cfg.Capture.FallbackIndex, "fallback-camera", cfg.Capture.FallbackIndex, "Camera index tried when -camera fails (-1 disables)")
	fs.DurationVar(&cfg.Capture.Interval, "interval", cfg.Capture.Interval, "Time between automatic classifications")
	fs.DurationVar(&cfg.Capture.RequestTimeout, "timeout", cfg.Capture.RequestTimeout, "Classification request timeout")
	fs.StringVar(&cfg.Capture.SnapshotPath, "snapshot", cfg.Capture.SnapshotPath, "File overwritten with each classified frame (empty disables)")
	fs.StringVar(&cfg.ClassifyURL, "url", cfg.ClassifyURL, "Classification service endpoint")
	fs.BoolVar(&cfg.Headless, "headless", cfg.Headless, "Run without a preview window; read q/c from stdin")
	preset := fs.String("resolution", camera.PresetDefault, "Capture preset: "+strings.Join(camera.PresetNames(), ", "))
	quality := fs.Int("quality", cfg.Camera.Quality, "JPEG quality 1-100")
	fs.StringVar(&cfg.DashboardPort, "dashboard", cfg.DashboardPort, "Dashboard port (empty disables)")
	fs.StringVar(&cfg.StaticDir, "static", cfg.StaticDir, "Dashboard static assets directory")
	fs.StringVar(&cfg.SerialPort, "serial", cfg.SerialPort, "Actuator serial port (empty disables)")
	fs.IntVar(&cfg.BaudRate, "baud", cfg.BaudRate, "Actuator baud rate")
	fs.Float64Var(&cfg.PotDiameter, "pot", cfg.PotDiameter, "Pot diameter in cm for watering estimates")
	if err := fs.Parse(args); err != nil {
		return cfg, *level, err
	}

	p := camera.GetPreset(*preset)
	if p == nil {
		return cfg, *level, fmt.Errorf("unknown resolution preset %q (want one of %s)",
			*preset, strings.Join(camera.PresetNames(), ", "))
	}
	cfg.Camera = *p
	cfg.Camera.Quality = *quality
	return cfg, *level, nil
}

// readKeys forwards stdin lines as key presses in headless mode.
func readKeys(h *capture.Headless) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.TrimSpace(strings.ToLower(sc.Text()))
		if line == "" {
			continue
		}
		switch key := int(line[0]); key {
		case capture.KeyQuit, capture.KeyClassify:
			log.Debug("key pressed", "key", string(rune(key)))
			h.Press(key)
		default:
			log.Warn("unknown key", "key", line)
		}
	}
}
