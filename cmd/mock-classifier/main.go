// mock-classifier serves canned plant classifications on :5001 so the
// capture loop can run without the real model.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-plantvision/internal/config"
	"github.com/teslashibe/go-plantvision/internal/log"
	"github.com/teslashibe/go-plantvision/pkg/actuator"
	"github.com/teslashibe/go-plantvision/pkg/mockclassifier"
)

func main() {
	cfg := mockclassifier.DefaultConfig()

	addr := flag.String("addr", ":5001", "Listen address")
	plant := flag.String("plant", mockclassifier.DefaultPlant, "Initial plant returned by /classify")
	flag.DurationVar(&cfg.Delay, "delay", cfg.Delay, "Simulated inference latency")
	serialPort := flag.String("serial", config.SerialPort(), "Humidity sensor serial port (empty disables /humidity)")
	baud := flag.Int("baud", config.BaudRate(), "Sensor baud rate")
	level := flag.String("log-level", config.LogLevel(), "Log level: debug, info, warn, error")
	flag.Parse()

	log.Init(*level)

	if *serialPort != "" {
		lc := actuator.DefaultConfig(*serialPort)
		lc.BaudRate = *baud
		link, err := actuator.Open(lc)
		if err != nil {
			log.Warn("humidity sensor unavailable", "port", *serialPort, "error", err)
		} else {
			defer link.Close()
			cfg.Sensor = link
		}
	}

	cfg.Logger = log.L()
	srv := mockclassifier.New(cfg)
	if err := srv.SetPlant(*plant); err != nil {
		log.Error("invalid plant", "error", err, "available", mockclassifier.PlantNames())
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- srv.Listen(*addr) }()

	log.Info("endpoints",
		"classify", "POST /classify",
		"health", "GET /health",
		"humidity", "GET /humidity",
		"toggle", "POST /toggle-plant")

	select {
	case err := <-errc:
		log.Error("server stopped", "error", err)
		os.Exit(1)
	case <-ctx.Done():
		if err := srv.Shutdown(); err != nil {
			log.Warn("shutdown", "error", err)
		}
	}
}
