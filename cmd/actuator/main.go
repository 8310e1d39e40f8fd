// actuator is an interactive console for the irrigation board.
// Type 1 to switch the relay on, 0 to switch it off, H to read humidity.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/teslashibe/go-plantvision/internal/config"
	"github.com/teslashibe/go-plantvision/internal/log"
	"github.com/teslashibe/go-plantvision/pkg/actuator"
)

func main() {
	port := flag.String("port", config.SerialPort(), "Serial port, e.g. /dev/ttyUSB0")
	baud := flag.Int("baud", config.BaudRate(), "Baud rate")
	level := flag.String("log-level", config.LogLevel(), "Log level: debug, info, warn, error")
	flag.Parse()

	log.Init(*level)
	logger := log.Component("console")

	cfg := actuator.DefaultConfig(*port)
	cfg.BaudRate = *baud
	link, err := actuator.Open(cfg)
	if err != nil {
		logger.Error("open actuator", "port", *port, "error", err)
		os.Exit(1)
	}
	defer link.Close()

	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("1 = on, 0 = off, H = humidity, q = quit: ")
		if !in.Scan() {
			return
		}
		line := strings.TrimSpace(in.Text())
		if line == "q" || line == "quit" {
			return
		}

		cmd, err := actuator.ParseCommand(line)
		if err != nil {
			fmt.Println("invalid command:", line)
			continue
		}

		if cmd == actuator.CmdHumidity {
			r, err := link.Humidity()
			if err != nil {
				logger.Warn("humidity read failed", "error", err)
				continue
			}
			fmt.Printf("humidity: %.1f%% (raw: %s)\n", r.Value, r.Raw)
			continue
		}

		if err := link.SendCommand(cmd); err != nil {
			logger.Error("send failed", "error", err)
			continue
		}
		fmt.Printf("sent: %c\n", cmd)

		lines, err := link.Drain()
		if err != nil {
			logger.Warn("read failed", "error", err)
		}
		for _, l := range lines {
			fmt.Println("board:", l)
		}
	}
}
