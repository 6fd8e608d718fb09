package main

import (
	"context"
	"flag"
	"log"

	"github.com/itohio/voltlog/pkg/config"
	"github.com/itohio/voltlog/pkg/metrics"
)

func main() {
	var (
		configFlag   = flag.String("config", "config.yaml", "Configuration file path")
		portFlag     = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		baudFlag     = flag.Int("b", 0, "Baud rate override")
		waveformFlag = flag.String("waveform", "", "Waveform table to add to every reading")
		mockFlag     = flag.Bool("mock", false, "Use mocked device instead of serial port")
		replayFlag   = flag.String("replay", "", "Replay lines from a capture file instead of a device")
		headlessFlag = flag.Bool("headless", false, "Run without GUI until interrupted")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Command line overrides
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *baudFlag > 0 {
		cfg.Serial.BaudRate = *baudFlag
	}
	if *waveformFlag != "" {
		cfg.Waveform.File = *waveformFlag
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	mode := sourceMode{mock: *mockFlag, replay: *replayFlag}
	m := metrics.New()

	if *headlessFlag {
		if err := runHeadless(cfg, mode, m); err != nil {
			log.Fatalf("Acquisition failed: %v", err)
		}
		return
	}

	runGUI(cfg, *configFlag, mode, m)
}

// startStatusServer serves metrics and the current history until ctx is
// cancelled. An empty address disables it.
func startStatusServer(ctx context.Context, address string, m *metrics.Metrics, current func() metrics.Source) {
	if address == "" {
		return
	}

	srv := metrics.NewServer(m, current)
	go func() {
		log.Printf("Status server listening on %s", address)
		if err := srv.Run(ctx, address); err != nil {
			log.Printf("warning: status server stopped: %v", err)
		}
	}()
}
