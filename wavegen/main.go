package main

import (
	"flag"
	"log"

	"github.com/itohio/voltlog/pkg/config"
	"github.com/itohio/voltlog/pkg/waveform"
)

func main() {
	var (
		configFlag    = flag.String("config", "config.yaml", "Configuration file path")
		outFlag       = flag.String("o", "waveform.csv", "Output file")
		amplitudeFlag = flag.Float64("amplitude", 0, "Peak amplitude in volts (0 uses config)")
		pointsFlag    = flag.Int("points", 0, "Number of points (0 uses config)")
		stepFlag      = flag.Duration("step", 0, "Time between points (0 uses config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	amplitude := cfg.Waveform.Amplitude
	if *amplitudeFlag != 0 {
		amplitude = *amplitudeFlag
	}
	points := cfg.Waveform.Points
	if *pointsFlag > 0 {
		points = *pointsFlag
	}
	step := cfg.Waveform.Step
	if *stepFlag > 0 {
		step = *stepFlag
	}

	if err := waveform.WriteFile(*outFlag, waveform.Generate(amplitude, points, step)); err != nil {
		log.Fatalf("Failed to write waveform: %v", err)
	}
	log.Printf("Waveform saved to %s: %d points, %.1fV peak, %s step", *outFlag, points, amplitude, step)
}
