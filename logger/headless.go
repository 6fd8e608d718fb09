package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/voltlog/pkg/config"
	"github.com/itohio/voltlog/pkg/metrics"
)

// runHeadless acquires until Ctrl-C, echoing every sample to the console.
func runHeadless(cfg *config.Config, mode sourceMode, m *metrics.Metrics) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var echo io.Writer
	if cfg.Acquisition.Echo {
		echo = os.Stdout
	}

	s, err := newSession(ctx, cfg, sessionOptions{
		mode:    mode,
		metrics: m,
		echo:    echo,
	})
	if err != nil {
		return err
	}

	startStatusServer(ctx, cfg.Metrics.Address, m, func() metrics.Source {
		return s.pipeline
	})

	log.Printf("Logging to %s, press Ctrl-C to stop", cfg.Log.File)
	runErr := s.Run(ctx)
	if err := s.Close(); err != nil {
		log.Printf("warning: failed to close sinks: %v", err)
	}
	if runErr != nil {
		return runErr
	}

	log.Printf("Data logging stopped, %d samples saved to %s", len(s.pipeline.History()), cfg.Log.File)
	if cfg.Plot.File != "" {
		log.Printf("Final plot saved to %s", cfg.Plot.File)
	}
	return nil
}
