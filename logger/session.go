package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/itohio/voltlog/pkg/config"
	"github.com/itohio/voltlog/pkg/device"
	"github.com/itohio/voltlog/pkg/metrics"
	"github.com/itohio/voltlog/pkg/pipeline"
	"github.com/itohio/voltlog/pkg/sample"
	"github.com/itohio/voltlog/pkg/sink"
	"github.com/itohio/voltlog/pkg/waveform"
)

// sourceMode selects where lines come from.
type sourceMode struct {
	mock   bool
	replay string // Replay file, empty reads the serial port
}

// session is one acquisition run: the pipeline and the sinks it writes to.
type session struct {
	pipeline *pipeline.Pipeline
	sinks    []sink.Sink
	png      *sink.PNGPlot
	closed   bool
}

// sessionOptions are the parts of a session that differ between GUI and
// headless runs.
type sessionOptions struct {
	mode     sourceMode
	metrics  *metrics.Metrics
	plotters []sink.Plotter
	echo     io.Writer // Console echo, nil disables
	pushers  func(ctx context.Context, cfg *config.Config) (sink.Pusher, error)
}

// newSession creates the sinks and the pipeline for one run.
func newSession(ctx context.Context, cfg *config.Config, opts sessionOptions) (_ *session, err error) {
	s := &session{}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	table := loadWaveform(cfg.Waveform.File)

	csvLog, err := sink.NewCSV(cfg.Log.File)
	if err != nil {
		return nil, err
	}
	s.sinks = append(s.sinks, csvLog)

	if cfg.Log.SQLite != "" {
		db, err := sink.NewSQLite(cfg.Log.SQLite, time.Now().Unix())
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite log: %w", err)
		}
		s.sinks = append(s.sinks, db)
	}

	if cfg.Remote.Enabled {
		remote, err := newRemoteSink(ctx, cfg, opts)
		if err != nil {
			return nil, err
		}
		s.sinks = append(s.sinks, remote)
	}

	if opts.echo != nil {
		s.sinks = append(s.sinks, &echoSink{w: opts.echo})
	}

	plotters := append([]sink.Plotter(nil), opts.plotters...)
	if cfg.Plot.File != "" {
		s.png = sink.NewPNGPlot(cfg.Plot.File, cfg.Plot.RefreshInterval, cfg.Plot.MaxPoints, cfg.Plot.WindowSeconds)
		plotters = append(plotters, s.png)
	}

	s.pipeline = pipeline.New(pipeline.Options{
		Open:         newOpener(cfg, opts.mode),
		Waveform:     table,
		Sinks:        s.sinks,
		Plotters:     plotters,
		PollInterval: cfg.Acquisition.PollInterval,
		Metrics:      opts.metrics,
	})

	return s, nil
}

// Run runs the pipeline until ctx is cancelled.
func (s *session) Run(ctx context.Context) error {
	return s.pipeline.Run(ctx)
}

// Close closes every sink and writes the final plot.
func (s *session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	closers := make([]io.Closer, 0, len(s.sinks)+1)
	for _, sk := range s.sinks {
		closers = append(closers, sk)
	}
	if s.png != nil {
		closers = append(closers, s.png)
	}
	return sink.CloseAll(closers...)
}

// loadWaveform loads the waveform table. A table that cannot be read still
// enables mixing, with every lookup falling back to 0.
func loadWaveform(filename string) *waveform.Table {
	if filename == "" {
		return nil
	}
	table, err := waveform.Load(filename)
	if err != nil {
		log.Printf("warning: failed to load waveform %s, using 0: %v", filename, err)
		return &waveform.Table{}
	}
	log.Printf("Loaded waveform %s with %d points", filename, table.Len())
	return table
}

func newRemoteSink(ctx context.Context, cfg *config.Config, opts sessionOptions) (sink.Sink, error) {
	newPusher := opts.pushers
	if newPusher == nil {
		newPusher = firebasePusher
	}
	pusher, err := newPusher(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var remote sink.Sink = sink.NewRemote(pusher, cfg.RemotePath(), cfg.Remote.Timeout)
	if cfg.Remote.QueueSize == 0 {
		return remote, nil
	}

	async := sink.NewAsync(remote, cfg.Remote.QueueSize, cfg.Remote.Retries)
	async.OnDrop = func(s sample.Sample, err error) {
		opts.metrics.Dropped(remote.Name())
		log.Printf("warning: %s: dropped sample at %.3fs: %v", remote.Name(), s.Time, err)
	}
	return async, nil
}

func firebasePusher(ctx context.Context, cfg *config.Config) (sink.Pusher, error) {
	return sink.NewFirebasePusher(ctx, cfg.Remote.DatabaseURL, cfg.Remote.CredentialsPath())
}

// newOpener returns the line source factory for the selected mode.
func newOpener(cfg *config.Config, mode sourceMode) pipeline.Opener {
	return func(ctx context.Context) (device.LineSource, error) {
		switch {
		case mode.replay != "":
			log.Printf("Replaying %s", mode.replay)
			return device.ReadLinesFile(mode.replay)

		case mode.mock:
			dev := device.NewMock(&cfg.Mock)
			if err := dev.Connect(); err != nil {
				return nil, fmt.Errorf("failed to connect to mocked device: %w", err)
			}
			log.Printf("Using mocked device")
			return dev, nil

		default:
			port := cfg.Serial.Port
			if port == "" || cfg.Serial.Autodetect {
				detected, err := device.Autodetect()
				if err != nil {
					return nil, err
				}
				port = detected
			}

			dev := device.New(port, cfg.Serial.BaudRate, device.DefaultBufferSize)
			if err := dev.Connect(); err != nil {
				return nil, err
			}
			log.Printf("Connected to serial port: %s at %d baud", port, cfg.Serial.BaudRate)
			return dev, nil
		}
	}
}

// echoSink prints every sample to the console.
type echoSink struct {
	w io.Writer
}

func (e *echoSink) Name() string {
	return "echo"
}

func (e *echoSink) Write(_ context.Context, s sample.Sample) error {
	_, err := fmt.Fprintf(e.w, "Time: %.2fs, Voltage: %.2fV\n", s.Time, s.Value)
	return err
}

func (e *echoSink) Close() error {
	return nil
}
