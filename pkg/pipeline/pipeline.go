package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/itohio/voltlog/pkg/device"
	"github.com/itohio/voltlog/pkg/metrics"
	"github.com/itohio/voltlog/pkg/sample"
	"github.com/itohio/voltlog/pkg/sink"
	"github.com/itohio/voltlog/pkg/waveform"
)

// DefaultPollInterval is the wait between polls when no line is buffered.
const DefaultPollInterval = 20 * time.Millisecond

// Opener connects to the line source at the start of a run.
type Opener func(ctx context.Context) (device.LineSource, error)

// Options configures a pipeline.
type Options struct {
	Open Opener

	// Waveform is added to every reading when set. An empty table makes
	// every lookup fall back to 0.
	Waveform *waveform.Table

	// Sinks are written in order for every sample, then Plotters are
	// refreshed with the full history.
	Sinks    []sink.Sink
	Plotters []sink.Plotter

	PollInterval time.Duration
	Metrics      *metrics.Metrics

	// Now is the clock, time.Now when nil.
	Now func() time.Time
}

// Pipeline reads lines from a source, turns them into samples and fans
// every sample out to the configured sinks. A pipeline runs once.
type Pipeline struct {
	opts Options
	run  *sample.RunState

	mu    sync.RWMutex
	state State
	ran   bool

	callbacks     []func(history []sample.Sample)
	warnCallbacks []func(err error)
	cbMu          sync.RWMutex

	lastTime float64
	degraded bool
}

// New creates a pipeline.
func New(opts Options) *Pipeline {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Pipeline{
		opts:  opts,
		run:   sample.NewRunState(),
		state: NotConnected,
	}
}

// OnUpdate registers a callback invoked after every accepted sample with a
// read-only snapshot of the history. The callback should return quickly.
func (p *Pipeline) OnUpdate(callback func(history []sample.Sample)) {
	p.cbMu.Lock()
	defer p.cbMu.Unlock()
	p.callbacks = append(p.callbacks, callback)
}

// OnWarning registers a callback for recovered problems: dropped lines,
// waveform fallbacks and sink failures.
func (p *Pipeline) OnWarning(callback func(err error)) {
	p.cbMu.Lock()
	defer p.cbMu.Unlock()
	p.warnCallbacks = append(p.warnCallbacks, callback)
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// StateName returns the state as text.
func (p *Pipeline) StateName() string {
	return p.State().String()
}

// History returns a read-only snapshot of the accepted samples.
func (p *Pipeline) History() []sample.Sample {
	return p.run.History()
}

// Start returns the time acquisition started.
func (p *Pipeline) Start() time.Time {
	return p.run.Start()
}

// Run connects and processes lines until ctx is cancelled or the source is
// exhausted, which both return nil. A failed connect returns a
// *ConnectionError; a read failure stops the run with that error. The source
// is closed on every exit path. Sinks are left open for the caller.
func (p *Pipeline) Run(ctx context.Context) (err error) {
	p.mu.Lock()
	if p.ran {
		p.mu.Unlock()
		return ErrAlreadyRun
	}
	p.ran = true
	p.mu.Unlock()

	defer p.setState(Stopped)

	src, err := p.opts.Open(ctx)
	if err != nil {
		return &ConnectionError{Err: err}
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			log.Printf("warning: failed to close line source: %v", cerr)
		}
	}()

	p.run.Begin(p.opts.Now())
	p.setState(Acquiring)
	log.Printf("Acquisition started")

	for {
		if ctx.Err() != nil {
			log.Printf("Acquisition stopped after %d samples", p.run.Len())
			return nil
		}

		if !src.Available() {
			if !p.wait(ctx) {
				log.Printf("Acquisition stopped after %d samples", p.run.Len())
				return nil
			}
			continue
		}

		line, err := src.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Printf("Line source exhausted after %d samples", p.run.Len())
				return nil
			}
			return fmt.Errorf("failed to read line: %w", err)
		}

		p.process(ctx, line)
	}
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
}

// wait sleeps one poll interval. It returns false if ctx was cancelled.
func (p *Pipeline) wait(ctx context.Context) bool {
	timer := time.NewTimer(p.opts.PollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// process turns one line into a sample and dispatches it.
func (p *Pipeline) process(ctx context.Context, line []byte) {
	v, err := sample.ParseValue(line)
	if err != nil {
		p.opts.Metrics.ParseError()
		p.warn(err)
		return
	}

	// Readings never go back in time, even if the clock does
	t := p.run.Elapsed(p.opts.Now())
	if t < p.lastTime {
		t = p.lastTime
	}
	p.lastTime = t

	if p.opts.Waveform != nil {
		v += p.lookup(t)
	}

	s := sample.Sample{Time: t, Value: v}
	history := p.run.Append(s)
	p.opts.Metrics.SampleAccepted(s)

	// A sample that was accepted is written out even if the run is
	// being cancelled meanwhile
	writeCtx := context.WithoutCancel(ctx)
	for _, sk := range p.opts.Sinks {
		if err := p.write(writeCtx, sk, s); err != nil {
			p.sinkFailed(sk.Name(), err)
		}
	}
	for _, pl := range p.opts.Plotters {
		if err := p.refresh(pl, history); err != nil {
			p.sinkFailed(pl.Name(), err)
		}
	}

	p.notifyCallbacks(history)
}

// lookup returns the waveform value at t, or 0 if the table has none.
// Only the first fallback of a run is reported.
func (p *Pipeline) lookup(t float64) float64 {
	w, err := p.opts.Waveform.Lookup(t)
	if err == nil {
		return w
	}

	p.opts.Metrics.LookupError()
	if !p.degraded {
		p.degraded = true
		p.warn(fmt.Errorf("%w, using 0 from now on", err))
	}
	return 0
}

func (p *Pipeline) write(ctx context.Context, sk sink.Sink, s sample.Sample) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return sk.Write(ctx, s)
}

func (p *Pipeline) refresh(pl sink.Plotter, history []sample.Sample) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return pl.Refresh(history)
}

func (p *Pipeline) sinkFailed(name string, err error) {
	p.opts.Metrics.SinkError(name)
	p.warn(&SinkError{Sink: name, Err: err})
}

// warn logs a recovered problem and passes it to the warning callbacks.
func (p *Pipeline) warn(err error) {
	log.Printf("warning: %v", err)

	p.cbMu.RLock()
	callbacks := make([]func(error), len(p.warnCallbacks))
	copy(callbacks, p.warnCallbacks)
	p.cbMu.RUnlock()

	for _, cb := range callbacks {
		cb(err)
	}
}

// notifyCallbacks invokes the update callbacks without holding any locks.
func (p *Pipeline) notifyCallbacks(history []sample.Sample) {
	p.cbMu.RLock()
	callbacks := make([]func([]sample.Sample), len(p.callbacks))
	copy(callbacks, p.callbacks)
	p.cbMu.RUnlock()

	for _, cb := range callbacks {
		cb(history)
	}
}
