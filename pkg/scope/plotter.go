package scope

import (
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"github.com/itohio/voltlog/pkg/sample"
	"github.com/itohio/voltlog/pkg/sink"
)

// DefaultUpdateInterval limits redraws to about 60 FPS.
const DefaultUpdateInterval = 16 * time.Millisecond

var _ sink.Plotter = (*Plotter)(nil)

// Target is what a Plotter draws into.
type Target interface {
	UpdateData(history []sample.Sample)
}

// Plotter feeds pipeline history to a widget on the Fyne main thread,
// skipping updates that arrive faster than the update interval.
type Plotter struct {
	target   Target
	interval time.Duration
	now      func() time.Time
	schedule func(func())

	mu         sync.Mutex
	lastUpdate time.Time
	pending    []sample.Sample
	dirty      bool
}

// NewPlotter creates a plotter for target.
func NewPlotter(target Target, interval time.Duration) *Plotter {
	if interval <= 0 {
		interval = DefaultUpdateInterval
	}
	return &Plotter{
		target:   target,
		interval: interval,
		now:      time.Now,
		schedule: fyne.Do,
	}
}

func (p *Plotter) Name() string {
	return "scope"
}

// Refresh schedules a redraw unless one happened within the update interval.
func (p *Plotter) Refresh(history []sample.Sample) error {
	p.mu.Lock()
	now := p.now()
	p.pending = history
	if now.Sub(p.lastUpdate) < p.interval {
		p.dirty = true
		p.mu.Unlock()
		return nil
	}
	p.lastUpdate = now
	p.dirty = false
	p.mu.Unlock()

	p.schedule(func() {
		p.target.UpdateData(history)
	})
	return nil
}

// Flush draws the latest history if the last refresh was skipped.
func (p *Plotter) Flush() {
	p.mu.Lock()
	if !p.dirty {
		p.mu.Unlock()
		return
	}
	history := p.pending
	p.dirty = false
	p.lastUpdate = p.now()
	p.mu.Unlock()

	p.schedule(func() {
		p.target.UpdateData(history)
	})
}
