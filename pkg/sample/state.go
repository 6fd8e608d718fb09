package sample

import (
	"sync"
	"time"
)

// RunState holds the start time and accepted samples of one acquisition run.
//
// A single goroutine appends; any goroutine may take snapshots. Snapshots
// share storage with the history, which is safe because stored samples are
// never modified and each snapshot is capped at its own length.
type RunState struct {
	mu      sync.RWMutex
	start   time.Time
	history []Sample
}

// NewRunState creates an empty run state.
func NewRunState() *RunState {
	return &RunState{
		history: make([]Sample, 0, 1024),
	}
}

// Begin fixes the acquisition start time and clears any previous history.
func (r *RunState) Begin(start time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.start = start
	r.history = r.history[:0:0]
}

// Start returns the acquisition start time.
func (r *RunState) Start() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.start
}

// Elapsed returns the seconds between the start time and now.
func (r *RunState) Elapsed(now time.Time) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d := now.Sub(r.start)
	if d < 0 {
		d = 0
	}
	return d.Seconds()
}

// Append adds a sample and returns the history including it.
func (r *RunState) Append(s Sample) []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, s)
	return r.history[:len(r.history):len(r.history)]
}

// History returns a read-only snapshot of the accepted samples.
func (r *RunState) History() []Sample {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.history[:len(r.history):len(r.history)]
}

// Len returns the number of accepted samples.
func (r *RunState) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.history)
}
