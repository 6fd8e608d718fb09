package sink

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/itohio/voltlog/pkg/sample"
)

var _ Sink = (*Remote)(nil)

// Record is the document pushed for every sample.
type Record struct {
	Time    float64 `json:"time"`
	Voltage float64 `json:"voltage"`
}

// Pusher appends a record as a new child under path.
type Pusher interface {
	Push(ctx context.Context, path string, rec Record) error
}

// Remote mirrors samples to a real-time database. There is no read path and
// no acknowledgement beyond the push call returning.
type Remote struct {
	pusher  Pusher
	path    string
	timeout time.Duration
}

// NewRemote creates a remote sink pushing under path. A zero timeout means
// the push is bounded only by the caller's context.
func NewRemote(p Pusher, path string, timeout time.Duration) *Remote {
	return &Remote{
		pusher:  p,
		path:    path,
		timeout: timeout,
	}
}

func (r *Remote) Name() string {
	return "remote:" + r.path
}

// Path returns the database path records are pushed under.
func (r *Remote) Path() string {
	return r.path
}

// Write pushes {time, voltage} for s.
func (r *Remote) Write(ctx context.Context, s sample.Sample) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	rec := Record{Time: s.Time, Voltage: s.Value}
	if err := r.pusher.Push(ctx, r.path, rec); err != nil {
		return fmt.Errorf("failed to push to %s: %w", r.path, err)
	}
	return nil
}

// Close closes the pusher if it holds resources.
func (r *Remote) Close() error {
	if c, ok := r.pusher.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
