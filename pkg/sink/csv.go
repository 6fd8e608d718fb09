package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/itohio/voltlog/pkg/sample"
	"github.com/itohio/voltlog/pkg/waveform"
)

var _ Sink = (*CSV)(nil)

// CSV is the durable log. It writes the header once and flushes after every
// row, so a crash loses at most the row being written. The file can be read
// back with waveform.Load.
type CSV struct {
	mu     sync.Mutex
	out    io.WriteCloser
	w      *waveform.Writer
	closed bool
}

// NewCSV creates (or truncates) filename and writes the header.
func NewCSV(filename string) (*CSV, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	c, err := NewCSVWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return c, nil
}

// NewCSVWriter writes the header to out and logs rows to it.
func NewCSVWriter(out io.WriteCloser) (*CSV, error) {
	w, err := waveform.NewWriter(out)
	if err != nil {
		return nil, err
	}
	return &CSV{out: out, w: w}, nil
}

func (c *CSV) Name() string {
	return "csv"
}

// Write appends one row.
func (c *CSV) Write(_ context.Context, s sample.Sample) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return os.ErrClosed
	}
	if err := c.w.WriteRow(s.Time, s.Value); err != nil {
		return fmt.Errorf("failed to write log row: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (c *CSV) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.out.Close()
}
