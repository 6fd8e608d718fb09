package waveform

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"
)

// Writer writes rows in the table format read by Read. Values use the
// shortest representation that parses back to the same float64.
type Writer struct {
	w *csv.Writer
}

// NewWriter writes the header to w and returns a row writer.
func NewWriter(w io.Writer) (*Writer, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return &Writer{w: cw}, nil
}

// WriteRow appends one row and flushes it.
func (w *Writer) WriteRow(t, v float64) error {
	record := []string{
		strconv.FormatFloat(t, 'g', -1, 64),
		strconv.FormatFloat(v, 'g', -1, 64),
	}
	if err := w.w.Write(record); err != nil {
		return err
	}
	w.w.Flush()
	return w.w.Error()
}

// Generate samples amplitude*sin(t) at a fixed step, starting at t=0.
func Generate(amplitude float64, points int, step time.Duration) []Point {
	if points <= 0 {
		return nil
	}
	result := make([]Point, points)
	dt := step.Seconds()
	for i := 0; i < points; i++ {
		tm := float64(i) * dt
		result[i] = Point{Time: tm, Value: amplitude * math.Sin(tm)}
	}
	return result
}

// Write writes points as a table to w.
func Write(w io.Writer, points []Point) error {
	tw, err := NewWriter(w)
	if err != nil {
		return err
	}
	for i, p := range points {
		if err := tw.WriteRow(p.Time, p.Value); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	return nil
}

// WriteFile writes points to filename, truncating any existing file.
func WriteFile(filename string, points []Point) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create waveform file: %w", err)
	}
	if err := Write(f, points); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
