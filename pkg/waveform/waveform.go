package waveform

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Header is the column header shared by waveform tables and sample logs.
var Header = []string{"Time (s)", "Voltage (V)"}

// ErrEmpty is returned by Lookup on a table without points.
var ErrEmpty = errors.New("waveform table is empty")

// Point is one (time, value) pair of a waveform table.
type Point struct {
	Time  float64 // Seconds
	Value float64 // Voltage (V)
}

// LookupError reports a query the table cannot answer. Callers substitute 0.
type LookupError struct {
	Time float64
	Max  float64
	Err  error
}

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("waveform lookup at %.3fs: %v", e.Time, e.Err)
	}
	return fmt.Sprintf("waveform lookup at %.3fs: beyond table end %.3fs", e.Time, e.Max)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Table is an immutable waveform sorted ascending by time.
type Table struct {
	points []Point
}

// NewTable creates a table from points that must be sorted ascending by time.
func NewTable(points []Point) (*Table, error) {
	for i := 1; i < len(points); i++ {
		if points[i].Time < points[i-1].Time {
			return nil, fmt.Errorf("point %d: time %g is before previous time %g", i, points[i].Time, points[i-1].Time)
		}
	}
	cp := make([]Point, len(points))
	copy(cp, points)
	return &Table{points: cp}, nil
}

// Len returns the number of points.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.points)
}

// Points returns a copy of the table points.
func (t *Table) Points() []Point {
	if t == nil {
		return nil
	}
	cp := make([]Point, len(t.points))
	copy(cp, t.points)
	return cp
}

// Lookup returns the value of the first point whose time is >= at.
// No interpolation is done. When no point qualifies, Lookup returns 0 and a
// *LookupError.
func (t *Table) Lookup(at float64) (float64, error) {
	if t.Len() == 0 {
		return 0, &LookupError{Time: at, Err: ErrEmpty}
	}

	i := sort.Search(len(t.points), func(i int) bool {
		return t.points[i].Time >= at
	})
	if i == len(t.points) {
		return 0, &LookupError{Time: at, Max: t.points[len(t.points)-1].Time}
	}
	return t.points[i].Value, nil
}

// Load reads a waveform table file.
func Load(filename string) (*Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open waveform file: %w", err)
	}
	defer f.Close()

	table, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read waveform file %s: %w", filename, err)
	}
	return table, nil
}

// Read parses a table with a "Time (s), Voltage (V)" header row.
func Read(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(Header)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("missing header")
		}
		return nil, fmt.Errorf("invalid header: %w", err)
	}
	for i, want := range Header {
		if strings.TrimSpace(header[i]) != want {
			return nil, fmt.Errorf("unexpected header column %d: got %q, want %q", i+1, header[i], want)
		}
	}

	var points []Point
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid row: %w", err)
		}

		line, _ := reader.FieldPos(0)
		tm, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid time: %w", line, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid voltage: %w", line, err)
		}
		points = append(points, Point{Time: tm, Value: v})
	}

	return NewTable(points)
}
