package waveform

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Lookup(t *testing.T) {
	table, err := NewTable([]Point{
		{Time: 0.0, Value: 0},
		{Time: 1.0, Value: 45},
		{Time: 2.0, Value: 0},
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		at      float64
		want    float64
		wantErr bool
	}{
		{"before first", -1, 0, false},
		{"exact first", 0, 0, false},
		{"between picks next", 0.5, 45, false},
		{"exact middle", 1.0, 45, false},
		{"just after middle", 1.0001, 0, false},
		{"exact last", 2.0, 0, false},
		{"beyond range", 2.5, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.Lookup(tt.at)
			if tt.wantErr {
				var lerr *LookupError
				require.True(t, errors.As(err, &lerr))
				assert.Equal(t, 2.0, lerr.Max)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTable_LookupDuplicateTimesPicksFirst(t *testing.T) {
	table, err := NewTable([]Point{
		{Time: 0, Value: 1},
		{Time: 1, Value: 2},
		{Time: 1, Value: 3},
	})
	require.NoError(t, err)

	got, err := table.Lookup(0.5)
	require.NoError(t, err)
	assert.Equal(t, float64(2), got)
}

func TestTable_LookupEmpty(t *testing.T) {
	var nilTable *Table
	got, err := nilTable.Lookup(1)
	assert.Equal(t, float64(0), got)
	assert.ErrorIs(t, err, ErrEmpty)

	empty, err := NewTable(nil)
	require.NoError(t, err)
	got, err = empty.Lookup(0)
	assert.Equal(t, float64(0), got)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestNewTable_RejectsUnsorted(t *testing.T) {
	_, err := NewTable([]Point{{Time: 1}, {Time: 0.5}})
	assert.Error(t, err)
}

func TestRead(t *testing.T) {
	input := "Time (s), Voltage (V)\n0,0\n0.5, 22.5\n1,45\n"
	table, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []Point{{0, 0}, {0.5, 22.5}, {1, 45}}, table.Points())
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"wrong header", "t,v\n0,1\n"},
		{"bad time", "Time (s),Voltage (V)\nx,1\n"},
		{"bad voltage", "Time (s),Voltage (V)\n0,y\n"},
		{"missing column", "Time (s),Voltage (V)\n0\n"},
		{"unsorted", "Time (s),Voltage (V)\n1,1\n0,1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestWriteRead_RoundTrip(t *testing.T) {
	points := []Point{
		{Time: 0, Value: 1.23},
		{Time: 0.020013, Value: 4.56},
		{Time: 0.1 + 0.2, Value: -0.000123},
		{Time: 1.0 / 3.0, Value: math.Pi},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, points))
	assert.True(t, strings.HasPrefix(buf.String(), "Time (s),Voltage (V)\n"))

	table, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, points, table.Points())
}

func TestWriteFile_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wave_data.csv")
	points := Generate(45, 100, 10*time.Millisecond)

	require.NoError(t, WriteFile(path, points))

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, points, table.Points())
}

func TestGenerate(t *testing.T) {
	points := Generate(45, 1000, 10*time.Millisecond)
	require.Len(t, points, 1000)

	assert.Equal(t, float64(0), points[0].Time)
	assert.Equal(t, float64(0), points[0].Value)
	assert.InDelta(t, 9.99, points[999].Time, 1e-9)

	for i, p := range points {
		assert.LessOrEqual(t, math.Abs(p.Value), 45.0)
		if i > 0 {
			assert.Greater(t, p.Time, points[i-1].Time)
		}
	}

	// sin peaks near pi/2
	peak, err := mustTable(t, points).Lookup(math.Pi / 2)
	require.NoError(t, err)
	assert.InDelta(t, 45, peak, 0.01)

	assert.Nil(t, Generate(45, 0, time.Millisecond))
}

func mustTable(t *testing.T, points []Point) *Table {
	t.Helper()
	table, err := NewTable(points)
	require.NoError(t, err)
	return table
}
