package sample

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    float64
		wantErr bool
	}{
		{name: "plain", line: "1.23", want: 1.23},
		{name: "trailing CRLF", line: "4.56\r\n", want: 4.56},
		{name: "surrounding spaces", line: "  -0.5\t", want: -0.5},
		{name: "integer", line: "3", want: 3},
		{name: "exponent", line: "1e-3", want: 0.001},
		{name: "empty", line: "", wantErr: true},
		{name: "whitespace only", line: " \r\n", wantErr: true},
		{name: "text", line: "bad", wantErr: true},
		{name: "two numbers", line: "1.0,2.0", wantErr: true},
		{name: "nan", line: "NaN", wantErr: true},
		{name: "inf", line: "+Inf", wantErr: true},
		{name: "invalid utf8", line: "\xff\xfe1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValue([]byte(tt.line))
			if tt.wantErr {
				require.Error(t, err)
				var perr *ParseError
				assert.True(t, errors.As(err, &perr), "expected *ParseError, got %T", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseValue_RoundTrip(t *testing.T) {
	values := []float64{0, 1.23, -4.56, 3.3, 1e-9, 123456.789, 0.1 + 0.2}
	for _, v := range values {
		text := strconv.FormatFloat(v, 'g', -1, 64)
		got, err := ParseValue([]byte(text))
		require.NoError(t, err)
		assert.Equal(t, v, got, "round trip of %s", text)
	}
}

func TestParseError_Message(t *testing.T) {
	_, err := ParseValue([]byte("bad"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bad"`)

	var numErr *strconv.NumError
	assert.True(t, errors.As(err, &numErr))
}

func TestRunState_AppendAndHistory(t *testing.T) {
	rs := NewRunState()
	start := time.Now()
	rs.Begin(start)

	assert.Equal(t, start, rs.Start())
	assert.Equal(t, 0, rs.Len())

	h := rs.Append(Sample{Time: 0.1, Value: 1})
	require.Len(t, h, 1)
	h = rs.Append(Sample{Time: 0.2, Value: 2})
	require.Len(t, h, 2)

	snapshot := rs.History()
	assert.Equal(t, []Sample{{Time: 0.1, Value: 1}, {Time: 0.2, Value: 2}}, snapshot)

	// Appending after a snapshot must not change it
	rs.Append(Sample{Time: 0.3, Value: 3})
	assert.Len(t, snapshot, 2)
	assert.Equal(t, 3, rs.Len())

	// Appending to a snapshot must not leak into the history
	_ = append(snapshot, Sample{Time: 9, Value: 9})
	assert.Equal(t, Sample{Time: 0.3, Value: 3}, rs.History()[2])
}

func TestRunState_BeginResets(t *testing.T) {
	rs := NewRunState()
	rs.Begin(time.Now())
	rs.Append(Sample{Time: 1, Value: 1})
	old := rs.History()

	rs.Begin(time.Now())
	assert.Equal(t, 0, rs.Len())
	rs.Append(Sample{Time: 0, Value: 5})
	assert.Equal(t, float64(1), old[0].Value, "old snapshot must survive a new run")
}

func TestRunState_Elapsed(t *testing.T) {
	rs := NewRunState()
	start := time.Now()
	rs.Begin(start)

	assert.InDelta(t, 1.5, rs.Elapsed(start.Add(1500*time.Millisecond)), 1e-9)
	assert.Equal(t, float64(0), rs.Elapsed(start.Add(-time.Second)))
}
