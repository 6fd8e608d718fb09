package scope

import (
	"testing"
	"time"

	"github.com/itohio/voltlog/pkg/sample"
	"github.com/stretchr/testify/assert"
)

type fakeTarget struct {
	updates [][]sample.Sample
}

func (f *fakeTarget) UpdateData(history []sample.Sample) {
	f.updates = append(f.updates, history)
}

func newTestPlotter(target Target, interval time.Duration) (*Plotter, *time.Time) {
	now := time.Unix(1000, 0)
	p := NewPlotter(target, interval)
	p.now = func() time.Time { return now }
	p.schedule = func(fn func()) { fn() }
	return p, &now
}

func history(n int) []sample.Sample {
	out := make([]sample.Sample, n)
	for i := range out {
		out[i] = sample.Sample{Time: float64(i) * 0.1, Value: float64(i)}
	}
	return out
}

func TestPlotter_Throttle(t *testing.T) {
	target := &fakeTarget{}
	p, now := newTestPlotter(target, 16*time.Millisecond)
	h := history(4)

	assert.NoError(t, p.Refresh(h[:1]))
	assert.Len(t, target.updates, 1)

	*now = now.Add(5 * time.Millisecond)
	assert.NoError(t, p.Refresh(h[:2]))
	assert.Len(t, target.updates, 1, "update inside interval should be skipped")

	*now = now.Add(20 * time.Millisecond)
	assert.NoError(t, p.Refresh(h[:3]))
	assert.Len(t, target.updates, 2)
	assert.Equal(t, h[:3], target.updates[1])
}

func TestPlotter_FlushDrawsSkippedUpdate(t *testing.T) {
	target := &fakeTarget{}
	p, now := newTestPlotter(target, time.Second)
	h := history(3)

	assert.NoError(t, p.Refresh(h[:1]))
	*now = now.Add(time.Millisecond)
	assert.NoError(t, p.Refresh(h))
	assert.Len(t, target.updates, 1)

	p.Flush()
	assert.Len(t, target.updates, 2)
	assert.Equal(t, h, target.updates[1])

	p.Flush()
	assert.Len(t, target.updates, 2, "nothing pending")
}

func TestPlotter_DefaultInterval(t *testing.T) {
	p := NewPlotter(&fakeTarget{}, 0)
	assert.Equal(t, DefaultUpdateInterval, p.interval)
	assert.Equal(t, "scope", p.Name())
}

func TestAutoScale(t *testing.T) {
	tests := []struct {
		name                   string
		samples                []sample.Sample
		window                 float64
		xMin, xMax, yMin, yMax float64
	}{
		{
			name:   "empty",
			window: 10,
			xMin:   0, xMax: 10, yMin: 0, yMax: 1,
		},
		{
			name:    "short run padded to window",
			samples: []sample.Sample{{Time: 1, Value: 2}, {Time: 3, Value: 4}},
			window:  10,
			xMin:    1, xMax: 11, yMin: 1.8, yMax: 4.2,
		},
		{
			name:    "long run",
			samples: []sample.Sample{{Time: 0, Value: 0}, {Time: 30, Value: 10}},
			window:  10,
			xMin:    0, xMax: 30, yMin: -1, yMax: 11,
		},
		{
			name:    "flat line",
			samples: []sample.Sample{{Time: 0, Value: 5}, {Time: 1, Value: 5}},
			window:  0,
			xMin:    0, xMax: 10, yMin: 4.9, yMax: 5.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			xMin, xMax, yMin, yMax := autoScale(tt.samples, tt.window)
			assert.InDelta(t, tt.xMin, xMin, 1e-9)
			assert.InDelta(t, tt.xMax, xMax, 1e-9)
			assert.InDelta(t, tt.yMin, yMin, 1e-9)
			assert.InDelta(t, tt.yMax, yMax, 1e-9)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1.230V", formatVoltage(1.23))
	assert.Equal(t, "-0.500V", formatVoltage(-0.5))
	assert.Equal(t, "0.25s", formatSeconds(0.25))
	assert.Equal(t, "12.3s", formatSeconds(12.34))
}
