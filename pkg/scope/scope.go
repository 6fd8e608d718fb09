package scope

import (
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/voltlog/pkg/config"
	"github.com/itohio/voltlog/pkg/sample"
)

// ScopeWidget is a custom Fyne widget that displays the voltage history
// oscilloscope style.
type ScopeWidget struct {
	widget.BaseWidget

	cfg *config.PlotConfig

	// Data (protected by mu)
	mu      sync.RWMutex
	samples []sample.Sample
	last    sample.Sample
	hasLast bool

	// Display buffer (reused for downsampling)
	displaySamples []sample.Sample

	// Auto-scaling
	xMin, xMax float64
	yMin, yMax float64

	// Display settings
	maxDisplayPoints int
}

// New creates a new ScopeWidget instance.
func New(cfg *config.PlotConfig) *ScopeWidget {
	maxPoints := cfg.MaxPoints
	if maxPoints <= 0 {
		maxPoints = 1000
	}

	s := &ScopeWidget{
		cfg:              cfg,
		displaySamples:   make([]sample.Sample, 0, maxPoints),
		maxDisplayPoints: maxPoints,
	}
	s.xMin, s.xMax, s.yMin, s.yMax = autoScale(nil, cfg.WindowSeconds)
	s.ExtendBaseWidget(s)
	// Trigger initial refresh to display empty scope
	s.Refresh()
	return s
}

// UpdateData replaces the displayed history.
// This must be called on the Fyne main thread, see Plotter.
func (s *ScopeWidget) UpdateData(history []sample.Sample) {
	s.mu.Lock()

	s.displaySamples = sample.DownsampleSamples(s.displaySamples, history, s.maxDisplayPoints)
	s.samples = history
	if n := len(history); n > 0 {
		s.last = history[n-1]
		s.hasLast = true
	}

	s.xMin, s.xMax, s.yMin, s.yMax = autoScale(s.displaySamples, s.cfg.WindowSeconds)

	s.mu.Unlock()

	// Refresh outside the lock, the renderer takes a read lock
	s.Refresh()
}

// Clear removes all data, e.g. when a new run starts.
func (s *ScopeWidget) Clear() {
	s.UpdateData(nil)
	s.mu.Lock()
	s.hasLast = false
	s.mu.Unlock()
	s.Refresh()
}

// Len returns the number of samples in the displayed history.
func (s *ScopeWidget) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples)
}

// autoScale returns the axis ranges for samples: the time axis spans at least
// window seconds, the value axis gets a 10% margin.
func autoScale(samples []sample.Sample, window float64) (xMin, xMax, yMin, yMax float64) {
	if window <= 0 {
		window = 10
	}

	tMin, tMax, vMin, vMax, ok := sample.Bounds(samples)
	if !ok {
		return 0, window, 0, 1
	}

	span := vMax - vMin
	if span == 0 {
		span = 1.0
	}
	margin := span * 0.1
	yMin = vMin - margin
	yMax = vMax + margin

	xMin, xMax = tMin, tMax
	if xMax-xMin < window {
		xMax = xMin + window
	}
	return xMin, xMax, yMin, yMax
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	grid := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &scopeRenderer{
		scope:    s,
		grid:     grid,
		objects:  []fyne.CanvasObject{grid},
		lastSize: fyne.Size{Width: 0, Height: 0},
	}
}
