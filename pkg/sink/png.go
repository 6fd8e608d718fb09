package sink

import (
	"fmt"
	"image/color"
	"os"
	"sync"
	"time"

	"github.com/itohio/voltlog/pkg/sample"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var _ Plotter = (*PNGPlot)(nil)

// PNGPlot renders the live plot to an image file for headless runs.
type PNGPlot struct {
	path      string
	interval  time.Duration
	maxPoints int
	window    float64

	Width  vg.Length
	Height vg.Length

	mu      sync.Mutex
	now     func() time.Time
	last    time.Time
	latest  []sample.Sample
	buf     []sample.Sample
	renders int
}

// NewPNGPlot creates a plotter writing to path at most once per interval.
// maxPoints limits the drawn points; window is the minimum visible span in
// seconds.
func NewPNGPlot(path string, interval time.Duration, maxPoints int, window float64) *PNGPlot {
	return &PNGPlot{
		path:      path,
		interval:  interval,
		maxPoints: maxPoints,
		window:    window,
		Width:     8 * vg.Inch,
		Height:    4 * vg.Inch,
		now:       time.Now,
	}
}

func (p *PNGPlot) Name() string {
	return "png"
}

// Refresh records history and redraws if the refresh interval has passed.
func (p *PNGPlot) Refresh(history []sample.Sample) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.latest = history
	now := p.now()
	if !p.last.IsZero() && now.Sub(p.last) < p.interval {
		return nil
	}
	p.last = now
	return p.render()
}

// Renders returns how many times the file was written.
func (p *PNGPlot) Renders() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.renders
}

// Close draws the final state of the run.
func (p *PNGPlot) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.latest == nil {
		return nil
	}
	return p.render()
}

func (p *PNGPlot) render() error {
	p.buf = sample.DownsampleSamples(p.buf, p.latest, p.maxPoints)

	plt := plot.New()
	plt.Title.Text = "Voltage"
	plt.X.Label.Text = "Time (s)"
	plt.Y.Label.Text = "Voltage (V)"
	plt.Add(plotter.NewGrid())

	if len(p.buf) > 0 {
		xys := make(plotter.XYs, len(p.buf))
		for i, s := range p.buf {
			xys[i].X = s.Time
			xys[i].Y = s.Value
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("failed to build plot line: %w", err)
		}
		line.Color = color.RGBA{R: 0, G: 102, B: 204, A: 255}
		plt.Add(line)
	}

	if tMin, tMax, _, _, ok := sample.Bounds(p.buf); ok && tMax-tMin < p.window {
		plt.X.Min = tMin
		plt.X.Max = tMin + p.window
	}

	if err := savePlot(plt, p.Width, p.Height, p.path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", p.path, err)
	}
	p.renders++
	return nil
}

func savePlot(plt *plot.Plot, width, height vg.Length, path string) (err error) {
	w, err := plt.WriterTo(width, height, "png")
	if err != nil {
		return err
	}
	output, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = combineErrors(err, output.Close())
	}()
	_, err = w.WriteTo(output)
	return err
}
