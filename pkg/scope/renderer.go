package scope

import (
	"image/color"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/itohio/voltlog/pkg/sample"
)

var (
	gridColor   = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor  = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	traceColor  = color.RGBA{R: 255, G: 165, B: 0, A: 255} // Orange
	readoutText = color.RGBA{R: 200, G: 200, B: 200, A: 255}
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	// Background
	grid *canvas.Rectangle

	// Latest reading
	readout *canvas.Text

	// Objects list for Fyne
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.grid.Resize(size)

	if r.lastSize.Width != size.Width || r.lastSize.Height != size.Height {
		r.lastSize = size
		// Redraw with the new dimensions
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh rebuilds the canvas objects from the current data.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	samples := r.scope.displaySamples
	last, hasLast := r.scope.last, r.scope.hasLast
	xMin, xMax := r.scope.xMin, r.scope.xMax
	yMin, yMax := r.scope.yMin, r.scope.yMax
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	// Clear old objects (but keep background)
	r.objects = []fyne.CanvasObject{r.grid}
	r.readout = nil

	marginLeft := float32(60.0)
	marginRight := float32(20.0)
	marginTop := float32(20.0)
	marginBottom := float32(40.0)

	plot := plotArea{
		x:    marginLeft,
		y:    marginTop,
		w:    size.Width - marginLeft - marginRight,
		h:    size.Height - marginTop - marginBottom,
		xMin: xMin, xMax: xMax,
		yMin: yMin, yMax: yMax,
	}

	r.drawGrid(plot)
	if len(samples) > 1 {
		r.drawTrace(plot, samples)
	}
	if hasLast {
		r.drawReadout(plot, last)
	}
}

// plotArea maps sample coordinates to widget coordinates.
type plotArea struct {
	x, y, w, h float32
	xMin, xMax float64
	yMin, yMax float64
}

func (p plotArea) pos(t, v float64) fyne.Position {
	x := p.x + float32((t-p.xMin)/(p.xMax-p.xMin))*p.w
	y := p.y + p.h - float32((v-p.yMin)/(p.yMax-p.yMin))*p.h
	return fyne.NewPos(x, y)
}

// drawGrid draws the oscilloscope-style grid with axis labels.
func (r *scopeRenderer) drawGrid(p plotArea) {
	// Horizontal grid lines (voltage)
	numHLines := 8
	for i := 0; i < numHLines+1; i++ {
		y := p.y + float32(i)*p.h/float32(numHLines)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(p.x, y)
		line.Position2 = fyne.NewPos(p.x+p.w, y)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		value := p.yMax - float64(i)*(p.yMax-p.yMin)/float64(numHLines)
		text := canvas.NewText(formatVoltage(value), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(p.x-5, y-6))
		r.objects = append(r.objects, text)
	}

	// Vertical grid lines (time since start)
	numVLines := 10
	for i := 0; i < numVLines+1; i++ {
		x := p.x + float32(i)*p.w/float32(numVLines)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(x, p.y)
		line.Position2 = fyne.NewPos(x, p.y+p.h)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		t := p.xMin + float64(i)*(p.xMax-p.xMin)/float64(numVLines)
		text := canvas.NewText(formatSeconds(t), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, p.y+p.h+5))
		r.objects = append(r.objects, text)
	}
}

// drawTrace draws the voltage curve.
func (r *scopeRenderer) drawTrace(p plotArea, samples []sample.Sample) {
	prev := p.pos(samples[0].Time, samples[0].Value)
	for _, s := range samples[1:] {
		cur := p.pos(s.Time, s.Value)
		line := canvas.NewLine(traceColor)
		line.Position1 = prev
		line.Position2 = cur
		line.StrokeWidth = 1.5
		r.objects = append(r.objects, line)
		prev = cur
	}
}

// drawReadout shows the latest reading in the top left corner.
func (r *scopeRenderer) drawReadout(p plotArea, last sample.Sample) {
	text := canvas.NewText(formatVoltage(last.Value)+" @ "+formatSeconds(last.Time), readoutText)
	text.TextSize = 12
	text.Alignment = fyne.TextAlignLeading
	text.Move(fyne.NewPos(p.x+10, p.y+10))
	r.readout = text
	r.objects = append(r.objects, text)
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {
	// Cleanup handled by Fyne
}

func formatVoltage(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64) + "V"
}

func formatSeconds(t float64) string {
	if t < 1 {
		return strconv.FormatFloat(t, 'f', 2, 64) + "s"
	}
	return strconv.FormatFloat(t, 'f', 1, 64) + "s"
}
