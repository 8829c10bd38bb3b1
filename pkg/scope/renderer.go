package scope

import (
	"image/color"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"github.com/Portovedo/Depassivation/pkg/record"
)

var (
	colorGrid       = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	colorLabel      = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	colorVoltage    = color.RGBA{R: 255, G: 165, B: 0, A: 255}   // orange
	colorResistance = color.RGBA{R: 100, G: 200, B: 255, A: 255} // light blue
	colorThreshold  = color.RGBA{R: 220, G: 60, B: 60, A: 255}
)

// chartRenderer renders the strip chart.
type chartRenderer struct {
	chart *Widget

	bg      *canvas.Rectangle
	objects []fyne.CanvasObject

	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *chartRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *chartRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		// Redraw the curves for the new dimensions.
		r.chart.BaseWidget.Refresh()
	}
}

// Refresh rebuilds the canvas objects from the current data.
func (r *chartRenderer) Refresh() {
	r.chart.mu.RLock()
	points := r.chart.points
	threshold := r.chart.threshold
	vMin, vMax := r.chart.vMin, r.chart.vMax
	rMin, rMax := r.chart.rMin, r.chart.rMax
	xMax := r.chart.xMax
	r.chart.mu.RUnlock()

	size := r.chart.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	// Rebuild everything but the background.
	r.objects = []fyne.CanvasObject{r.bg}

	const (
		marginLeft   = float32(60)
		marginRight  = float32(60)
		marginTop    = float32(20)
		marginBottom = float32(40)
	)
	plotX := marginLeft
	plotY := marginTop
	plotWidth := size.Width - marginLeft - marginRight
	plotHeight := size.Height - marginTop - marginBottom

	r.drawGrid(plotX, plotY, plotWidth, plotHeight, vMin, vMax, rMin, rMax, xMax)

	if threshold > 0 {
		y := plotY + plotHeight - float32((threshold-vMin)/(vMax-vMin))*plotHeight
		line := canvas.NewLine(colorThreshold)
		line.Position1 = fyne.NewPos(plotX, y)
		line.Position2 = fyne.NewPos(plotX+plotWidth, y)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)
	}

	if len(points) > 1 {
		r.drawCurve(plotX, plotY, plotWidth, plotHeight, points, xMax, vMin, vMax,
			func(p record.Point) float64 { return p.Voltage }, colorVoltage, 1.5)
		r.drawCurve(plotX, plotY, plotWidth, plotHeight, points, xMax, rMin, rMax,
			func(p record.Point) float64 { return p.ResistanceOhm }, colorResistance, 2.5)
	}
}

// drawGrid draws the oscilloscope-style grid with voltage labels on the
// left axis and resistance labels on the right.
func (r *chartRenderer) drawGrid(plotX, plotY, plotWidth, plotHeight float32, vMin, vMax, rMin, rMax float64, xMax time.Duration) {
	numHLines := 8
	for i := range numHLines + 1 {
		y := plotY + float32(i)*plotHeight/float32(numHLines)
		line := canvas.NewLine(colorGrid)
		line.Position1 = fyne.NewPos(plotX, y)
		line.Position2 = fyne.NewPos(plotX+plotWidth, y)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		v := vMax - float64(i)*(vMax-vMin)/float64(numHLines)
		left := canvas.NewText(strconv.FormatFloat(v, 'f', 2, 64)+"V", colorLabel)
		left.TextSize = 10
		left.Alignment = fyne.TextAlignTrailing
		left.Move(fyne.NewPos(plotX-5, y-6))
		r.objects = append(r.objects, left)

		res := rMax - float64(i)*(rMax-rMin)/float64(numHLines)
		right := canvas.NewText(strconv.FormatFloat(res, 'f', 1, 64)+"Ω", colorLabel)
		right.TextSize = 10
		right.Alignment = fyne.TextAlignLeading
		right.Move(fyne.NewPos(plotX+plotWidth+5, y-6))
		r.objects = append(r.objects, right)
	}

	numVLines := 10
	for i := range numVLines + 1 {
		x := plotX + float32(i)*plotWidth/float32(numVLines)
		line := canvas.NewLine(colorGrid)
		line.Position1 = fyne.NewPos(x, plotY)
		line.Position2 = fyne.NewPos(x, plotY+plotHeight)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		sec := float64(i) * xMax.Seconds() / float64(numVLines)
		text := canvas.NewText(strconv.FormatFloat(sec, 'f', 1, 64)+"s", colorLabel)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, plotY+plotHeight+5))
		r.objects = append(r.objects, text)
	}
}

// drawCurve draws one measurement channel as connected line segments.
func (r *chartRenderer) drawCurve(plotX, plotY, plotWidth, plotHeight float32, points []record.Point, xMax time.Duration, yMin, yMax float64, value func(record.Point) float64, col color.Color, stroke float32) {
	prev := fyne.Position{}
	for i, p := range points {
		x := plotX + float32(p.Elapsed.Seconds()/xMax.Seconds())*plotWidth
		y := plotY + plotHeight - float32((value(p)-yMin)/(yMax-yMin))*plotHeight
		pos := fyne.NewPos(x, y)
		if i > 0 {
			line := canvas.NewLine(col)
			line.Position1 = prev
			line.Position2 = pos
			line.StrokeWidth = stroke
			r.objects = append(r.objects, line)
		}
		prev = pos
	}
}

// Objects returns all canvas objects for rendering.
func (r *chartRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *chartRenderer) Destroy() {}
