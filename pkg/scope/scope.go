// Package scope provides a Fyne widget that plots one depassivation run as
// an oscilloscope-style strip chart: loaded voltage against time with the
// pass/fail threshold, plus the measured load resistance on a second axis.
package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/Portovedo/Depassivation/pkg/record"
)

// minWindow keeps the time axis from collapsing when a run has just started.
const minWindow = 10 * time.Second

// Widget is a custom Fyne widget displaying the measurement curves of a run.
type Widget struct {
	widget.BaseWidget

	// Data (protected by mu)
	mu        sync.RWMutex
	points    []record.Point
	threshold float64

	// Auto-scaling
	vMin, vMax float64 // voltage axis
	rMin, rMax float64 // resistance axis
	xMax       time.Duration
}

// New creates an empty strip chart.
func New() *Widget {
	w := &Widget{}
	w.ExtendBaseWidget(w)
	w.Refresh()
	return w
}

// UpdateRun replaces the displayed data. The points slice is retained; call
// this from the UI goroutine (fyne.Do) with a snapshot the caller will not
// mutate.
func (w *Widget) UpdateRun(points []record.Point, threshold float64) {
	w.mu.Lock()
	w.points = points
	w.threshold = threshold
	w.updateAutoScale()
	w.mu.Unlock()

	// Refresh must run outside the lock.
	w.Refresh()
}

// updateAutoScale derives the axis ranges from the current data. The
// voltage axis always includes the pass/fail threshold so the line stays
// visible.
func (w *Widget) updateAutoScale() {
	if len(w.points) == 0 {
		w.vMin, w.vMax = 0.0, 4.0
		w.rMin, w.rMax = 0.0, 1.0
		w.xMax = minWindow
		return
	}

	w.vMin = w.points[0].Voltage
	w.vMax = w.points[0].Voltage
	w.rMin = w.points[0].ResistanceOhm
	w.rMax = w.points[0].ResistanceOhm
	w.xMax = w.points[len(w.points)-1].Elapsed

	for _, p := range w.points {
		if p.Voltage < w.vMin {
			w.vMin = p.Voltage
		}
		if p.Voltage > w.vMax {
			w.vMax = p.Voltage
		}
		if p.ResistanceOhm < w.rMin {
			w.rMin = p.ResistanceOhm
		}
		if p.ResistanceOhm > w.rMax {
			w.rMax = p.ResistanceOhm
		}
	}

	if w.threshold > 0 {
		if w.threshold < w.vMin {
			w.vMin = w.threshold
		}
		if w.threshold > w.vMax {
			w.vMax = w.threshold
		}
	}

	w.vMin, w.vMax = pad(w.vMin, w.vMax)
	w.rMin, w.rMax = pad(w.rMin, w.rMax)

	if w.xMax < minWindow {
		w.xMax = minWindow
	}
}

// pad widens a range by a 10% margin, keeping degenerate ranges drawable.
func pad(lo, hi float64) (float64, float64) {
	span := hi - lo
	if span == 0 {
		span = 1.0
	}
	margin := span * 0.1
	return lo - margin, hi + margin
}

// CreateRenderer creates the widget renderer.
func (w *Widget) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255})
	return &chartRenderer{
		chart:   w,
		bg:      bg,
		objects: []fyne.CanvasObject{bg},
	}
}
