// Package record accumulates the measurement points of one depassivation
// run and derives its verdict and export formats.
package record

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/Portovedo/Depassivation/pkg/station"
)

// Point is one loaded measurement of the battery.
type Point struct {
	Elapsed       time.Duration `yaml:"elapsed"`
	Voltage       float64       `yaml:"voltage"` // V, loaded terminal voltage
	CurrentMA     float64       `yaml:"current_ma"`
	PowerMW       float64       `yaml:"power_mw"`
	ResistanceOhm float64       `yaml:"resistance_ohm"`
}

// PointFromReport converts a DATA report into a Point. Reports of any other
// kind return false.
func PointFromReport(r station.Report) (Point, bool) {
	if r.Kind != station.ReportData {
		return Point{}, false
	}
	return Point{
		Elapsed:       r.Elapsed,
		Voltage:       r.Voltage,
		CurrentMA:     r.CurrentMA,
		PowerMW:       r.PowerMW,
		ResistanceOhm: r.ResistanceOhm,
	}, true
}

// Run collects the points of one test run in arrival order.
type Run struct {
	Started time.Time
	points  []Point
}

// NewRun starts an empty run.
func NewRun(started time.Time) *Run {
	return &Run{Started: started}
}

// Add appends a point.
func (r *Run) Add(p Point) {
	r.points = append(r.points, p)
}

// Points returns the collected points, oldest first. The slice is shared;
// callers must not mutate it.
func (r *Run) Points() []Point {
	return r.points
}

// Len returns the number of collected points.
func (r *Run) Len() int {
	return len(r.points)
}

// Summary is the outcome of one run.
type Summary struct {
	Points        int
	Duration      time.Duration // elapsed time of the last point
	MinVoltage    float64
	MaxVoltage    float64
	MaxCurrentMA  float64
	MeanResOhm    float64
	Passed        bool
	PassThreshold float64
}

// Verdict renders the pass/fail outcome for display.
func (s Summary) Verdict() string {
	if s.Points == 0 {
		return "NO DATA"
	}
	if s.Passed {
		return "PASS"
	}
	return "FAIL"
}

// Summarize reduces the run against a pass/fail voltage threshold: the
// battery passes when every loaded sample held at least the threshold.
func (r *Run) Summarize(passFailVoltage float64) Summary {
	s := Summary{
		Points:        len(r.points),
		PassThreshold: passFailVoltage,
	}
	if len(r.points) == 0 {
		return s
	}

	s.MinVoltage = r.points[0].Voltage
	s.MaxVoltage = r.points[0].Voltage
	var resSum float64
	for _, p := range r.points {
		if p.Voltage < s.MinVoltage {
			s.MinVoltage = p.Voltage
		}
		if p.Voltage > s.MaxVoltage {
			s.MaxVoltage = p.Voltage
		}
		if p.CurrentMA > s.MaxCurrentMA {
			s.MaxCurrentMA = p.CurrentMA
		}
		resSum += p.ResistanceOhm
		if p.Elapsed > s.Duration {
			s.Duration = p.Elapsed
		}
	}
	s.MeanResOhm = resSum / float64(len(r.points))
	s.Passed = s.MinVoltage >= passFailVoltage

	return s
}

// WriteCSV writes the run as CSV with a header row, matching the column
// order of the wire protocol's DATA records.
func (r *Run) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"elapsed_ms", "voltage_v", "current_ma", "power_mw", "resistance_ohm"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	row := make([]string, 5)
	for _, p := range r.points {
		row[0] = fmt.Sprintf("%d", p.Elapsed.Milliseconds())
		row[1] = fmt.Sprintf("%.3f", p.Voltage)
		row[2] = fmt.Sprintf("%.2f", p.CurrentMA)
		row[3] = fmt.Sprintf("%.2f", p.PowerMW)
		row[4] = fmt.Sprintf("%.2f", p.ResistanceOhm)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
