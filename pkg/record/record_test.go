package record

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Portovedo/Depassivation/pkg/station"
)

func TestPointFromReport(t *testing.T) {
	p, ok := PointFromReport(station.Report{
		Kind:          station.ReportData,
		Elapsed:       1500 * time.Millisecond,
		Voltage:       3.412,
		CurrentMA:     185.2,
		PowerMW:       631.9,
		ResistanceOhm: 18.42,
	})
	require.True(t, ok)
	assert.Equal(t, 1500*time.Millisecond, p.Elapsed)
	assert.Equal(t, 3.412, p.Voltage)
	assert.Equal(t, 185.2, p.CurrentMA)

	_, ok = PointFromReport(station.Report{Kind: station.ReportLiveData, Voltage: 3.6})
	assert.False(t, ok, "live view samples are not part of a run")

	_, ok = PointFromReport(station.Report{Kind: station.ReportLog, Message: "hello"})
	assert.False(t, ok)
}

func testRun() *Run {
	r := NewRun(time.Now())
	r.Add(Point{Elapsed: 0, Voltage: 3.10, CurrentMA: 170.0, PowerMW: 527.0, ResistanceOhm: 18.2})
	r.Add(Point{Elapsed: 100 * time.Millisecond, Voltage: 3.22, CurrentMA: 178.0, PowerMW: 573.2, ResistanceOhm: 18.1})
	r.Add(Point{Elapsed: 200 * time.Millisecond, Voltage: 3.35, CurrentMA: 186.0, PowerMW: 623.1, ResistanceOhm: 18.0})
	return r
}

func TestSummarize(t *testing.T) {
	r := testRun()

	s := r.Summarize(3.0)
	assert.Equal(t, 3, s.Points)
	assert.Equal(t, 200*time.Millisecond, s.Duration)
	assert.InDelta(t, 3.10, s.MinVoltage, 1e-9)
	assert.InDelta(t, 3.35, s.MaxVoltage, 1e-9)
	assert.InDelta(t, 186.0, s.MaxCurrentMA, 1e-9)
	assert.InDelta(t, 18.1, s.MeanResOhm, 1e-9)
	assert.True(t, s.Passed)
	assert.Equal(t, "PASS", s.Verdict())
}

func TestSummarize_FailsBelowThreshold(t *testing.T) {
	r := testRun()

	// The first sample dipped under the threshold; one dip fails the run.
	s := r.Summarize(3.2)
	assert.False(t, s.Passed)
	assert.Equal(t, "FAIL", s.Verdict())
}

func TestSummarize_Empty(t *testing.T) {
	r := NewRun(time.Now())

	s := r.Summarize(3.0)
	assert.Zero(t, s.Points)
	assert.False(t, s.Passed)
	assert.Equal(t, "NO DATA", s.Verdict())
}

func TestWriteCSV(t *testing.T) {
	r := testRun()

	var sb strings.Builder
	require.NoError(t, r.WriteCSV(&sb))

	want := "elapsed_ms,voltage_v,current_ma,power_mw,resistance_ohm\n" +
		"0,3.100,170.00,527.00,18.20\n" +
		"100,3.220,178.00,573.20,18.10\n" +
		"200,3.350,186.00,623.10,18.00\n"
	assert.Equal(t, want, sb.String())
}

func TestWriteCSV_EmptyRunWritesHeaderOnly(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, NewRun(time.Now()).WriteCSV(&sb))
	assert.Equal(t, "elapsed_ms,voltage_v,current_ma,power_mw,resistance_ohm\n", sb.String())
}
