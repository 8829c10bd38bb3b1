package fixture

import (
	"strconv"
	"time"

	"github.com/chewxy/math32"
)

const (
	// SampleInterval is the fixed measurement cadence in TEST_RUNNING and
	// LIVE_VIEW.
	SampleInterval = 100 * time.Millisecond
	// SettleDelay is the pause between energizing the load and reading the
	// sensor, so the measured voltage stabilizes under load.
	SettleDelay = 50 * time.Millisecond

	// minCurrentMA is the current magnitude below which resistance is
	// reported as zero instead of a division blow-up.
	minCurrentMA = 0.1
)

// Sampler reads the power sensor, derives load voltage / resistance, and
// formats report lines. The scratch buffer is reused across reports so the
// steady-state loop does not grow the heap.
type Sampler struct {
	sensor  PowerSensor
	gate    OutputPin
	loadLED OutputPin
	link    Link
	sleep   func(time.Duration)
	clock   func() time.Time

	buf []byte
}

// NewSampler builds a Sampler. sleep may be nil, in which case time.Sleep
// is used for the settle delay; clock may be nil, in which case time.Now
// stamps the reports.
func NewSampler(sensor PowerSensor, gate, loadLED OutputPin, link Link, sleep func(time.Duration), clock func() time.Time) *Sampler {
	if sleep == nil {
		sleep = time.Sleep
	}
	if clock == nil {
		clock = time.Now
	}
	return &Sampler{
		sensor:  sensor,
		gate:    gate,
		loadLED: loadLED,
		link:    link,
		sleep:   sleep,
		clock:   clock,
		buf:     make([]byte, 0, 64),
	}
}

type measurement struct {
	loadVoltageV  float32
	currentMA     float32
	powerMW       float32
	resistanceOhm float32
}

// MeasureTest performs one load-on measurement: energize, settle, read,
// de-energize, report. The load is only ever on for the duration of the
// measurement window. The elapsed stamp is taken once the settle delay has
// passed, so it marks the moment the reading was valid.
func (s *Sampler) MeasureTest(start time.Time) {
	s.gate.High()
	s.loadLED.High()
	s.sleep(SettleDelay)

	elapsed := s.clock().Sub(start)
	m := s.read()

	s.gate.Low()
	s.loadLED.Low()

	b := append(s.buf[:0], "DATA,"...)
	b = strconv.AppendInt(b, elapsed.Milliseconds(), 10)
	b = appendMeasurement(b, m)
	s.buf = b
	s.link.WriteLine(string(b))
}

// MeasureLive reads the sensor without touching the load switch; in live
// view the load is under manual control.
func (s *Sampler) MeasureLive() {
	m := s.read()

	b := append(s.buf[:0], "LIVE_DATA"...)
	b = appendMeasurement(b, m)
	s.buf = b
	s.link.WriteLine(string(b))
}

func (s *Sampler) read() measurement {
	bus := s.sensor.BusVoltage()
	shunt := s.sensor.ShuntVoltage()
	current := s.sensor.Current()
	power := s.sensor.Power()

	// True terminal voltage: bus reading plus the drop across the shunt.
	load := bus + shunt/1000

	var resistance float32
	if math32.Abs(current) >= minCurrentMA {
		resistance = load * 1000 / current
	}

	return measurement{
		loadVoltageV:  load,
		currentMA:     current,
		powerMW:       power,
		resistanceOhm: resistance,
	}
}

func appendMeasurement(b []byte, m measurement) []byte {
	b = append(b, ',')
	b = strconv.AppendFloat(b, float64(m.loadVoltageV), 'f', 3, 32)
	b = append(b, ',')
	b = strconv.AppendFloat(b, float64(m.currentMA), 'f', 2, 32)
	b = append(b, ',')
	b = strconv.AppendFloat(b, float64(m.powerMW), 'f', 2, 32)
	b = append(b, ',')
	b = strconv.AppendFloat(b, float64(m.resistanceOhm), 'f', 2, 32)
	return b
}
