package fixture

// Test doubles for the hardware boundary. Scripted in the style of a fake
// GPIO reader: tests queue inputs up front and inspect what the fixture did
// afterwards.

import (
	"strings"
	"time"
)

// scriptLink queues inbound command lines and records everything the
// fixture writes.
type scriptLink struct {
	in  []string
	out []string
}

func (l *scriptLink) ReadLine() (string, bool) {
	if len(l.in) == 0 {
		return "", false
	}
	line := l.in[0]
	l.in = l.in[1:]
	return line, true
}

func (l *scriptLink) WriteLine(s string) {
	l.out = append(l.out, s)
}

func (l *scriptLink) push(lines ...string) {
	l.in = append(l.in, lines...)
}

func (l *scriptLink) withPrefix(prefix string) []string {
	var out []string
	for _, s := range l.out {
		if strings.HasPrefix(s, prefix) {
			out = append(out, s)
		}
	}
	return out
}

func (l *scriptLink) contains(line string) bool {
	for _, s := range l.out {
		if s == line {
			return true
		}
	}
	return false
}

// stubSensor returns fixed readings.
type stubSensor struct {
	initErr error
	busV    float32
	shuntMV float32
	mA      float32
	mW      float32
}

func (s *stubSensor) Init() error           { return s.initErr }
func (s *stubSensor) BusVoltage() float32   { return s.busV }
func (s *stubSensor) ShuntVoltage() float32 { return s.shuntMV }
func (s *stubSensor) Current() float32      { return s.mA }
func (s *stubSensor) Power() float32        { return s.mW }

// stubPin records its level and every transition.
type stubPin struct {
	on      bool
	history []bool
}

func (p *stubPin) High() {
	p.on = true
	p.history = append(p.history, true)
}

func (p *stubPin) Low() {
	p.on = false
	p.history = append(p.history, false)
}

// stubInput is a settable digital input.
type stubInput struct {
	level bool
}

func (p *stubInput) Get() bool { return p.level }

// stubRGB keeps the most recent color.
type stubRGB struct {
	last Color
}

func (r *stubRGB) Set(c Color) { r.last = c }

// rig wires a Controller to fakes with a manually stepped clock.
type rig struct {
	ctrl    *Controller
	link    *scriptLink
	sensor  *stubSensor
	gate    *stubPin
	loadLED *stubPin
	rgb     *stubRGB
	start   *stubInput
	abort   *stubInput
	measure *stubInput
	sleeps  []time.Duration
	now     time.Time
}

func newRig(cfg Config, sensor *stubSensor) *rig {
	r := &rig{
		link:    &scriptLink{},
		sensor:  sensor,
		gate:    &stubPin{},
		loadLED: &stubPin{},
		rgb:     &stubRGB{},
		start:   &stubInput{},
		abort:   &stubInput{},
		measure: &stubInput{},
		now:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	r.ctrl = New(cfg, Hardware{
		Sensor:        sensor,
		Link:          r.link,
		Gate:          r.gate,
		LoadLED:       r.loadLED,
		RGB:           r.rgb,
		StartButton:   r.start,
		AbortButton:   r.abort,
		MeasureButton: r.measure,
		Sleep:         func(d time.Duration) { r.sleeps = append(r.sleeps, d) },
		Clock:         func() time.Time { return r.now },
	})
	r.ctrl.Boot(r.now)
	return r
}

// run advances simulated time in fixed steps, ticking the controller once
// per step.
func (r *rig) run(total, step time.Duration) {
	for elapsed := time.Duration(0); elapsed < total; elapsed += step {
		r.now = r.now.Add(step)
		r.ctrl.Tick(r.now)
	}
}

func (r *rig) tick() {
	r.run(10*time.Millisecond, 10*time.Millisecond)
}
