package fixture

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthySensor() *stubSensor {
	return &stubSensor{busV: 3.6, shuntMV: 20, mA: 180, mW: 650}
}

func TestController_Boot(t *testing.T) {
	r := newRig(Config{}, healthySensor())

	assert.Equal(t, StateIdle, r.ctrl.State())
	assert.False(t, r.ctrl.Fatal())
	assert.True(t, r.link.contains("Power sensor found. Ready."))
	assert.False(t, r.gate.on)

	r.tick()
	assert.Equal(t, Color{G: 255}, r.rgb.last, "idle renders solid green")
}

func TestController_StartOnlyFromIdle(t *testing.T) {
	r := newRig(Config{}, healthySensor())

	r.link.push("SET_MODE,LIVE")
	r.tick()
	require.Equal(t, StateLiveView, r.ctrl.State())

	r.link.push("START,5")
	r.tick()
	assert.Equal(t, StateLiveView, r.ctrl.State(), "start is rejected outside idle")
	assert.Empty(t, r.link.withPrefix("PROCESS_START"))

	r.link.push("SET_MODE,IDLE")
	r.tick()
	require.Equal(t, StateIdle, r.ctrl.State())

	r.link.push("START,5")
	r.tick()
	assert.Equal(t, StateTestRunning, r.ctrl.State())
	assert.True(t, r.link.contains("PROCESS_START"))
}

func TestController_FullRun(t *testing.T) {
	r := newRig(Config{}, healthySensor())

	r.link.push("START,1")
	r.run(950*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, StateTestRunning, r.ctrl.State())
	assert.True(t, r.link.contains("PROCESS_START"))

	data := r.link.withPrefix("DATA,")
	assert.GreaterOrEqual(t, len(data), 9, "one sample per 100 ms")
	assert.LessOrEqual(t, len(data), 11)
	assert.False(t, r.gate.on, "load is de-energized between measurement windows")

	// Duration elapses; one extra settle second before success.
	r.run(200*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, StateFinishing, r.ctrl.State())
	assert.Empty(t, r.link.withPrefix("PROCESS_END"))

	r.run(1*time.Second, 10*time.Millisecond)
	assert.Equal(t, StateSuccess, r.ctrl.State())
	assert.True(t, r.link.contains("PROCESS_END: Process completed successfully."))
	assert.False(t, r.gate.on)

	// No further samples after the test finished.
	after := len(r.link.withPrefix("DATA,"))
	r.run(500*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, after, len(r.link.withPrefix("DATA,")))

	// Result dwell expires back to idle.
	r.run(3*time.Second, 10*time.Millisecond)
	assert.Equal(t, StateIdle, r.ctrl.State())
}

func TestController_ZeroDurationTest(t *testing.T) {
	r := newRig(Config{}, healthySensor())

	// A zero-length test is legal: its duration elapses on the starting
	// tick, before the first measurement window.
	r.link.push("START,0")
	r.tick()
	assert.Equal(t, StateFinishing, r.ctrl.State())
	assert.True(t, r.link.contains("PROCESS_START"))
	assert.Empty(t, r.link.withPrefix("DATA,"))

	r.run(1010*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, StateSuccess, r.ctrl.State())
	assert.True(t, r.link.contains("PROCESS_END: Process completed successfully."))
	assert.Empty(t, r.link.withPrefix("DATA,"), "no samples fit a zero-length test")
}

func TestController_FirstSampleImmediate(t *testing.T) {
	r := newRig(Config{}, healthySensor())

	r.link.push("START,60")
	r.tick()
	require.Len(t, r.link.withPrefix("DATA,"), 1, "first measurement happens on the starting tick")
	assert.Equal(t, []bool{false, true, false}, r.gate.history,
		"boot forces the gate low, then one measurement window")
}

func TestController_AbortCommand(t *testing.T) {
	r := newRig(Config{}, healthySensor())

	r.link.push("START,60")
	r.run(300*time.Millisecond, 10*time.Millisecond)
	require.Equal(t, StateTestRunning, r.ctrl.State())
	before := len(r.link.withPrefix("DATA,"))

	r.link.push("ABORT")
	r.tick()
	assert.Equal(t, StateFailed, r.ctrl.State(), "abort lands within the same tick")
	assert.False(t, r.gate.on)
	assert.True(t, r.link.contains("PROCESS_END: Process aborted by user."))
	assert.Equal(t, before, len(r.link.withPrefix("DATA,")), "no sample after the abort")

	r.run(3100*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, StateIdle, r.ctrl.State(), "failed dwell returns to idle")
}

func TestController_AbortIgnoredOutsideTest(t *testing.T) {
	r := newRig(Config{}, healthySensor())

	r.link.push("ABORT")
	r.tick()
	assert.Equal(t, StateIdle, r.ctrl.State())
	assert.Empty(t, r.link.withPrefix("PROCESS_END"))
}

func TestController_LiveView(t *testing.T) {
	r := newRig(Config{}, healthySensor())

	r.link.push("SET_MODE,LIVE")
	r.run(500*time.Millisecond, 10*time.Millisecond)
	require.Equal(t, StateLiveView, r.ctrl.State())

	live := r.link.withPrefix("LIVE_DATA,")
	assert.NotEmpty(t, live)
	assert.Empty(t, r.link.withPrefix("DATA,"), "live view never emits DATA")
	assert.Empty(t, r.link.withPrefix("PROCESS_"))
	assert.False(t, r.gate.on, "live sampling leaves the load alone")

	r.link.push("SET_MOSFET,1")
	r.tick()
	assert.True(t, r.gate.on, "manual load control energizes the switch")

	// Re-entering live view is a no-op; the manual load survives.
	r.link.push("SET_MODE,LIVE")
	r.tick()
	assert.True(t, r.gate.on)

	r.link.push("SET_MODE,IDLE")
	r.tick()
	assert.Equal(t, StateIdle, r.ctrl.State())
	assert.False(t, r.gate.on, "leaving live view de-energizes the load")
}

func TestController_SetLoadIgnoredOutsideLive(t *testing.T) {
	r := newRig(Config{}, healthySensor())

	r.link.push("SET_MOSFET,1")
	r.tick()
	assert.False(t, r.gate.on)
	assert.Equal(t, StateIdle, r.ctrl.State())
}

func TestController_Buttons(t *testing.T) {
	r := newRig(Config{DefaultTestDuration: 2 * time.Second}, healthySensor())

	// Start button: debounced press begins a default-duration test.
	r.start.level = true
	r.run(70*time.Millisecond, 10*time.Millisecond)
	r.start.level = false
	assert.True(t, r.link.contains("BTN_PRESS,START"))
	assert.Equal(t, StateTestRunning, r.ctrl.State())

	// Abort button ends it.
	r.run(100*time.Millisecond, 10*time.Millisecond)
	r.abort.level = true
	r.run(70*time.Millisecond, 10*time.Millisecond)
	r.abort.level = false
	assert.True(t, r.link.contains("BTN_PRESS,ABORT"))
	assert.Equal(t, StateFailed, r.ctrl.State())

	// Measure button always reports, and switches to live view once idle.
	r.run(3100*time.Millisecond, 10*time.Millisecond)
	require.Equal(t, StateIdle, r.ctrl.State())
	r.measure.level = true
	r.run(70*time.Millisecond, 10*time.Millisecond)
	r.measure.level = false
	assert.True(t, r.link.contains("BTN_PRESS,MEASURE"))
	assert.Equal(t, StateLiveView, r.ctrl.State())
}

func TestController_ButtonJitterIgnored(t *testing.T) {
	r := newRig(Config{}, healthySensor())

	// Flap the start line faster than the debounce window.
	for i := 0; i < 8; i++ {
		r.start.level = i%2 == 0
		r.tick()
	}
	r.start.level = false
	r.run(100*time.Millisecond, 10*time.Millisecond)

	assert.Empty(t, r.link.withPrefix("BTN_PRESS"))
	assert.Equal(t, StateIdle, r.ctrl.State())
}

func TestController_SensorInitFailure(t *testing.T) {
	r := newRig(Config{}, &stubSensor{initErr: errors.New("no ack")})

	assert.True(t, r.ctrl.Fatal())
	assert.Equal(t, StateFailed, r.ctrl.State())
	require.Len(t, r.link.withPrefix("FATAL:"), 1)

	// Terminal: commands are never processed again, the failure signal
	// keeps blinking, and the dwell timer never returns to idle.
	r.link.push("START,5")
	r.run(5*time.Second, 10*time.Millisecond)
	assert.Equal(t, StateFailed, r.ctrl.State())
	assert.Empty(t, r.link.withPrefix("PROCESS_START"))
	assert.Len(t, r.link.in, 1, "fatal loop does not drain commands")

	// Red square wave, phase-locked to the state change.
	sawOn := false
	sawOff := false
	probe := r.now
	for off := time.Duration(0); off < time.Second; off += 50 * time.Millisecond {
		r.ctrl.Tick(probe.Add(off))
		if r.rgb.last == (Color{R: 255}) {
			sawOn = true
		}
		if r.rgb.last == (Color{}) {
			sawOff = true
		}
	}
	assert.True(t, sawOn)
	assert.True(t, sawOff)
}

func TestController_UnrecognizedCommandDropped(t *testing.T) {
	r := newRig(Config{}, healthySensor())

	before := len(r.link.out)
	r.link.push("HELLO,WORLD", "START,abc", "")
	r.run(40*time.Millisecond, 10*time.Millisecond)

	assert.Equal(t, StateIdle, r.ctrl.State())
	assert.Equal(t, before, len(r.link.out), "malformed input produces no reply")
}
