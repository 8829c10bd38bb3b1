package fixture

import "time"

// Config carries the controller's tunable timing. Zero fields fall back to
// the defaults below.
type Config struct {
	// DefaultTestDuration is the test length used when the physical start
	// button begins a test (the host supplies an explicit duration).
	DefaultTestDuration time.Duration
	// FinishDwell is how long the controller lingers in FINISHING before
	// declaring success.
	FinishDwell time.Duration
	// ResultDwell is how long SUCCESS/FAILED are displayed before the
	// fixture returns to IDLE.
	ResultDwell time.Duration
}

const (
	DefaultTestDuration = 60 * time.Second
	DefaultFinishDwell  = 1000 * time.Millisecond
	DefaultResultDwell  = 3000 * time.Millisecond
)

func (c *Config) ensureDefaults() {
	if c.DefaultTestDuration <= 0 {
		c.DefaultTestDuration = DefaultTestDuration
	}
	if c.FinishDwell <= 0 {
		c.FinishDwell = DefaultFinishDwell
	}
	if c.ResultDwell <= 0 {
		c.ResultDwell = DefaultResultDwell
	}
}

// testSession holds the timing of one running test. It is valid only while
// the state is TEST_RUNNING or FINISHING.
type testSession struct {
	start      time.Time
	duration   time.Duration
	lastSample time.Time
}

// Controller is the test-lifecycle state machine. It owns the current state
// and all phase timers, and orchestrates the parser, debouncers, sampler and
// LED renderer once per Tick. All mutation happens on the single loop
// goroutine; nothing here is safe for concurrent use.
type Controller struct {
	cfg Config
	hw  Hardware

	sampler *Sampler

	startBtn   Debouncer
	abortBtn   Debouncer
	measureBtn Debouncer

	state       State
	stateChange time.Time
	session     testSession
	lastLive    time.Time
	fatal       bool
}

// New builds a Controller around the given hardware. Boot must be called
// before the first Tick.
func New(cfg Config, hw Hardware) *Controller {
	cfg.ensureDefaults()
	return &Controller{
		cfg:     cfg,
		hw:      hw,
		sampler: NewSampler(hw.Sensor, hw.Gate, hw.LoadLED, hw.Link, hw.Sleep, hw.Clock),
	}
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Fatal reports whether the controller is latched in the terminal boot
// failure state.
func (c *Controller) Fatal() bool {
	return c.fatal
}

// Boot initializes the hardware and the sensor. On sensor failure the
// controller emits a FATAL line and latches: subsequent Ticks only render
// the failure signal and process nothing else.
func (c *Controller) Boot(now time.Time) {
	c.hw.Link.WriteLine("Battery depassivation station initialized.")

	if err := c.hw.Sensor.Init(); err != nil {
		c.hw.Link.WriteLine("FATAL: Power sensor not found. Check wiring.")
		c.fatal = true
		c.enterState(StateFailed, now)
		return
	}

	c.hw.Link.WriteLine("Power sensor found. Ready.")
	c.enterState(StateIdle, now)
}

// Tick runs one iteration of the cooperative loop. Ordering is fixed:
// drain at most one pending command, poll the buttons, apply state
// timeouts, sample if due, render the LED. Only the settle delay inside a
// load-on measurement blocks.
func (c *Controller) Tick(now time.Time) {
	if c.fatal {
		c.hw.RGB.Set(RenderLED(StateFailed, now, c.stateChange))
		return
	}

	if line, ok := c.hw.Link.ReadLine(); ok {
		c.apply(ParseCommand(line), now)
	}
	c.pollButtons(now)
	c.checkTimers(now)
	c.sampleIfDue(now)
	c.hw.RGB.Set(RenderLED(c.state, now, c.stateChange))
}

// apply feeds one command into the transition table. Commands invalid for
// the current state are dropped silently; the host tracks fixture state
// itself.
func (c *Controller) apply(cmd Command, now time.Time) {
	switch cmd.Kind {
	case CmdStart:
		if c.state == StateIdle {
			c.startTest(time.Duration(cmd.DurationSec)*time.Second, now)
		}
	case CmdAbort:
		if c.state == StateTestRunning {
			c.abortTest(now)
		}
	case CmdSetMode:
		switch cmd.Mode {
		case ModeLive:
			c.setState(StateLiveView, now)
		case ModeIdle:
			if c.state == StateLiveView {
				c.setState(StateIdle, now)
			}
		}
	case CmdSetLoad:
		if c.state == StateLiveView {
			c.setLoad(cmd.LoadOn)
		}
	case CmdUnrecognized:
		// Dropped.
	}
}

// pollButtons updates the three debouncers and maps presses onto the same
// transition table the host commands use. Every press is reported to the
// host whether or not it changes state.
func (c *Controller) pollButtons(now time.Time) {
	if c.startBtn.Update(c.hw.StartButton.Get(), now) {
		c.hw.Link.WriteLine("BTN_PRESS,START")
		if c.state == StateIdle {
			c.startTest(c.cfg.DefaultTestDuration, now)
		}
	}
	if c.abortBtn.Update(c.hw.AbortButton.Get(), now) {
		c.hw.Link.WriteLine("BTN_PRESS,ABORT")
		if c.state == StateTestRunning {
			c.abortTest(now)
		}
	}
	if c.measureBtn.Update(c.hw.MeasureButton.Get(), now) {
		c.hw.Link.WriteLine("BTN_PRESS,MEASURE")
		c.setState(StateLiveView, now)
	}
}

func (c *Controller) checkTimers(now time.Time) {
	switch c.state {
	case StateTestRunning:
		if now.Sub(c.session.start) >= c.session.duration {
			c.setState(StateFinishing, now)
		}
	case StateFinishing:
		if now.Sub(c.stateChange) >= c.cfg.FinishDwell {
			c.stopLoad("Process completed successfully.")
			c.setState(StateSuccess, now)
		}
	case StateSuccess, StateFailed:
		if now.Sub(c.stateChange) >= c.cfg.ResultDwell {
			c.setState(StateIdle, now)
		}
	}
}

// sampleIfDue performs the periodic measurement. The cadence is measured
// from the previous sample time, not from loop iterations, so loop jitter
// does not accumulate.
func (c *Controller) sampleIfDue(now time.Time) {
	switch c.state {
	case StateTestRunning:
		if c.session.lastSample.IsZero() || now.Sub(c.session.lastSample) >= SampleInterval {
			c.session.lastSample = now
			c.sampler.MeasureTest(c.session.start)
		}
	case StateLiveView:
		if c.lastLive.IsZero() || now.Sub(c.lastLive) >= SampleInterval {
			c.lastLive = now
			c.sampler.MeasureLive()
		}
	}
}

func (c *Controller) startTest(duration time.Duration, now time.Time) {
	c.hw.Link.WriteLine("PROCESS_START")
	c.setState(StateTestRunning, now)
	c.session = testSession{start: now, duration: duration}
	c.hw.Link.WriteLine("Starting measurements...")
}

func (c *Controller) abortTest(now time.Time) {
	c.stopLoad("Process aborted by user.")
	c.setState(StateFailed, now)
}

// stopLoad de-energizes the load and reports the end of the process.
func (c *Controller) stopLoad(message string) {
	c.setLoad(false)
	c.hw.Link.WriteLine("Load disconnected.")
	c.hw.Link.WriteLine("PROCESS_END: " + message)
}

func (c *Controller) setLoad(on bool) {
	if on {
		c.hw.Gate.High()
		c.hw.LoadLED.High()
	} else {
		c.hw.Gate.Low()
		c.hw.LoadLED.Low()
	}
}

// setState transitions to a new state. Re-entering the current state is a
// no-op: no duplicate side effects, no timer reset.
func (c *Controller) setState(s State, now time.Time) {
	if s == c.state {
		return
	}
	c.enterState(s, now)
}

func (c *Controller) enterState(s State, now time.Time) {
	c.state = s
	c.stateChange = now

	switch s {
	case StateIdle:
		c.setLoad(false)
	case StateTestRunning, StateFinishing:
		// Load is toggled per measurement window only.
	case StateLiveView:
		// Manual control starts with the load off; the gate pin itself
		// carries the manual state from here on.
		c.setLoad(false)
		c.lastLive = time.Time{}
	case StateSuccess:
	case StateFailed:
		c.setLoad(false)
	}

	if s != StateTestRunning && s != StateFinishing {
		c.session = testSession{}
	}
}
