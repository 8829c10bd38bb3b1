package fixture

import "time"

// PowerSensor is the telemetry sensor boundary. The fixture only ever reads
// derived electrical quantities; how they are produced (I2C registers,
// simulation, test fake) is the caller's concern.
//
// A failed read is reported as a zero value by implementations; the fixture
// does not distinguish a dead sensor from a healthy zero reading.
type PowerSensor interface {
	// Init prepares the sensor. Called once at boot; a non-nil error is
	// fatal for the fixture.
	Init() error
	BusVoltage() float32   // bus voltage in volts
	ShuntVoltage() float32 // shunt voltage drop in millivolts
	Current() float32      // current in milliamps
	Power() float32        // power in milliwatts
}

// OutputPin is a digital output. machine.Pin satisfies it.
type OutputPin interface {
	High()
	Low()
}

// InputPin is a digital input. machine.Pin satisfies it.
type InputPin interface {
	Get() bool
}

// RGB receives the status LED color once per tick.
type RGB interface {
	Set(c Color)
}

// Link is the byte-stream transport to the host, framed as lines.
// ReadLine must not block: it returns ("", false) when no complete line is
// pending. WriteLine appends the line terminator itself.
type Link interface {
	ReadLine() (string, bool)
	WriteLine(s string)
}

// Hardware bundles the collaborators a Controller drives. All fields are
// required except Sleep, which defaults to time.Sleep.
type Hardware struct {
	Sensor PowerSensor
	Link   Link

	Gate    OutputPin // load switch MOSFET gate
	LoadLED OutputPin // indicator mirroring the gate
	RGB     RGB

	StartButton   InputPin
	AbortButton   InputPin
	MeasureButton InputPin

	// Sleep blocks for the settle delay before a load-on measurement.
	// Injected so tests can observe it instead of actually sleeping.
	Sleep func(d time.Duration)

	// Clock supplies the current time for DATA timestamps, which are taken
	// after the settle delay so they mark when the reading happened, not
	// when the window opened. Defaults to time.Now.
	Clock func() time.Time
}
