// Package station is the host-side view of the depassivation fixture: a
// Device abstraction over the serial line protocol, a parser for the
// fixture's report lines, and a simulated device for running without
// hardware.
package station

import "time"

// Device defines the interface for depassivation fixtures (real or simulated).
type Device interface {
	Connect() error
	Close() error
	// Reports is the stream of parsed lines from the fixture.
	Reports() <-chan Report
	// StartTest begins a timed test. The fixture ignores it unless idle.
	StartTest(duration time.Duration) error
	// Abort stops a running test.
	Abort() error
	// SetLive switches between live view and idle.
	SetLive(live bool) error
	// SetLoad drives the load switch manually; only honored in live view.
	SetLoad(on bool) error
	IsConnected() bool
}

var _ Device = (*Serial)(nil)

var _ Device = (*Sim)(nil)
