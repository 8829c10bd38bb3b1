package fixture

// State is the operating state of the fixture. Exactly one state is active
// at any time; it is owned by the Controller.
type State uint8

const (
	StateIdle State = iota
	StateTestRunning
	StateFinishing
	StateLiveView
	StateSuccess
	StateFailed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateTestRunning:
		return "TEST_RUNNING"
	case StateFinishing:
		return "FINISHING"
	case StateLiveView:
		return "LIVE_VIEW"
	case StateSuccess:
		return "SUCCESS"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}
