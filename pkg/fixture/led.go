package fixture

import (
	"time"

	"github.com/chewxy/math32"
)

// Color is an RGB intensity triple for the status LED.
type Color struct {
	R, G, B uint8
}

const (
	breathePeriodMS = 500 // time scale of the blue breathing oscillation
	blinkPeriodMS   = 500 // full on/off cycle of result blinking
	blinkOnMS       = 250
)

// RenderLED maps the current state and phase-local elapsed time to an LED
// color. It is a pure function; the blink and breathing phases are measured
// from stateChange so they restart on every transition.
func RenderLED(s State, now, stateChange time.Time) Color {
	elapsed := now.Sub(stateChange)

	switch s {
	case StateIdle:
		return Color{G: 255}
	case StateLiveView:
		return Color{R: 255, G: 255, B: 255}
	case StateTestRunning, StateFinishing:
		breath := (math32.Sin(float32(elapsed.Milliseconds())/breathePeriodMS) + 1) / 2
		return Color{B: uint8(breath * 255)}
	case StateSuccess:
		if blinkOn(elapsed) {
			return Color{G: 255}
		}
		return Color{}
	case StateFailed:
		if blinkOn(elapsed) {
			return Color{R: 255}
		}
		return Color{}
	default:
		return Color{}
	}
}

func blinkOn(elapsed time.Duration) bool {
	return elapsed.Milliseconds()%blinkPeriodMS < blinkOnMS
}
