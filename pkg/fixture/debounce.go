package fixture

import "time"

// DebounceWindow is how long a raw input must hold a new level before it is
// adopted as stable.
const DebounceWindow = 50 * time.Millisecond

// Debouncer filters a noisy digital input into clean press events. The zero
// value is ready to use and assumes the line idles low (external pulldown).
type Debouncer struct {
	raw        bool
	stable     bool
	lastChange time.Time
}

// Update feeds the current raw level. It returns true exactly once per
// physical press: when the stable level transitions low to high after the
// raw level has held for at least DebounceWindow. Releases and any jitter
// shorter than the window never produce an event.
func (d *Debouncer) Update(raw bool, now time.Time) bool {
	if raw != d.raw {
		d.raw = raw
		d.lastChange = now
	}
	if d.raw == d.stable {
		return false
	}
	if now.Sub(d.lastChange) < DebounceWindow {
		return false
	}
	was := d.stable
	d.stable = d.raw
	return !was && d.stable
}

// Stable returns the current debounced level.
func (d *Debouncer) Stable() bool {
	return d.stable
}
