package fixture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_CleanPress(t *testing.T) {
	var d Debouncer
	now := time.Unix(0, 0)

	assert.False(t, d.Update(true, now))
	assert.False(t, d.Update(true, now.Add(20*time.Millisecond)))
	assert.True(t, d.Update(true, now.Add(60*time.Millisecond)))
	assert.True(t, d.Stable())

	// Holding the button produces no further events.
	assert.False(t, d.Update(true, now.Add(200*time.Millisecond)))
	assert.False(t, d.Update(true, now.Add(5*time.Second)))
}

func TestDebouncer_ReleaseEmitsNothing(t *testing.T) {
	var d Debouncer
	now := time.Unix(0, 0)

	d.Update(true, now)
	assert.True(t, d.Update(true, now.Add(60*time.Millisecond)))

	assert.False(t, d.Update(false, now.Add(100*time.Millisecond)))
	assert.False(t, d.Update(false, now.Add(200*time.Millisecond)))
	assert.False(t, d.Stable())
}

func TestDebouncer_JitterShorterThanWindow(t *testing.T) {
	var d Debouncer
	now := time.Unix(0, 0)

	// Raw level flaps every 10 ms; no change ever holds for the window.
	level := false
	for i := 0; i < 20; i++ {
		level = !level
		now = now.Add(10 * time.Millisecond)
		assert.False(t, d.Update(level, now), "jitter at step %d must not emit", i)
	}
	assert.False(t, d.Stable())
}

func TestDebouncer_JitterThenSettle(t *testing.T) {
	var d Debouncer
	now := time.Unix(0, 0)

	// Contact bounce on the way down, then a solid press.
	d.Update(true, now)
	d.Update(false, now.Add(5*time.Millisecond))
	d.Update(true, now.Add(10*time.Millisecond))
	d.Update(false, now.Add(15*time.Millisecond))
	d.Update(true, now.Add(20*time.Millisecond))

	// Window counts from the last raw change.
	assert.False(t, d.Update(true, now.Add(60*time.Millisecond)))
	assert.True(t, d.Update(true, now.Add(75*time.Millisecond)))
}

func TestDebouncer_OneEventPerPress(t *testing.T) {
	var d Debouncer
	now := time.Unix(0, 0)

	events := 0
	for i := 0; i < 3; i++ {
		// Press for 100 ms.
		for j := 0; j < 10; j++ {
			now = now.Add(10 * time.Millisecond)
			if d.Update(true, now) {
				events++
			}
		}
		// Release for 100 ms.
		for j := 0; j < 10; j++ {
			now = now.Add(10 * time.Millisecond)
			if d.Update(false, now) {
				events++
			}
		}
	}
	assert.Equal(t, 3, events)
}
