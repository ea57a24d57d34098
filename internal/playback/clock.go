// Package playback implements the per-player playback engine (spec's C3):
// the clock model, the judge state machine, the five-rule playback
// discipline (start delay, seek-on-start, strict pause-on-unjudged-note,
// rewind-on-resume, audio-authoritative clock), touch-overlay
// reconstruction, and canvas attach/detach. A Scene owns exactly one
// chart and drives it from externally supplied judge and touch events.
package playback

// Clock is the wall-clock-to-game-time mapping a Scene drives. Source
// is the monotonic wall-clock function the scene was built with (real
// time in production, a fake stepped clock in tests).
type Clock struct {
	source func() float64

	startWall float64
	pauseWall float64 // wall time of the pause; meaningful only while isPaused
	isPaused  bool
}

// NewClock builds a Clock anchored at wall time zero. Callers normally
// reset it with Reset once the scene actually starts.
func NewClock(source func() float64) *Clock {
	return &Clock{source: source}
}

func (c *Clock) wallNow() float64 { return c.source() }

// Reset re-anchors the clock so Now() reads 0 at the current wall time,
// matching the "both start at 0" branch of R2 when no target_time buffer
// exists.
func (c *Clock) Reset() {
	c.startWall = c.wallNow()
	c.isPaused = false
	c.pauseWall = 0
}

// Now returns the current game-time position in seconds.
func (c *Clock) Now() float64 {
	wall := c.wallNow()
	if c.isPaused {
		wall = c.pauseWall
	}
	return wall - c.startWall
}

// Paused reports whether the clock is currently paused.
func (c *Clock) Paused() bool { return c.isPaused }

// Pause freezes the clock at its current position by capturing the wall
// time; Now keeps returning the same value until Resume.
func (c *Clock) Pause() {
	if c.isPaused {
		return
	}
	c.pauseWall = c.wallNow()
	c.isPaused = true
}

// Resume un-freezes the clock, shifting startWall forward by the paused
// interval so Now() continues seamlessly from where it was paused.
func (c *Clock) Resume() {
	if !c.isPaused {
		return
	}
	pausedFor := c.wallNow() - c.pauseWall
	c.startWall += pausedFor
	c.isPaused = false
	c.pauseWall = 0
}

// SeekTo sets the clock's game-time position to pos, preserving the
// paused/running state.
func (c *Clock) SeekTo(pos float64) {
	wall := c.wallNow()
	if c.isPaused {
		wall = c.pauseWall
	}
	c.startWall = wall - pos
}
