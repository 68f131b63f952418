package tui

import "time"

// clockState tracks the current state of a countdown.
type clockState int

const (
	clockStopped clockState = iota
	clockRunning
	clockPaused
)

// countdown is a pausable timer counting down from a fixed length. Time is
// passed in so the owner decides which clock to read.
type countdown struct {
	state     clockState
	length    time.Duration
	startedAt time.Time
	pausedAt  time.Time
	pauseGap  time.Duration
}

func (c *countdown) start(length time.Duration, now time.Time) {
	c.state = clockRunning
	c.length = length
	c.startedAt = now
	c.pauseGap = 0
}

func (c *countdown) stop() {
	c.state = clockStopped
	c.pauseGap = 0
}

func (c *countdown) pause(now time.Time) {
	if c.state != clockRunning {
		return
	}
	c.state = clockPaused
	c.pausedAt = now
}

func (c *countdown) resume(now time.Time) {
	if c.state != clockPaused {
		return
	}
	c.pauseGap += now.Sub(c.pausedAt)
	c.state = clockRunning
}

func (c *countdown) toggle(now time.Time) {
	switch c.state {
	case clockRunning:
		c.pause(now)
	case clockPaused:
		c.resume(now)
	}
}

func (c countdown) running() bool { return c.state != clockStopped }

func (c countdown) paused() bool { return c.state == clockPaused }

func (c countdown) elapsed(now time.Time) time.Duration {
	switch c.state {
	case clockRunning:
		return now.Sub(c.startedAt) - c.pauseGap
	case clockPaused:
		return c.pausedAt.Sub(c.startedAt) - c.pauseGap
	}
	return 0
}

func (c countdown) remaining(now time.Time) time.Duration {
	if c.state == clockStopped {
		return c.length
	}
	return max(c.length-c.elapsed(now), 0)
}

// finished reports a running countdown that reached zero.
func (c countdown) finished(now time.Time) bool {
	return c.state == clockRunning && c.elapsed(now) >= c.length
}
