package kernel

import (
	"sync/atomic"
	"time"
)

// Clock is the system millisecond counter. It wraps at 2^32.
type Clock interface {
	Millis() uint32
}

// Idler is implemented by clocks that want a hook while the scheduler spins
// waiting for a deadline.
type Idler interface {
	Idle()
}

// SystemClock counts milliseconds since it was created.
type SystemClock struct {
	start time.Time
}

func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

func (c *SystemClock) Millis() uint32 {
	return uint32(time.Since(c.start) / time.Millisecond)
}

func (c *SystemClock) Idle() {
	time.Sleep(200 * time.Microsecond)
}

// ManualClock only moves when told to. Idle advances it by Step (at least
// 1ms), so a scheduler waiting on a deadline always makes progress.
type ManualClock struct {
	now  atomic.Uint32
	Step uint32
}

func (c *ManualClock) Millis() uint32 { return c.now.Load() }

func (c *ManualClock) Set(ms uint32) { c.now.Store(ms) }

func (c *ManualClock) Advance(ms uint32) uint32 { return c.now.Add(ms) }

func (c *ManualClock) Idle() {
	step := c.Step
	if step == 0 {
		step = 1
	}
	c.now.Add(step)
}

// reached reports whether now is at or past deadline, allowing for wrap.
func reached(now, deadline uint32) bool {
	return int32(now-deadline) >= 0
}

// Timer measures a span of clock time.
type Timer struct {
	clock Clock
	start uint32
	end   uint32
}

// NewTimer returns a timer lasting ms milliseconds from now.
func NewTimer(c Clock, ms uint32) Timer {
	start := c.Millis()
	return Timer{clock: c, start: start, end: start + ms}
}

// TimerUntil returns a timer that ends when the clock reaches t.
func TimerUntil(c Clock, t uint32) Timer {
	return Timer{clock: c, start: c.Millis(), end: t}
}

func (t Timer) Start() uint32 { return t.start }
func (t Timer) End() uint32   { return t.end }

func (t Timer) Elapsed() bool {
	return reached(t.clock.Millis(), t.end)
}

// Remaining returns the milliseconds left, or 0 once elapsed.
func (t Timer) Remaining() uint32 {
	now := t.clock.Millis()
	if reached(now, t.end) {
		return 0
	}
	return t.end - now
}

// Spent returns the milliseconds since the timer started, capped at its length.
func (t Timer) Spent() uint32 {
	if t.Elapsed() {
		return t.end - t.start
	}
	return t.clock.Millis() - t.start
}

// Block spins until the timer elapses without yielding to other tasks.
func (t Timer) Block() {
	idle, _ := t.clock.(Idler)
	for !t.Elapsed() {
		if idle != nil {
			idle.Idle()
		}
	}
}
