//go:build !tinygo

package hal

import "time"

// hostClock counts milliseconds since the HAL was created.
type hostClock struct {
	start time.Time
}

func newHostClock() *hostClock {
	return &hostClock{start: time.Now()}
}

func (c *hostClock) Millis() uint32 {
	return uint32(time.Since(c.start) / time.Millisecond)
}

// Idle is called by the scheduler while every task sleeps.
func (c *hostClock) Idle() {
	time.Sleep(250 * time.Microsecond)
}
