//go:build tinygo && !baremetal

package hal

import "time"

type tinyGoHostHAL struct {
	logger *tinyGoHostLogger
	fb     *memFramebuffer
	clock  *tinyGoHostClock
	adi    *virtualADI
	smart  *virtualSmart
	pad    *virtualController
	comp   *virtualCompetition
}

// New returns a TinyGo-on-host HAL implementation.
//
// This is used by `tinygo run` targets like linux/wasm where there is no
// brain hardware; three-wire lines, motors and the field controller are
// simulated.
func New() HAL {
	return &tinyGoHostHAL{
		logger: &tinyGoHostLogger{},
		fb:     newMemFramebuffer(ScreenWidth, ScreenHeight),
		clock:  &tinyGoHostClock{start: time.Now()},
		adi:    newVirtualADI(),
		smart:  newVirtualSmart(time.Now),
		pad:    newVirtualController(ControllerTethered),
		comp:   newVirtualCompetition(ModeDriverControl),
	}
}

func (h *tinyGoHostHAL) Logger() Logger   { return h.logger }
func (h *tinyGoHostHAL) Display() Display { return tinyGoHostDisplay{fb: h.fb} }
func (h *tinyGoHostHAL) Clock() Clock     { return h.clock }
func (h *tinyGoHostHAL) ADI() ADI         { return h.adi }
func (h *tinyGoHostHAL) Smart() Smart     { return h.smart }

// Controller has only a master controller, which never sees input.
func (h *tinyGoHostHAL) Controller(id ControllerID) Controller {
	if id != ControllerMaster {
		return nil
	}
	return h.pad
}

func (h *tinyGoHostHAL) Competition() Competition { return h.comp }

func (h *tinyGoHostHAL) attach(port, index int, src func() int32) error {
	return h.adi.attach(port, index, src)
}

func (h *tinyGoHostHAL) setMode(m CompetitionMode) { h.comp.set(m) }

type tinyGoHostDisplay struct {
	fb Framebuffer
}

func (d tinyGoHostDisplay) Framebuffer() Framebuffer { return d.fb }

type tinyGoHostClock struct {
	start time.Time
}

func (c *tinyGoHostClock) Millis() uint32 {
	return uint32(time.Since(c.start) / time.Millisecond)
}

func (c *tinyGoHostClock) Idle() {
	time.Sleep(time.Millisecond)
}

type tinyGoHostLogger struct{}

func (l *tinyGoHostLogger) WriteLineString(s string) {
	println(s)
}

func (l *tinyGoHostLogger) WriteLineBytes(b []byte) {
	println(string(b))
}
