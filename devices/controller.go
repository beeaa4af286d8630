package devices

import (
	"fmt"

	"brainos/hal"
	"brainos/kernel"
)

type padState struct {
	hw   hal.Controller
	last [hal.ButtonCount]bool
}

// Controller is a handheld controller shared between tasks. Every call holds
// its lock, which also guards the button levels Pressed and Released
// compare against.
type Controller struct {
	id    hal.ControllerID
	state *kernel.Mutex[padState]
}

func newController(rt kernel.Runtime, id hal.ControllerID, hw hal.Controller) *Controller {
	return &Controller{id: id, state: kernel.NewMutex(rt, padState{hw: hw})}
}

func (c *Controller) ID() hal.ControllerID { return c.id }

func (c *Controller) Status() hal.ControllerStatus {
	g := c.state.Acquire()
	defer g.Release()
	return g.Value().hw.Status()
}

// Connected reports whether the controller is linked, tethered or not.
func (c *Controller) Connected() bool {
	s := c.Status()
	return s == hal.ControllerTethered || s == hal.ControllerWireless
}

func (c *Controller) checkButton(b hal.Button) error {
	if b >= hal.ButtonCount {
		return fmt.Errorf("devices: controller %s: invalid button %d", c.id, uint8(b))
	}
	return nil
}

// Digital reports whether b is held.
func (c *Controller) Digital(b hal.Button) (bool, error) {
	if err := c.checkButton(b); err != nil {
		return false, err
	}
	g := c.state.Acquire()
	defer g.Release()
	return g.Value().hw.Digital(b), nil
}

// Pressed reports whether b went down since the last Pressed or Released
// check of b.
func (c *Controller) Pressed(b hal.Button) (bool, error) {
	cur, prev, err := c.sample(b)
	return cur && !prev, err
}

// Released reports whether b came up since the last Pressed or Released
// check of b.
func (c *Controller) Released(b hal.Button) (bool, error) {
	cur, prev, err := c.sample(b)
	return !cur && prev, err
}

func (c *Controller) sample(b hal.Button) (cur, prev bool, err error) {
	if err := c.checkButton(b); err != nil {
		return false, false, err
	}
	g := c.state.Acquire()
	defer g.Release()
	st := g.Value()
	cur = st.hw.Digital(b)
	prev = st.last[b]
	st.last[b] = cur
	return cur, prev, nil
}

// Analog reads axis a in -AnalogMax..AnalogMax.
func (c *Controller) Analog(a hal.Axis) (int32, error) {
	if a >= hal.AxisCount {
		return 0, fmt.Errorf("devices: controller %s: invalid axis %d", c.id, uint8(a))
	}
	g := c.state.Acquire()
	defer g.Release()
	return g.Value().hw.Analog(a), nil
}

// Battery returns the controller battery level and capacity.
func (c *Controller) Battery() (level, capacity int32) {
	g := c.state.Acquire()
	defer g.Release()
	hw := g.Value().hw
	return hw.BatteryLevel(), hw.BatteryCapacity()
}

func (c *Controller) SetText(line, col int, text string) error {
	g := c.state.Acquire()
	defer g.Release()
	return g.Value().hw.SetText(line, col, text)
}

func (c *Controller) ClearScreen() error {
	g := c.state.Acquire()
	defer g.Release()
	return g.Value().hw.ClearScreen()
}

// Rumble plays pattern: '.' short, '-' long, ' ' pause.
func (c *Controller) Rumble(pattern string) error {
	g := c.state.Acquire()
	defer g.Release()
	return g.Value().hw.Rumble(pattern)
}
