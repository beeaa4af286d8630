package hal

import (
	"fmt"
	"sync"
)

// ControllerID picks one of the two handheld controllers.
type ControllerID uint8

const (
	ControllerMaster ControllerID = iota
	ControllerPartner
)

func (id ControllerID) String() string {
	switch id {
	case ControllerMaster:
		return "master"
	case ControllerPartner:
		return "partner"
	default:
		return fmt.Sprintf("controller(%d)", uint8(id))
	}
}

// ControllerStatus is how a controller is linked to the brain.
type ControllerStatus uint8

const (
	ControllerDisconnected ControllerStatus = iota
	ControllerTethered
	ControllerWireless
	ControllerUnknown
)

func (s ControllerStatus) String() string {
	switch s {
	case ControllerDisconnected:
		return "disconnected"
	case ControllerTethered:
		return "tethered"
	case ControllerWireless:
		return "wireless"
	default:
		return "unknown"
	}
}

// Button is a digital controller input.
type Button uint8

const (
	ButtonL1 Button = iota
	ButtonL2
	ButtonR1
	ButtonR2
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonX
	ButtonB
	ButtonY
	ButtonA

	ButtonCount
)

var buttonNames = [ButtonCount]string{"L1", "L2", "R1", "R2", "up", "down", "left", "right", "X", "B", "Y", "A"}

func (b Button) String() string {
	if b < ButtonCount {
		return buttonNames[b]
	}
	return fmt.Sprintf("button(%d)", uint8(b))
}

// Axis is an analog joystick channel.
type Axis uint8

const (
	AxisLeftX Axis = iota
	AxisLeftY
	AxisRightX
	AxisRightY

	AxisCount
)

func (a Axis) String() string {
	switch a {
	case AxisLeftX:
		return "left-x"
	case AxisLeftY:
		return "left-y"
	case AxisRightX:
		return "right-x"
	case AxisRightY:
		return "right-y"
	default:
		return fmt.Sprintf("axis(%d)", uint8(a))
	}
}

// AnalogMax is the full deflection of an axis; readings span
// -AnalogMax..AnalogMax.
const AnalogMax = 127

// ControllerLines is the number of text lines on a controller screen.
const ControllerLines = 3

// Controller is one handheld controller. A disconnected controller reads
// released buttons and centred sticks.
type Controller interface {
	Status() ControllerStatus
	Digital(b Button) bool
	Analog(a Axis) int32
	BatteryLevel() int32
	BatteryCapacity() int32
	SetText(line, col int, text string) error
	ClearScreen() error
	Rumble(pattern string) error
}

// virtualController is a controller whose inputs are set by the host.
type virtualController struct {
	mu       sync.Mutex
	status   ControllerStatus
	buttons  [ButtonCount]bool
	axes     [AxisCount]int32
	level    int32
	capacity int32
	screen   [ControllerLines]string
	rumble   string
}

func newVirtualController(status ControllerStatus) *virtualController {
	return &virtualController{status: status, level: 100, capacity: 100}
}

func (c *virtualController) Status() ControllerStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *virtualController) Digital(b Button) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b >= ButtonCount || c.status == ControllerDisconnected {
		return false
	}
	return c.buttons[b]
}

func (c *virtualController) Analog(a Axis) int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a >= AxisCount || c.status == ControllerDisconnected {
		return 0
	}
	return c.axes[a]
}

func (c *virtualController) BatteryLevel() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

func (c *virtualController) BatteryCapacity() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capacity
}

func (c *virtualController) SetText(line, col int, text string) error {
	if line < 0 || line >= ControllerLines || col < 0 {
		return fmt.Errorf("controller: no text position %d:%d", line, col)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	row := []rune(c.screen[line])
	for len(row) < col {
		row = append(row, ' ')
	}
	tail := []rune(text)
	if col+len(tail) < len(row) {
		tail = append(tail, row[col+len(tail):]...)
	}
	c.screen[line] = string(append(row[:col], tail...))
	return nil
}

func (c *virtualController) ClearScreen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.screen = [ControllerLines]string{}
	return nil
}

func (c *virtualController) Rumble(pattern string) error {
	for _, r := range pattern {
		if r != '.' && r != '-' && r != ' ' {
			return fmt.Errorf("controller: rumble pattern %q: only '.', '-' and ' '", pattern)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rumble = pattern
	return nil
}

func (c *virtualController) setButton(b Button, down bool) {
	if b >= ButtonCount {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buttons[b] = down
}

func (c *virtualController) setAxis(a Axis, v int32) {
	if a >= AxisCount {
		return
	}
	switch {
	case v > AnalogMax:
		v = AnalogMax
	case v < -AnalogMax:
		v = -AnalogMax
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.axes[a] = v
}

func (c *virtualController) line(n int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.screen[n]
}
