package hal

import "errors"

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var ErrNotImplemented = errors.New("not implemented")

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Brain screen geometry.
const (
	ScreenWidth  = 480
	ScreenHeight = 272
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// Clock is the system millisecond counter. It wraps at 2^32.
type Clock interface {
	Millis() uint32
}

// ADI provides the three-wire lines of the expanders attached to smart
// ports. Ports are 1-based, line indexes 0..7 (A..H).
//
// Line returns nil if the port has no expander hardware.
type ADI interface {
	Line(port, index int) ADILine
}

// ADILine is one three-wire line. Reads and writes are only valid for a
// configuration that supports them.
type ADILine interface {
	Name() string
	Configure(cfg ADIConfig) error
	Config() ADIConfig
	Value() (int32, error)
	SetValue(v int32) error
}

// Competition reports the field controller state.
type Competition interface {
	Status() CompetitionStatus
}

// HAL provides the only contact point between the runtime and the outside
// world.
type HAL interface {
	Logger() Logger
	Display() Display
	Clock() Clock
	ADI() ADI
	Smart() Smart
	// Controller returns nil when the HAL has no controller link.
	Controller(id ControllerID) Controller
	Competition() Competition
}
