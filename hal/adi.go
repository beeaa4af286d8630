package hal

import (
	"fmt"
	"sync"
	"time"
)

// ADIConfig is the hardware configuration code of a three-wire line.
type ADIConfig uint8

const (
	ADIAnalogIn ADIConfig = iota
	ADIAnalogOut
	ADIDigitalIn
	ADIDigitalOut
	ADISmartButton
	ADISmartPot
	ADILegacyButton
	ADILegacyPot
	ADILineSensor
	ADILightSensor
	ADIGyro
	ADIAccelerometer
	ADIServo
	ADIPWM
	ADIQuadEncoder
	ADISonar
	ADIPWMSlew

	ADIUndefined ADIConfig = 255
)

var adiConfigNames = [...]string{
	ADIAnalogIn:      "analog-in",
	ADIAnalogOut:     "analog-out",
	ADIDigitalIn:     "digital-in",
	ADIDigitalOut:    "digital-out",
	ADISmartButton:   "smart-button",
	ADISmartPot:      "smart-pot",
	ADILegacyButton:  "legacy-button",
	ADILegacyPot:     "legacy-pot",
	ADILineSensor:    "line-sensor",
	ADILightSensor:   "light-sensor",
	ADIGyro:          "gyro",
	ADIAccelerometer: "accelerometer",
	ADIServo:         "servo",
	ADIPWM:           "pwm",
	ADIQuadEncoder:   "quad-encoder",
	ADISonar:         "sonar",
	ADIPWMSlew:       "pwm-slew",
}

func (c ADIConfig) String() string {
	if int(c) < len(adiConfigNames) {
		return adiConfigNames[c]
	}
	if c == ADIUndefined {
		return "undefined"
	}
	return fmt.Sprintf("adi(%d)", uint8(c))
}

// Valid reports whether c is a known configuration code.
func (c ADIConfig) Valid() bool {
	return c <= ADIPWMSlew || c == ADIUndefined
}

// Writable reports whether a line in configuration c accepts SetValue. A
// quadrature encoder accepts writes to reset its count.
func (c ADIConfig) Writable() bool {
	switch c {
	case ADIAnalogOut, ADIDigitalOut, ADIServo, ADIPWM, ADIPWMSlew, ADIQuadEncoder:
		return true
	}
	return false
}

type nullADI struct{}

func (nullADI) Line(port, index int) ADILine { return nil }

// virtualADI lazily creates simulated lines for every port.
type virtualADI struct {
	mu    sync.Mutex
	lines map[[2]int]*virtualLine
}

func newVirtualADI() *virtualADI {
	return &virtualADI{lines: make(map[[2]int]*virtualLine)}
}

func (a *virtualADI) Line(port, index int) ADILine {
	if l := a.line(port, index); l != nil {
		return l
	}
	return nil
}

func (a *virtualADI) line(port, index int) *virtualLine {
	if port < 1 || index < 0 || index > 7 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	key := [2]int{port, index}
	l, ok := a.lines[key]
	if !ok {
		l = newVirtualLine(fmt.Sprintf("%d%c", port, 'A'+index))
		a.lines[key] = l
	}
	return l
}

// attach feeds a line from src instead of its stored value.
func (a *virtualADI) attach(port, index int, src func() int32) error {
	l := a.line(port, index)
	if l == nil {
		return fmt.Errorf("adi: no line %d/%d", port, index)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.src = src
	return nil
}

type virtualLine struct {
	mu    sync.Mutex
	name  string
	cfg   ADIConfig
	value int32
	src   func() int32
}

func newVirtualLine(name string) *virtualLine {
	return &virtualLine{name: name, cfg: ADIUndefined}
}

func (l *virtualLine) Name() string { return l.name }

func (l *virtualLine) Configure(cfg ADIConfig) error {
	if !cfg.Valid() {
		return fmt.Errorf("adi: line %s: invalid config %d", l.name, uint8(cfg))
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if cfg != l.cfg {
		l.value = 0
	}
	l.cfg = cfg
	return nil
}

func (l *virtualLine) Config() ADIConfig {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg
}

func (l *virtualLine) Value() (int32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cfg == ADIUndefined {
		return 0, fmt.Errorf("adi: line %s: not configured", l.name)
	}
	if l.src != nil && !l.cfg.Writable() {
		return l.src(), nil
	}
	return l.value, nil
}

func (l *virtualLine) SetValue(v int32) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.cfg.Writable() {
		return fmt.Errorf("adi: line %s: not writable as %s", l.name, l.cfg)
	}
	l.value = v
	return nil
}

// squareWave returns a source that is 1 for the first high of every period,
// measured from the first call of now.
func squareWave(period, high time.Duration, now func() time.Time) func() int32 {
	if now == nil {
		now = time.Now
	}
	if period <= 0 {
		period = 1 * time.Second
	}
	if high < 0 {
		high = 0
	}
	if high > period {
		high = period
	}
	t0 := now()
	return func() int32 {
		elapsed := now().Sub(t0)
		if elapsed < 0 {
			elapsed = -elapsed
		}
		if elapsed%period < high {
			return 1
		}
		return 0
	}
}
