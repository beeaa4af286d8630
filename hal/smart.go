package hal

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// MotorMaxVoltage is the largest magnitude SetVoltage accepts.
const MotorMaxVoltage = 127

// MotorTicksPerRev is the encoder resolution of the standard 18:1
// cartridge.
const MotorTicksPerRev = 900

// BrakeMode is what a motor does once it is told to stop.
type BrakeMode uint8

const (
	BrakeCoast BrakeMode = iota
	BrakeBrake
	BrakeHold
)

func (m BrakeMode) String() string {
	switch m {
	case BrakeCoast:
		return "coast"
	case BrakeBrake:
		return "brake"
	case BrakeHold:
		return "hold"
	default:
		return fmt.Sprintf("brake(%d)", uint8(m))
	}
}

// EncoderUnits selects the unit motor positions are reported in.
type EncoderUnits uint8

const (
	UnitsDegrees EncoderUnits = iota
	UnitsRotations
	UnitsTicks
)

func (u EncoderUnits) String() string {
	switch u {
	case UnitsDegrees:
		return "degrees"
	case UnitsRotations:
		return "rotations"
	case UnitsTicks:
		return "ticks"
	default:
		return fmt.Sprintf("units(%d)", uint8(u))
	}
}

// fromDegrees converts a position in degrees to u.
func (u EncoderUnits) fromDegrees(deg float64) float64 {
	switch u {
	case UnitsRotations:
		return deg / 360
	case UnitsTicks:
		return deg * MotorTicksPerRev / 360
	default:
		return deg
	}
}

func (u EncoderUnits) toDegrees(v float64) float64 {
	switch u {
	case UnitsRotations:
		return v * 360
	case UnitsTicks:
		return v * 360 / MotorTicksPerRev
	default:
		return v
	}
}

// Motor is the smart motor on one port. Positions are in the configured
// encoder units, speeds in rpm.
type Motor interface {
	SetVoltage(v int32) error
	SetBrakeMode(m BrakeMode) error
	BrakeMode() BrakeMode
	SetEncoderUnits(u EncoderUnits) error
	EncoderUnits() EncoderUnits
	MoveAbsolute(position float64, rpm int32) error
	MoveRelative(delta float64, rpm int32) error
	Position() (float64, error)
	Velocity() (float64, error)
	ResetPosition() error
}

// Smart provides the devices on the smart ports.
//
// Motor returns nil if there is no motor hardware behind port.
type Smart interface {
	Motor(port int) Motor
}

type nullSmart struct{}

func (nullSmart) Motor(port int) Motor { return nil }

// virtualFreeRPM is the simulated speed at full voltage.
const virtualFreeRPM = 200

// virtualSmart lazily creates a simulated motor for every port.
type virtualSmart struct {
	mu     sync.Mutex
	now    func() time.Time
	motors map[int]*virtualMotor
}

func newVirtualSmart(now func() time.Time) *virtualSmart {
	if now == nil {
		now = time.Now
	}
	return &virtualSmart{now: now, motors: make(map[int]*virtualMotor)}
}

func (s *virtualSmart) Motor(port int) Motor {
	if m := s.motor(port); m != nil {
		return m
	}
	return nil
}

func (s *virtualSmart) motor(port int) *virtualMotor {
	if port < 1 || port > 21 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.motors[port]
	if !ok {
		m = &virtualMotor{port: port, now: s.now, last: s.now()}
		s.motors[port] = m
	}
	return m
}

type motorControl uint8

const (
	controlVoltage motorControl = iota
	controlTarget
)

// virtualMotor integrates its position from the commanded voltage or move
// target each time it is touched. Position is kept in degrees.
type virtualMotor struct {
	mu   sync.Mutex
	port int
	now  func() time.Time
	last time.Time

	control motorControl
	voltage int32
	target  float64
	speed   float64

	deg   float64
	rpm   float64
	brake BrakeMode
	units EncoderUnits
}

func (m *virtualMotor) advance() {
	t := m.now()
	dt := t.Sub(m.last).Seconds()
	m.last = t
	if dt <= 0 {
		return
	}
	switch m.control {
	case controlVoltage:
		m.rpm = float64(m.voltage) / MotorMaxVoltage * virtualFreeRPM
		m.deg += m.rpm * 6 * dt
	case controlTarget:
		diff := m.target - m.deg
		step := m.speed * 6 * dt
		if math.Abs(diff) <= step {
			m.deg = m.target
			m.rpm = 0
			return
		}
		dir := math.Copysign(1, diff)
		m.deg += dir * step
		m.rpm = dir * m.speed
	}
}

func (m *virtualMotor) SetVoltage(v int32) error {
	if v > MotorMaxVoltage || v < -MotorMaxVoltage {
		return fmt.Errorf("motor: port %d: voltage %d out of range", m.port, v)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advance()
	m.control = controlVoltage
	m.voltage = v
	return nil
}

func (m *virtualMotor) SetBrakeMode(b BrakeMode) error {
	if b > BrakeHold {
		return fmt.Errorf("motor: port %d: invalid brake mode %d", m.port, uint8(b))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.brake = b
	return nil
}

func (m *virtualMotor) BrakeMode() BrakeMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.brake
}

func (m *virtualMotor) SetEncoderUnits(u EncoderUnits) error {
	if u > UnitsTicks {
		return fmt.Errorf("motor: port %d: invalid encoder units %d", m.port, uint8(u))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.units = u
	return nil
}

func (m *virtualMotor) EncoderUnits() EncoderUnits {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.units
}

func (m *virtualMotor) MoveAbsolute(position float64, rpm int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advance()
	m.moveTo(m.units.toDegrees(position), rpm)
	return nil
}

func (m *virtualMotor) MoveRelative(delta float64, rpm int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advance()
	m.moveTo(m.deg+m.units.toDegrees(delta), rpm)
	return nil
}

func (m *virtualMotor) moveTo(deg float64, rpm int32) {
	m.control = controlTarget
	m.target = deg
	m.speed = math.Min(math.Abs(float64(rpm)), virtualFreeRPM)
}

func (m *virtualMotor) Position() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advance()
	return m.units.fromDegrees(m.deg), nil
}

func (m *virtualMotor) Velocity() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advance()
	return m.rpm, nil
}

func (m *virtualMotor) ResetPosition() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advance()
	if m.control == controlTarget {
		m.target -= m.deg
	}
	m.deg = 0
	return nil
}
