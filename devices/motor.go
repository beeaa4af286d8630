package devices

import (
	"errors"
	"fmt"

	"brainos/hal"
)

// Motor is a smart motor. Every call holds the port lock while it talks to
// the hardware.
type Motor struct {
	reg  *Registry
	port Port
}

// NewMotor binds port as a motor and, when there is hardware behind it,
// resets it to degrees and coasting.
func NewMotor(reg *Registry, port Port) (*Motor, error) {
	if err := reg.Reserve(port, KindMotor); err != nil {
		return nil, err
	}
	m := &Motor{reg: reg, port: port}
	err := m.with(func(hw hal.Motor) error {
		if err := hw.SetEncoderUnits(hal.UnitsDegrees); err != nil {
			return err
		}
		return hw.SetBrakeMode(hal.BrakeCoast)
	})
	if err != nil && !errors.Is(err, hal.ErrNotImplemented) {
		return nil, err
	}
	return m, nil
}

func (m *Motor) with(fn func(hw hal.Motor) error) error {
	g, err := m.reg.LockSmart(m.port, KindMotor)
	if err != nil {
		return err
	}
	defer g.Release()
	hw, err := g.Value().Motor()
	if err != nil {
		return err
	}
	return fn(hw)
}

func (m *Motor) Port() Port { return m.port }

func (m *Motor) String() string { return fmt.Sprintf("motor@%d", m.port) }

// SetVoltage drives the motor open loop. v is clamped to
// -MotorMaxVoltage..MotorMaxVoltage.
func (m *Motor) SetVoltage(v int32) error {
	switch {
	case v > hal.MotorMaxVoltage:
		v = hal.MotorMaxVoltage
	case v < -hal.MotorMaxVoltage:
		v = -hal.MotorMaxVoltage
	}
	return m.with(func(hw hal.Motor) error { return hw.SetVoltage(v) })
}

// Stop cuts the voltage; the brake mode decides what happens next.
func (m *Motor) Stop() error { return m.SetVoltage(0) }

func (m *Motor) SetBrakeMode(mode hal.BrakeMode) error {
	return m.with(func(hw hal.Motor) error { return hw.SetBrakeMode(mode) })
}

func (m *Motor) BrakeMode() (hal.BrakeMode, error) {
	var mode hal.BrakeMode
	err := m.with(func(hw hal.Motor) error {
		mode = hw.BrakeMode()
		return nil
	})
	return mode, err
}

func (m *Motor) SetEncoderUnits(u hal.EncoderUnits) error {
	return m.with(func(hw hal.Motor) error { return hw.SetEncoderUnits(u) })
}

func (m *Motor) EncoderUnits() (hal.EncoderUnits, error) {
	var u hal.EncoderUnits
	err := m.with(func(hw hal.Motor) error {
		u = hw.EncoderUnits()
		return nil
	})
	return u, err
}

// MoveAbsolute runs to position, in encoder units, at rpm.
func (m *Motor) MoveAbsolute(position float64, rpm int32) error {
	return m.with(func(hw hal.Motor) error { return hw.MoveAbsolute(position, rpm) })
}

// MoveRelative runs delta encoder units from the current position at rpm.
func (m *Motor) MoveRelative(delta float64, rpm int32) error {
	return m.with(func(hw hal.Motor) error { return hw.MoveRelative(delta, rpm) })
}

// Position is in the current encoder units.
func (m *Motor) Position() (float64, error) {
	var p float64
	err := m.with(func(hw hal.Motor) error {
		var err error
		p, err = hw.Position()
		return err
	})
	return p, err
}

// Rate is the velocity in degrees per second.
func (m *Motor) Rate() (float64, error) {
	var rpm float64
	err := m.with(func(hw hal.Motor) error {
		var err error
		rpm, err = hw.Velocity()
		return err
	})
	return rpm * 6, err
}

// ResetPosition makes the current position read as zero.
func (m *Motor) ResetPosition() error {
	return m.with(func(hw hal.Motor) error { return hw.ResetPosition() })
}
