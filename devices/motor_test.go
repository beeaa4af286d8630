package devices

import (
	"errors"
	"testing"

	"brainos/hal"
	"brainos/kernel"
)

type fakeMotor struct {
	voltage  int32
	brake    hal.BrakeMode
	units    hal.EncoderUnits
	position float64
	rpm      float64
	target   float64
	speed    int32
	calls    int
}

func (m *fakeMotor) SetVoltage(v int32) error { m.voltage = v; m.calls++; return nil }

func (m *fakeMotor) SetBrakeMode(b hal.BrakeMode) error { m.brake = b; return nil }
func (m *fakeMotor) BrakeMode() hal.BrakeMode           { return m.brake }

func (m *fakeMotor) SetEncoderUnits(u hal.EncoderUnits) error { m.units = u; return nil }
func (m *fakeMotor) EncoderUnits() hal.EncoderUnits           { return m.units }

func (m *fakeMotor) MoveAbsolute(p float64, rpm int32) error {
	m.target, m.speed = p, rpm
	return nil
}

func (m *fakeMotor) MoveRelative(d float64, rpm int32) error {
	m.target, m.speed = m.position+d, rpm
	return nil
}

func (m *fakeMotor) Position() (float64, error) { return m.position, nil }
func (m *fakeMotor) Velocity() (float64, error) { return m.rpm, nil }
func (m *fakeMotor) ResetPosition() error       { m.position = 0; return nil }

type fakeSmart struct {
	motors map[int]*fakeMotor
}

func (s *fakeSmart) Motor(port int) hal.Motor {
	if m, ok := s.motors[port]; ok {
		return m
	}
	return nil
}

func newMotorRegistry(t *testing.T, ports ...int) (*Registry, *kernel.Scheduler, *fakeSmart) {
	t.Helper()
	s := kernel.New(kernel.Config{MaxTasks: 4, StackSize: 256, Clock: &kernel.ManualClock{Step: 1}, Logger: &lineLog{}})
	smart := &fakeSmart{motors: make(map[int]*fakeMotor)}
	for _, p := range ports {
		smart.motors[p] = &fakeMotor{brake: hal.BrakeHold, units: hal.UnitsTicks}
	}
	return NewRegistry(s, Hardware{Smart: smart}), s, smart
}

func TestNewMotorResetsDefaults(t *testing.T) {
	reg, _, smart := newMotorRegistry(t, 1)
	m, err := NewMotor(reg, 1)
	if err != nil {
		t.Fatalf("NewMotor: %v", err)
	}
	if reg.KindOf(1) != KindMotor {
		t.Fatalf("port 1 bound as %s", reg.KindOf(1))
	}
	hw := smart.motors[1]
	if hw.brake != hal.BrakeCoast || hw.units != hal.UnitsDegrees {
		t.Fatalf("defaults brake=%v units=%v", hw.brake, hw.units)
	}
	if m.String() != "motor@1" {
		t.Fatalf("String() = %q", m)
	}
}

func TestMotorVoltageIsClamped(t *testing.T) {
	reg, _, smart := newMotorRegistry(t, 3)
	m, _ := NewMotor(reg, 3)
	hw := smart.motors[3]

	for _, tc := range []struct{ in, want int32 }{
		{50, 50},
		{300, hal.MotorMaxVoltage},
		{-1000, -hal.MotorMaxVoltage},
	} {
		if err := m.SetVoltage(tc.in); err != nil {
			t.Fatalf("SetVoltage(%d): %v", tc.in, err)
		}
		if hw.voltage != tc.want {
			t.Fatalf("SetVoltage(%d) sent %d, want %d", tc.in, hw.voltage, tc.want)
		}
	}
	m.Stop()
	if hw.voltage != 0 {
		t.Fatalf("Stop left %d", hw.voltage)
	}
}

func TestMotorReadsAndMoves(t *testing.T) {
	reg, _, smart := newMotorRegistry(t, 2)
	m, _ := NewMotor(reg, 2)
	hw := smart.motors[2]
	hw.position, hw.rpm = 450, 100

	if p, err := m.Position(); err != nil || p != 450 {
		t.Fatalf("Position() = %v, %v", p, err)
	}
	if r, err := m.Rate(); err != nil || r != 600 {
		t.Fatalf("Rate() = %v deg/s, %v; want 600", r, err)
	}

	m.MoveRelative(-50, 30)
	if hw.target != 400 || hw.speed != 30 {
		t.Fatalf("relative move to %v at %d", hw.target, hw.speed)
	}
	m.MoveAbsolute(0, 60)
	if hw.target != 0 || hw.speed != 60 {
		t.Fatalf("absolute move to %v at %d", hw.target, hw.speed)
	}

	m.SetBrakeMode(hal.BrakeBrake)
	m.SetEncoderUnits(hal.UnitsRotations)
	if b, _ := m.BrakeMode(); b != hal.BrakeBrake {
		t.Fatalf("brake = %v", b)
	}
	if u, _ := m.EncoderUnits(); u != hal.UnitsRotations {
		t.Fatalf("units = %v", u)
	}

	m.ResetPosition()
	if hw.position != 0 {
		t.Fatalf("position after reset = %v", hw.position)
	}
}

func TestMotorWithoutHardware(t *testing.T) {
	reg, _, _ := newMotorRegistry(t)
	m, err := NewMotor(reg, 4)
	if err != nil {
		t.Fatalf("NewMotor: %v", err)
	}
	if err := m.SetVoltage(10); !errors.Is(err, hal.ErrNotImplemented) {
		t.Fatalf("SetVoltage err = %v, want not implemented", err)
	}
	if _, err := m.Position(); !errors.Is(err, hal.ErrNotImplemented) {
		t.Fatalf("Position err = %v, want not implemented", err)
	}
}

func TestNewMotorOnBoundPortFaults(t *testing.T) {
	reg, _, _ := newMotorRegistry(t, 5)
	reg.Reserve(5, KindIMU)
	f := asFault(t, errOnly(NewMotor(reg, 5)))
	if f.Op != "reserve" || f.Have != "imu" {
		t.Fatalf("fault = %+v", f)
	}
}

func TestMotorWaitsForPortLock(t *testing.T) {
	reg, s, smart := newMotorRegistry(t, 6)
	m, _ := NewMotor(reg, 6)
	hw := smart.motors[6]
	var trace []string

	s.Spawn(func() {
		g, _ := reg.LockSmart(6, KindMotor)
		trace = append(trace, "hold")
		s.Yield()
		trace = append(trace, "release")
		g.Release()
	})
	s.Spawn(func() {
		m.SetVoltage(90)
		trace = append(trace, "drive")
	})
	drain(t, s)

	want := []string{"hold", "release", "drive"}
	if !equalStrings(trace, want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
	if hw.voltage != 90 {
		t.Fatalf("voltage = %d", hw.voltage)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
