// Package demo is the sample robot program: a bumper switch counts presses
// and flashes an indicator, the master controller's left stick drives a
// motor, and a telemetry task reports the sensors.
package demo

import (
	"fmt"
	"strings"

	"brainos/devices"
	"brainos/hal"
	"brainos/kernel"
	"brainos/system"
)

// Wiring expected on the built-in expander. Devices that are not wired are
// skipped.
const (
	Expander = devices.InternalADIPort

	LineBumper   = 0 // A, digital-in
	LineLED      = 1 // B, digital-out
	LineLight    = 2 // C, analog-in
	LineEncoderA = 4 // E, quad-encoder
	LineEncoderB = 5 // F, quad-encoder
)

// DriveMotor is the smart port of the driven motor. The drive is skipped
// unless the port is wired as a motor.
const DriveMotor devices.Port = 1

const (
	TelemetryMS  = 1000
	AutonBlinkMS = 250
	AutonBlinks  = 12
	// AutonTurn is how far the drive motor turns in autonomous, in degrees.
	AutonTurn = 360
	AutonRPM  = 100
	DriveMS   = 10

	bumperPollMS = 5
	idleReportMS = 5000
)

// Stats is shared between the demo tasks.
type Stats struct {
	Presses  int
	Releases int

	Driving  bool
	Voltage  int32
	Position float64
}

// Program is the user entry point. It is started again from scratch every
// time the competition mode changes.
func Program(s *system.System) {
	sched := s.Scheduler()
	switch s.Mode() {
	case hal.ModeAutonomous:
		autonomous(s)
	case hal.ModeDriverControl:
		stats := kernel.NewMutex(sched, Stats{})
		sched.Spawn(func() { bumper(s, stats) })
		sched.Spawn(func() { telemetry(s, stats) })
		if s.Registry().KindOf(DriveMotor) == devices.KindMotor {
			sched.Spawn(func() { drive(s, stats) })
		}
	}
	for {
		s.Printf("demo: idle mode=%s", s.Mode())
		sched.SleepFor(idleReportMS)
	}
}

func wired(reg *devices.Registry, index int, kind devices.ADIKind) bool {
	return reg.SubKindOf(Expander, index) == kind
}

func autonomous(s *system.System) {
	reg := s.Registry()
	if reg.KindOf(DriveMotor) == devices.KindMotor {
		if m, err := devices.NewMotor(reg, DriveMotor); err == nil {
			if err := m.MoveRelative(AutonTurn, AutonRPM); err != nil {
				s.Printf("demo: autonomous: %v", err)
			}
		}
	}
	if !wired(reg, LineLED, devices.ADIDigitalOut) {
		s.Printf("demo: autonomous: no indicator wired")
		return
	}
	led, err := devices.NewDigitalOut(reg, Expander, LineLED)
	if err != nil {
		return
	}
	t := kernel.NewTimer(s.Scheduler().Clock(), AutonBlinkMS*AutonBlinks)
	for !t.Elapsed() {
		if err := led.Toggle(); err != nil {
			s.Printf("demo: autonomous: %v", err)
			return
		}
		s.Scheduler().SleepFor(AutonBlinkMS)
	}
	_ = led.Write(false)
	s.Printf("demo: autonomous done after %dms", t.Spent())
}

func bumper(s *system.System, stats *kernel.Mutex[Stats]) {
	reg := s.Registry()
	if !wired(reg, LineBumper, devices.ADIDigitalIn) {
		s.Printf("demo: bumper: not wired")
		return
	}
	in, err := devices.NewDigitalIn(reg, Expander, LineBumper)
	if err != nil {
		return
	}
	var led *devices.DigitalOut
	if wired(reg, LineLED, devices.ADIDigitalOut) {
		led, _ = devices.NewDigitalOut(reg, Expander, LineLED)
	}

	for {
		if err := in.AwaitHigh(); err != nil {
			s.Printf("demo: bumper: %v", err)
			return
		}
		stats.With(func(st *Stats) { st.Presses++ })
		if led != nil {
			_ = led.Write(true)
		}
		if err := in.AwaitLow(); err != nil {
			s.Printf("demo: bumper: %v", err)
			return
		}
		stats.With(func(st *Stats) { st.Releases++ })
		if led != nil {
			_ = led.Write(false)
		}
		s.Scheduler().SleepFor(bumperPollMS)
	}
}

// drive follows the left stick with the motor. A zeroes the motor position.
func drive(s *system.System, stats *kernel.Mutex[Stats]) {
	reg := s.Registry()
	pad, err := reg.Controller(hal.ControllerMaster)
	if err != nil {
		s.Printf("demo: drive: %v", err)
		return
	}
	m, err := devices.NewMotor(reg, DriveMotor)
	if err != nil {
		return
	}
	_ = pad.SetText(0, 0, "demo drive")

	for {
		v, err := pad.Analog(hal.AxisLeftY)
		if err != nil {
			s.Printf("demo: drive: %v", err)
			return
		}
		if err := m.SetVoltage(v); err != nil {
			s.Printf("demo: drive: %v", err)
			return
		}
		if p, _ := pad.Pressed(hal.ButtonA); p {
			if err := m.ResetPosition(); err == nil {
				_ = pad.Rumble(".")
			}
		}
		pos, _ := m.Position()
		stats.With(func(st *Stats) {
			st.Driving = true
			st.Voltage = v
			st.Position = pos
		})
		s.Scheduler().SleepFor(DriveMS)
	}
}

func telemetry(s *system.System, stats *kernel.Mutex[Stats]) {
	reg := s.Registry()
	var light *devices.AnalogIn
	if wired(reg, LineLight, devices.ADIAnalogIn) {
		light, _ = devices.NewAnalogIn(reg, Expander, LineLight)
	}
	var enc *devices.Encoder
	if wired(reg, LineEncoderA, devices.ADIQuadEncoder) && wired(reg, LineEncoderB, devices.ADIQuadEncoder) {
		enc, _ = devices.NewEncoder(reg, Expander, LineEncoderA, LineEncoderB)
		if enc != nil {
			_ = enc.Reset()
		}
	}

	next := s.Scheduler().Clock().Millis()
	for {
		g := stats.Acquire()
		st := *g.Value()
		g.Release()

		var b strings.Builder
		fmt.Fprintf(&b, "demo: presses=%d releases=%d", st.Presses, st.Releases)
		if st.Driving {
			fmt.Fprintf(&b, " drive=%d motor=%.0f", st.Voltage, st.Position)
		}
		if light != nil {
			if v, err := light.Read(); err == nil {
				fmt.Fprintf(&b, " light=%d", v)
			}
		}
		if enc != nil {
			if v, err := enc.Ticks(); err == nil {
				fmt.Fprintf(&b, " ticks=%d", v)
			}
		}
		s.Logger().WriteLineString(b.String())

		next += TelemetryMS
		s.Scheduler().SleepUntil(next)
	}
}
