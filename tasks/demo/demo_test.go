package demo

import (
	"strings"
	"testing"

	"brainos/config"
	"brainos/hal"
	"brainos/kernel"
	"brainos/system"
)

type lineLog struct {
	lines []string
}

func (l *lineLog) WriteLineString(s string) { l.lines = append(l.lines, s) }
func (l *lineLog) WriteLineBytes(b []byte)  { l.WriteLineString(string(b)) }

func (l *lineLog) contains(sub string) bool {
	for _, line := range l.lines {
		if strings.Contains(line, sub) {
			return true
		}
	}
	return false
}

type line struct {
	cfg    hal.ADIConfig
	value  int32
	writes int
}

func (l *line) Name() string                      { return "demo" }
func (l *line) Configure(cfg hal.ADIConfig) error { l.cfg = cfg; return nil }
func (l *line) Config() hal.ADIConfig             { return l.cfg }
func (l *line) Value() (int32, error)             { return l.value, nil }
func (l *line) SetValue(v int32) error            { l.value = v; l.writes++; return nil }

type adi struct {
	lines [8]*line
}

func (a *adi) Line(port, index int) hal.ADILine {
	if port != int(Expander) || index < 0 || index >= len(a.lines) {
		return nil
	}
	return a.lines[index]
}

type motor struct {
	voltage  int32
	position float64
	moves    []float64
}

func (m *motor) SetVoltage(v int32) error                { m.voltage = v; return nil }
func (m *motor) SetBrakeMode(hal.BrakeMode) error        { return nil }
func (m *motor) BrakeMode() hal.BrakeMode                { return hal.BrakeCoast }
func (m *motor) SetEncoderUnits(hal.EncoderUnits) error  { return nil }
func (m *motor) EncoderUnits() hal.EncoderUnits          { return hal.UnitsDegrees }
func (m *motor) MoveAbsolute(p float64, rpm int32) error { m.moves = append(m.moves, p); return nil }
func (m *motor) Position() (float64, error)              { return m.position, nil }
func (m *motor) Velocity() (float64, error)              { return 0, nil }
func (m *motor) ResetPosition() error                    { m.position = 0; return nil }

func (m *motor) MoveRelative(d float64, rpm int32) error {
	m.moves = append(m.moves, m.position+d)
	return nil
}

type smart struct{ m *motor }

func (s *smart) Motor(port int) hal.Motor {
	if port != int(DriveMotor) {
		return nil
	}
	return s.m
}

type pad struct {
	buttons [hal.ButtonCount]bool
	axes    [hal.AxisCount]int32
	text    string
	rumbles int
}

func (p *pad) Status() hal.ControllerStatus        { return hal.ControllerTethered }
func (p *pad) Digital(b hal.Button) bool           { return p.buttons[b] }
func (p *pad) Analog(a hal.Axis) int32             { return p.axes[a] }
func (p *pad) BatteryLevel() int32                 { return 100 }
func (p *pad) BatteryCapacity() int32              { return 100 }
func (p *pad) SetText(_, _ int, text string) error { p.text = text; return nil }
func (p *pad) ClearScreen() error                  { p.text = ""; return nil }
func (p *pad) Rumble(string) error                 { p.rumbles++; return nil }

type comp struct{ mode hal.CompetitionMode }

func (c *comp) Status() hal.CompetitionStatus { return hal.StatusFor(c.mode) }

type testHAL struct {
	log   *lineLog
	clock *kernel.ManualClock
	adi   *adi
	smart *smart
	pad   *pad
	comp  *comp
}

func (h *testHAL) Logger() hal.Logger   { return h.log }
func (h *testHAL) Display() hal.Display { return nil }
func (h *testHAL) Clock() hal.Clock     { return h.clock }
func (h *testHAL) ADI() hal.ADI         { return h.adi }
func (h *testHAL) Smart() hal.Smart     { return h.smart }

func (h *testHAL) Controller(id hal.ControllerID) hal.Controller {
	if id != hal.ControllerMaster {
		return nil
	}
	return h.pad
}

func (h *testHAL) Competition() hal.Competition { return h.comp }

func newTestHAL(mode hal.CompetitionMode) *testHAL {
	a := &adi{}
	for i := range a.lines {
		a.lines[i] = &line{cfg: hal.ADIUndefined}
	}
	return &testHAL{
		log:   &lineLog{},
		clock: &kernel.ManualClock{Step: 1},
		adi:   a,
		smart: &smart{m: &motor{}},
		pad:   &pad{},
		comp:  &comp{mode: mode},
	}
}

func boot(t *testing.T, h *testHAL, extra ...config.PortSpec) *system.System {
	t.Helper()
	t.Cleanup(func() { kernel.SetPanicHandler(func(kernel.PanicInfo) {}) })
	cfg := config.Default()
	cfg.Ports = append([]config.PortSpec{{
		Port: int(Expander),
		Kind: "adi-expander",
		ADI:  map[string]string{"A": "digital-in", "B": "digital-out", "C": "analog-in"},
	}}, extra...)
	s, err := system.New(h, cfg, Program)
	if err != nil {
		t.Fatalf("system.New: %v", err)
	}
	return s
}

func step(t *testing.T, s *system.System, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := s.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
}

func TestDriverCountsBumperPresses(t *testing.T) {
	h := newTestHAL(hal.ModeDriverControl)
	s := boot(t, h)
	bump, led, light := h.adi.lines[LineBumper], h.adi.lines[LineLED], h.adi.lines[LineLight]
	light.value = 1234

	step(t, s, 3)
	if got := s.Scheduler().Live(); got != 4 {
		t.Fatalf("live = %d, want supervisor, program, bumper and telemetry", got)
	}
	if !h.log.contains("demo: presses=0 releases=0 light=1234") {
		t.Fatalf("first report missing: %q", h.log.lines)
	}

	bump.value = 1
	step(t, s, 3)
	if led.value != 1 {
		t.Fatalf("indicator off while the bumper is pressed")
	}
	bump.value = 0
	step(t, s, 3)
	if led.value != 0 {
		t.Fatalf("indicator on after release")
	}

	h.clock.Advance(TelemetryMS)
	step(t, s, 3)
	if !h.log.contains("demo: presses=1 releases=1") {
		t.Fatalf("press not counted: %q", h.log.lines)
	}
}

func TestAutonomousBlinks(t *testing.T) {
	h := newTestHAL(hal.ModeAutonomous)
	s := boot(t, h)
	led := h.adi.lines[LineLED]

	for i := 0; i < AutonBlinks+4; i++ {
		step(t, s, 1)
		h.clock.Advance(AutonBlinkMS)
	}
	step(t, s, 2)
	if !h.log.contains("demo: autonomous done") {
		t.Fatalf("autonomous routine did not finish: %q", h.log.lines)
	}
	if led.writes < AutonBlinks {
		t.Fatalf("led written %d times, want at least %d", led.writes, AutonBlinks)
	}
	if led.value != 0 {
		t.Fatalf("indicator left on")
	}
}

func TestDisabledIdles(t *testing.T) {
	h := newTestHAL(hal.ModeDisabled)
	s := boot(t, h)
	step(t, s, 2)
	if got := s.Scheduler().Live(); got != 2 {
		t.Fatalf("live = %d, want supervisor and program", got)
	}
	if !h.log.contains("demo: idle mode=disabled") {
		t.Fatalf("idle not reported: %q", h.log.lines)
	}
}

var driveMotor = config.PortSpec{Port: int(DriveMotor), Kind: "motor"}

func TestDriverStickDrivesMotor(t *testing.T) {
	h := newTestHAL(hal.ModeDriverControl)
	s := boot(t, h, driveMotor)
	m, p := h.smart.m, h.pad
	m.position = 720
	p.axes[hal.AxisLeftY] = 64

	step(t, s, 3)
	if got := s.Scheduler().Live(); got != 5 {
		t.Fatalf("live = %d, want the drive task running too", got)
	}
	if m.voltage != 64 {
		t.Fatalf("motor voltage = %d, want the stick's 64", m.voltage)
	}
	if p.text != "demo drive" {
		t.Fatalf("controller screen = %q", p.text)
	}

	p.axes[hal.AxisLeftY] = -127
	p.buttons[hal.ButtonA] = true
	h.clock.Advance(DriveMS)
	step(t, s, 3)
	if m.voltage != -127 {
		t.Fatalf("motor voltage = %d after the stick moved", m.voltage)
	}
	if m.position != 0 || p.rumbles != 1 {
		t.Fatalf("A press: position=%v rumbles=%d", m.position, p.rumbles)
	}

	// Holding A is one press.
	h.clock.Advance(DriveMS)
	step(t, s, 3)
	if p.rumbles != 1 {
		t.Fatalf("held button rumbled %d times", p.rumbles)
	}

	h.clock.Advance(TelemetryMS)
	step(t, s, 3)
	if !h.log.contains("drive=-127 motor=0") {
		t.Fatalf("drive missing from telemetry: %q", h.log.lines)
	}
}

func TestAutonomousTurnsMotor(t *testing.T) {
	h := newTestHAL(hal.ModeAutonomous)
	s := boot(t, h, driveMotor)
	h.smart.m.position = 90
	step(t, s, 2)
	if got := h.smart.m.moves; len(got) != 1 || got[0] != 90+AutonTurn {
		t.Fatalf("autonomous moves = %v, want [%d]", got, 90+AutonTurn)
	}
}
