package system

import (
	"errors"
	"strings"
	"testing"

	"brainos/config"
	"brainos/devices"
	"brainos/hal"
	"brainos/kernel"
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

type fakeComp struct {
	mode hal.CompetitionMode
}

func (c *fakeComp) Status() hal.CompetitionStatus { return hal.StatusFor(c.mode) }

type testFB struct {
	w, h     int
	buf      []byte
	presents int
}

func (f *testFB) Width() int              { return f.w }
func (f *testFB) Height() int             { return f.h }
func (f *testFB) Format() hal.PixelFormat { return hal.PixelFormatRGB565 }
func (f *testFB) StrideBytes() int        { return f.w * 2 }
func (f *testFB) Buffer() []byte          { return f.buf }
func (f *testFB) ClearRGB(r, g, b uint8)  {}
func (f *testFB) Present() error          { f.presents++; return nil }

type testDisplay struct{ fb *testFB }

func (d testDisplay) Framebuffer() hal.Framebuffer { return d.fb }

type fakeHAL struct {
	log   *lineLog
	clock *kernel.ManualClock
	comp  *fakeComp
	disp  hal.Display
	adi   hal.ADI
}

func (h *fakeHAL) Logger() hal.Logger   { return h.log }
func (h *fakeHAL) Display() hal.Display { return h.disp }
func (h *fakeHAL) Clock() hal.Clock     { return h.clock }
func (h *fakeHAL) ADI() hal.ADI         { return h.adi }
func (h *fakeHAL) Smart() hal.Smart     { return nil }

func (h *fakeHAL) Controller(hal.ControllerID) hal.Controller { return nil }

func (h *fakeHAL) Competition() hal.Competition { return h.comp }

func newFakeHAL() *fakeHAL {
	return &fakeHAL{
		log:   &lineLog{},
		clock: &kernel.ManualClock{Step: 1},
		comp:  &fakeComp{mode: hal.ModeDriverControl},
	}
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Runtime.MaxTasks = 4
	cfg.Runtime.StackSize = "256"
	cfg.Ports = []config.PortSpec{
		{Port: 1, Kind: "motor"},
		{Port: 22, Kind: "adi-expander", ADI: map[string]string{"A": "digital-in"}},
	}
	return cfg
}

func newTestSystem(t *testing.T, h *fakeHAL, user func(*System)) *System {
	t.Helper()
	t.Cleanup(func() { kernel.SetPanicHandler(func(kernel.PanicInfo) {}) })
	s, err := New(h, testConfig(), user)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func step(t *testing.T, s *System, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := s.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
}

func TestBootAppliesWiring(t *testing.T) {
	h := newFakeHAL()
	s := newTestSystem(t, h, nil)

	if !h.log.contains("system: boot") || !h.log.contains("tasks=4 stack=256 ports=2 mode=driver") {
		t.Fatalf("boot line missing: %q", h.log.lines)
	}
	reg := s.Registry()
	if reg.KindOf(1) != devices.KindMotor {
		t.Fatalf("port 1 = %s", reg.KindOf(1))
	}
	if reg.SubKindOf(22, 0) != devices.ADIDigitalIn {
		t.Fatalf("port 22 line A = %s", reg.SubKindOf(22, 0))
	}
	if s.UserTask().Valid() {
		t.Fatalf("user task started without a user program")
	}
	step(t, s, 2)
	if s.Scheduler().Live() != 1 {
		t.Fatalf("live = %d, want only the supervisor", s.Scheduler().Live())
	}
}

func TestBootRejectsBadConfig(t *testing.T) {
	t.Cleanup(func() { kernel.SetPanicHandler(func(kernel.PanicInfo) {}) })

	cfg := testConfig()
	cfg.Ports = append(cfg.Ports, config.PortSpec{Port: 3, Kind: "warp-drive"})
	if _, err := New(newFakeHAL(), cfg, nil); err == nil || !strings.HasPrefix(err.Error(), "config: ") {
		t.Fatalf("err = %v, want a config error", err)
	}

	cfg = testConfig()
	cfg.Runtime.MaxTasks = 1
	if _, err := New(newFakeHAL(), cfg, nil); err == nil {
		t.Fatalf("max_tasks=1 accepted")
	}

	if _, err := New(nil, nil, nil); err == nil {
		t.Fatalf("nil HAL accepted")
	}
}

func TestStepGivesUserATurn(t *testing.T) {
	n := 0
	s := newTestSystem(t, newFakeHAL(), func(s *System) {
		for {
			n++
			s.Scheduler().Yield()
		}
	})
	step(t, s, 3)
	if n != 3 {
		t.Fatalf("user ran %d times in 3 steps", n)
	}
	if s.Restarts() != 0 {
		t.Fatalf("restarts = %d without a mode change", s.Restarts())
	}
}

func TestModeChangeRestartsUser(t *testing.T) {
	h := newFakeHAL()
	var starts []hal.CompetitionMode
	s := newTestSystem(t, h, func(s *System) {
		starts = append(starts, s.Mode())
		for {
			s.Scheduler().Yield()
		}
	})
	step(t, s, 2)
	first := s.UserTask()

	h.comp.mode = hal.ModeAutonomous
	step(t, s, 1)

	if len(starts) != 2 || starts[0] != hal.ModeDriverControl || starts[1] != hal.ModeAutonomous {
		t.Fatalf("starts = %v", starts)
	}
	if s.Restarts() != 1 {
		t.Fatalf("restarts = %d", s.Restarts())
	}
	if s.Scheduler().Alive(first) {
		t.Fatalf("previous user task survived the restart")
	}
	if !s.Scheduler().Alive(s.UserTask()) {
		t.Fatalf("new user task is not alive")
	}
	if !h.log.contains("system: competition driver -> autonomous") {
		t.Fatalf("restart not logged: %q", h.log.lines)
	}
}

func TestRestartKillsHelperTasks(t *testing.T) {
	h := newFakeHAL()
	s := newTestSystem(t, h, func(s *System) {
		for i := 0; i < 2; i++ {
			s.Scheduler().Spawn(func() {
				for {
					s.Scheduler().SleepFor(10)
				}
			})
		}
		for {
			s.Scheduler().Yield()
		}
	})
	step(t, s, 2)
	if got := s.Scheduler().Live(); got != 4 {
		t.Fatalf("live = %d, want 4", got)
	}

	h.comp.mode = hal.ModeDisabled
	step(t, s, 1)
	// The restarted user program spawns its helpers again.
	step(t, s, 1)
	if got := s.Scheduler().Live(); got != 4 {
		t.Fatalf("live after restart = %d, want 4", got)
	}
}

func TestRestartDropsStaleLocks(t *testing.T) {
	h := newFakeHAL()
	acquired := 0
	s := newTestSystem(t, h, func(s *System) {
		// Never released.
		if _, err := s.Registry().Lock(22, 0, devices.ADIDigitalIn); err != nil {
			return
		}
		acquired++
		for {
			s.Scheduler().Yield()
		}
	})
	step(t, s, 2)
	if acquired != 1 {
		t.Fatalf("acquired = %d", acquired)
	}

	h.comp.mode = hal.ModeDisconnected
	step(t, s, 2)
	if acquired != 2 {
		t.Fatalf("restarted user program could not take the line: acquired = %d", acquired)
	}
	if s.Registry().SubKindOf(22, 0) != devices.ADIDigitalIn {
		t.Fatalf("wiring lost across restart")
	}
}

// flakyADI lines refuse to be configured while down is set.
type flakyADI struct {
	down bool
}

func (a *flakyADI) Line(port, index int) hal.ADILine { return &flakyLine{adi: a} }

type flakyLine struct {
	adi *flakyADI
	cfg hal.ADIConfig
}

func (l *flakyLine) Name() string           { return "flaky" }
func (l *flakyLine) Config() hal.ADIConfig  { return l.cfg }
func (l *flakyLine) Value() (int32, error)  { return 0, nil }
func (l *flakyLine) SetValue(v int32) error { return nil }
func (l *flakyLine) Configure(cfg hal.ADIConfig) error {
	if l.adi.down {
		return errors.New("expander not responding")
	}
	l.cfg = cfg
	return nil
}

func TestRestartFailureLeavesRobotIdle(t *testing.T) {
	h := newFakeHAL()
	adi := &flakyADI{}
	h.adi = adi
	starts := 0
	s := newTestSystem(t, h, func(s *System) {
		starts++
		for {
			s.Scheduler().Yield()
		}
	})
	step(t, s, 1)

	adi.down = true
	h.comp.mode = hal.ModeAutonomous
	if err := s.Step(); err == nil || !strings.Contains(err.Error(), "system: wiring") {
		t.Fatalf("Step err = %v, want a wiring error", err)
	}
	if !h.log.contains("system: restart failed, robot idle") {
		t.Fatalf("idle robot not logged: %q", h.log.lines)
	}
	if s.UserTask().Valid() || s.Scheduler().Live() != 1 {
		t.Fatalf("user task %v live=%d after a failed restart", s.UserTask(), s.Scheduler().Live())
	}
	if s.Restarts() != 0 {
		t.Fatalf("restarts = %d", s.Restarts())
	}

	// The next mode change binds again and brings the program back.
	adi.down = false
	h.comp.mode = hal.ModeDriverControl
	step(t, s, 2)
	if starts != 2 || s.Restarts() != 1 || !s.Scheduler().Alive(s.UserTask()) {
		t.Fatalf("starts=%d restarts=%d alive=%v", starts, s.Restarts(), s.Scheduler().Alive(s.UserTask()))
	}
}

func TestUserPanicIsLogged(t *testing.T) {
	h := newFakeHAL()
	s := newTestSystem(t, h, func(*System) { panic("boom") })
	step(t, s, 2)

	if s.Panics() != 1 {
		t.Fatalf("panics = %d", s.Panics())
	}
	if !h.log.contains("system: panic task=1 panic=boom") {
		t.Fatalf("panic not logged: %q", h.log.lines)
	}
	if s.Scheduler().Live() != 1 {
		t.Fatalf("panicked task still live")
	}
}

func TestStepDrawsConsole(t *testing.T) {
	h := newFakeHAL()
	fb := &testFB{w: 240, h: 136, buf: make([]byte, 240*136*2)}
	h.disp = testDisplay{fb: fb}
	s := newTestSystem(t, h, nil)

	step(t, s, 1)
	if fb.presents == 0 {
		t.Fatalf("nothing presented")
	}
	lit := 0
	for _, b := range fb.buf {
		if b != 0 {
			lit++
		}
	}
	if lit == 0 {
		t.Fatalf("screen is blank")
	}
}

func TestStackLines(t *testing.T) {
	stack := "goroutine 7 [running]:\n" +
		"runtime/debug.Stack()\n" +
		"\t/usr/lib/go/src/runtime/debug/stack.go:24 +0x5e\n" +
		"brainos/kernel.captureStack(...)\n" +
		"\t/src/kernel/stack_std.go:8\n" +
		"panic({0x1, 0x2})\n" +
		"\t/usr/lib/go/src/runtime/panic.go:770 +0x132\n" +
		"main.robot()\n" +
		"\t/src/main.go:12 +0x25\n\n"
	got := stackLines([]byte(stack))
	want := []string{"main.robot()", "/src/main.go:12 +0x25"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("stackLines = %q, want %q", got, want)
	}
}
