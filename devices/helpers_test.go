package devices

import (
	"errors"
	"strings"
	"testing"

	"brainos/hal"
	"brainos/kernel"
)

type lineLog struct {
	lines []string
}

func (l *lineLog) WriteLineString(s string) { l.lines = append(l.lines, s) }

func (l *lineLog) contains(sub string) bool {
	for _, line := range l.lines {
		if strings.Contains(line, sub) {
			return true
		}
	}
	return false
}

type fakeLine struct {
	cfg     hal.ADIConfig
	value   int32
	configs int
}

func (l *fakeLine) Name() string { return "fake" }

func (l *fakeLine) Configure(cfg hal.ADIConfig) error {
	l.cfg = cfg
	l.configs++
	return nil
}

func (l *fakeLine) Config() hal.ADIConfig { return l.cfg }

func (l *fakeLine) Value() (int32, error) {
	if l.cfg == hal.ADIUndefined {
		return 0, errors.New("not configured")
	}
	return l.value, nil
}

func (l *fakeLine) SetValue(v int32) error {
	l.value = v
	return nil
}

type fakeADI struct {
	lines map[[2]int]*fakeLine
}

func newFakeADI() *fakeADI {
	return &fakeADI{lines: make(map[[2]int]*fakeLine)}
}

func (a *fakeADI) Line(port, index int) hal.ADILine {
	return a.line(port, index)
}

func (a *fakeADI) line(port, index int) *fakeLine {
	key := [2]int{port, index}
	l, ok := a.lines[key]
	if !ok {
		l = &fakeLine{cfg: hal.ADIUndefined}
		a.lines[key] = l
	}
	return l
}

func newTestRegistry(t *testing.T) (*Registry, *kernel.Scheduler, *fakeADI, *lineLog) {
	t.Helper()
	log := &lineLog{}
	s := kernel.New(kernel.Config{MaxTasks: 4, StackSize: 256, Clock: &kernel.ManualClock{Step: 1}, Logger: log})
	adi := newFakeADI()
	return NewRegistry(s, Hardware{ADI: adi}), s, adi, log
}

func drain(t *testing.T, s *kernel.Scheduler) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		if s.Live() == 1 {
			return
		}
		s.Yield()
	}
	t.Fatalf("tasks still live after 1000 yields: %v", s.Snapshot())
}

func asFault(t *testing.T, err error) *Fault {
	t.Helper()
	var f *Fault
	if !errors.As(err, &f) {
		t.Fatalf("err = %v, want *Fault", err)
	}
	return f
}
