package kernel

import (
	"strings"
	"testing"
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

func newTestScheduler(t *testing.T, maxTasks int) (*Scheduler, *ManualClock, *lineLog) {
	t.Helper()
	clk := &ManualClock{Step: 1}
	log := &lineLog{}
	s := New(Config{MaxTasks: maxTasks, StackSize: 256, Clock: clk, Logger: log})
	return s, clk, log
}

// drain yields from the supervisor until every spawned task has finished.
func drain(t *testing.T, s *Scheduler) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		if s.Live() == 1 {
			return
		}
		s.Yield()
	}
	t.Fatalf("tasks still live after 1000 yields: %v", s.Snapshot())
}

func equalTrace(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
