package kernel

// enter runs on a task's own thread the first time the task is switched
// into. It follows the frame laid out by Initialize: pc selects the entry,
// lr the routine that runs when the entry returns.
func (s *Scheduler) enter(t *Task) {
	f := t.Frame()
	if f.PC == EntryAddr(t.ID) {
		s.call(t)
	} else {
		s.logf("kernel: bad frame task=%d pc=%#08x", t.ID, f.PC)
	}
	if f.LR == GuardAddr {
		s.guard(t)
	}
}

// call runs the task entry, isolating a panic to the task that raised it.
func (s *Scheduler) call(t *Task) {
	defer func() {
		if r := recover(); r != nil {
			s.logf("kernel: task panic task=%d panic=%v", t.ID, r)
			reportPanic(PanicInfo{TaskID: t.ID, Value: r})
		}
	}()
	t.entry()
}

// guard is where a task lands when its entry returns: the slot is released
// and the CPU handed to the next runnable task. When there is none it keeps
// reporting and retrying.
func (s *Scheduler) guard(t *Task) {
	if s.current != t.ID {
		s.logf("kernel: guard task=%d while current=%d", t.ID, s.current)
	}
	s.KillCurrent()
	s.retire(true)
}
