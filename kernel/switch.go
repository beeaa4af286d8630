package kernel

// Switcher is the machine-specific half of a context switch.
//
// Calling convention: Switch saves every register of from into a frame on
// its own stack, records the stack pointer offset, restores the frame of to
// and continues at its pc. To either task Switch looks like a call that
// returns later. Exit does the same without saving from; the
// caller's context is discarded.
type Switcher interface {
	// Bind attaches the calling thread of control to t. It is used once, for
	// the supervisor, which is already running when the scheduler is built.
	Bind(t *Task)

	// Prepare readies a freshly initialised t. Any previous context of the
	// slot is abandoned without being resumed.
	Prepare(t *Task, enter func(*Task))

	Switch(from, to *Task)
	Exit(to *Task)
}

// batonSwitcher backs every task with a goroutine and passes a single baton
// between them, so exactly one task executes at any instant. A goroutine
// only runs while it holds the baton; handing it over is the switch.
type batonSwitcher struct {
	threads [MaxTasksLimit]*thread
}

type thread struct {
	resume  chan struct{}
	started bool
	enter   func(*Task)
}

func newBatonSwitcher() *batonSwitcher {
	return &batonSwitcher{}
}

func (s *batonSwitcher) Bind(t *Task) {
	s.threads[t.ID] = &thread{resume: make(chan struct{}, 1), started: true}
}

func (s *batonSwitcher) Prepare(t *Task, enter func(*Task)) {
	s.threads[t.ID] = &thread{resume: make(chan struct{}, 1), enter: enter}
}

func (s *batonSwitcher) Switch(from, to *Task) {
	self := s.threads[from.ID]
	from.save()
	s.handoff(to)
	// A killed task is never resumed: its thread was replaced or will never
	// be selected again, so the receive below parks it for good.
	<-self.resume
}

func (s *batonSwitcher) Exit(to *Task) {
	s.handoff(to)
}

func (s *batonSwitcher) handoff(to *Task) {
	th := s.threads[to.ID]
	if th == nil {
		return
	}
	if !th.started {
		th.started = true
		go func() {
			<-th.resume
			th.enter(to)
		}()
	}
	th.resume <- struct{}{}
}
