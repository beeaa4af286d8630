package kernel

// stallReportMillis is the interval between repeated "no runnable task"
// diagnostics while the scheduler is stuck.
const stallReportMillis = 1000

// Config sizes and wires a Scheduler. Zero fields take defaults.
type Config struct {
	MaxTasks  int
	StackSize int
	Clock     Clock
	Logger    Logger
	Switcher  Switcher
}

// Runtime is the part of the scheduler that blocking primitives build on.
type Runtime interface {
	CurrentTask() TaskID
	CurrentHandle() TaskHandle
	Alive(h TaskHandle) bool
	AwaitWake(sig WakeSignal) bool
	Wake(id TaskID, sig WakeSignal) bool
}

// Scheduler is a round-robin cooperative scheduler over a fixed task table.
//
// It is not safe for concurrent use, and does not need to be: only the task
// holding the CPU ever calls into it.
type Scheduler struct {
	tasks   []Task
	current TaskID

	clock Clock
	idle  Idler
	log   Logger
	sw    Switcher

	stalled   bool
	lastStall uint32
}

// New builds the task table and adopts the caller as the supervisor task in
// slot 0.
func New(cfg Config) *Scheduler {
	if cfg.MaxTasks <= 1 {
		cfg.MaxTasks = DefaultMaxTasks
	}
	if cfg.MaxTasks > MaxTasksLimit {
		cfg.MaxTasks = MaxTasksLimit
	}
	if cfg.StackSize < FrameSize {
		cfg.StackSize = DefaultStackSize
	}
	if cfg.Clock == nil {
		cfg.Clock = NewSystemClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}
	if cfg.Switcher == nil {
		cfg.Switcher = newBatonSwitcher()
	}

	s := &Scheduler{
		tasks: make([]Task, cfg.MaxTasks),
		clock: cfg.Clock,
		log:   cfg.Logger,
		sw:    cfg.Switcher,
	}
	s.idle, _ = cfg.Clock.(Idler)
	for i := range s.tasks {
		s.tasks[i] = newTask(TaskID(i), cfg.StackSize)
	}

	sup := &s.tasks[Supervisor]
	sup.state = Running()
	s.sw.Bind(sup)
	return s
}

// Spawn starts entry in the next available slot after the current one. When
// the pool is exhausted nothing happens and the returned handle is invalid.
// The running slot is never reused, even if it was just killed.
func (s *Scheduler) Spawn(entry func()) TaskHandle {
	if entry == nil {
		return TaskHandle{}
	}
	n := len(s.tasks)
	for i := 1; i < n; i++ {
		t := &s.tasks[(int(s.current)+i)%n]
		if t.state.Kind != StateAvailable {
			continue
		}
		t.Initialize(entry)
		s.sw.Prepare(t, s.enter)
		t.state = Ready()
		return TaskHandle{id: t.ID, gen: t.gen, valid: true}
	}
	s.logf("kernel: spawn dropped: no available slot (max=%d)", n)
	return TaskHandle{}
}

// Alive reports whether the incarnation behind h has not finished or been
// killed.
func (s *Scheduler) Alive(h TaskHandle) bool {
	if !h.valid || int(h.id) >= len(s.tasks) {
		return false
	}
	t := &s.tasks[h.id]
	return t.gen == h.gen && t.state.Kind != StateAvailable
}

// Yield lets every other ready task run once before the caller continues.
func (s *Scheduler) Yield() {
	s.yieldAs(Ready())
}

// SleepFor suspends the current task for at least ms milliseconds.
func (s *Scheduler) SleepFor(ms uint32) {
	s.yieldAs(WaitUntil(s.clock.Millis() + ms))
}

// SleepUntil suspends the current task until the clock reaches ms.
func (s *Scheduler) SleepUntil(ms uint32) {
	s.yieldAs(WaitUntil(ms))
}

// AwaitWake blocks the current task until Wake(current, sig). It returns
// false without blocking when no other task could ever run.
func (s *Scheduler) AwaitWake(sig WakeSignal) bool {
	return s.yieldAs(AwaitWake(sig))
}

// Wake readies task id if it is waiting for sig and switches into it at
// once; the caller resumes later as an ordinary ready task.
func (s *Scheduler) Wake(id TaskID, sig WakeSignal) bool {
	if int(id) >= len(s.tasks) || id == s.current {
		return false
	}
	t := &s.tasks[id]
	if t.state.Kind != StateAwaitWake || t.state.Signal != sig {
		return false
	}
	if cur := &s.tasks[s.current]; cur.state.Kind != StateAvailable {
		cur.state = Ready()
	}
	s.switchTo(t)
	return true
}

// Kill marks task id available. It does not switch, unwind the task or
// release anything it holds. The supervisor cannot be killed.
//
// The killed task's goroutine stays parked on its resume channel for the
// life of the process: unwinding it would run its defers, and those release
// locks the task no longer owns. Every Kill of a started task, and every
// Abort, therefore leaves one idle goroutine behind. Respawning the slot
// starts a fresh one.
func (s *Scheduler) Kill(id TaskID) {
	if int(id) >= len(s.tasks) {
		return
	}
	if id == Supervisor {
		s.logf("kernel: kill ignored: task=%d is the supervisor", id)
		return
	}
	s.tasks[id].state = Available()
}

// KillCurrent kills the running task. It keeps running until it yields.
func (s *Scheduler) KillCurrent() {
	s.Kill(s.current)
}

// Abort terminates the running task because of a fatal fault. In a spawned
// task it does not return. The supervisor only logs the fault.
func (s *Scheduler) Abort(err error) {
	id := s.current
	s.logf("kernel: abort task=%d err=%v", id, err)
	if id == Supervisor {
		return
	}
	s.KillCurrent()
	s.retire(false)
}

func (s *Scheduler) CurrentTask() TaskID { return s.current }

// CurrentHandle identifies the running incarnation of the current slot.
func (s *Scheduler) CurrentHandle() TaskHandle {
	t := &s.tasks[s.current]
	return TaskHandle{id: t.ID, gen: t.gen, valid: true}
}

// Idle runs the clock's idle hook, if it has one.
func (s *Scheduler) Idle() {
	if s.idle != nil {
		s.idle.Idle()
	}
}

func (s *Scheduler) MaxTasks() int { return len(s.tasks) }

// State returns the state of slot id.
func (s *Scheduler) State(id TaskID) State {
	if int(id) >= len(s.tasks) {
		return Available()
	}
	return s.tasks[id].state
}

// Task returns slot id, or nil when out of range.
func (s *Scheduler) Task(id TaskID) *Task {
	if int(id) >= len(s.tasks) {
		return nil
	}
	return &s.tasks[id]
}

// Live counts slots that are not available, the supervisor included.
func (s *Scheduler) Live() int {
	n := 0
	for i := range s.tasks {
		if s.tasks[i].state.Kind != StateAvailable {
			n++
		}
	}
	return n
}

// Snapshot returns the state of every slot.
func (s *Scheduler) Snapshot() []TaskInfo {
	out := make([]TaskInfo, len(s.tasks))
	for i := range s.tasks {
		out[i] = TaskInfo{ID: s.tasks[i].ID, State: s.tasks[i].state}
	}
	return out
}

// Clock returns the clock deadlines are measured against.
func (s *Scheduler) Clock() Clock { return s.clock }

func (s *Scheduler) yieldAs(st State) bool {
	cur := &s.tasks[s.current]
	// A task killed while running stays available across its last yield.
	if cur.state.Kind != StateAvailable {
		cur.state = st
	}

	next := s.next()
	switch {
	case next == nil:
		if cur.state.Kind != StateAvailable {
			cur.state = Running()
		}
		s.reportStall("yield")
		return false
	case next == cur:
		cur.state = Running()
	default:
		s.switchTo(next)
	}
	s.stalled = false
	return true
}

// next scans forward from the slot after the current one, wrapping, and
// returns the first ready task or a sleeper whose deadline has passed. The
// current slot is considered last. While only sleepers remain it polls the
// clock; it returns nil when nothing can become runnable.
func (s *Scheduler) next() *Task {
	for {
		t, pending := s.scan()
		if t != nil || !pending {
			return t
		}
		if s.idle != nil {
			s.idle.Idle()
		}
	}
}

func (s *Scheduler) scan() (next *Task, pending bool) {
	n := len(s.tasks)
	now := s.clock.Millis()
	for i := 1; i <= n; i++ {
		t := &s.tasks[(int(s.current)+i)%n]
		switch t.state.Kind {
		case StateReady:
			return t, pending
		case StateWaitUntil:
			if reached(now, t.state.Deadline) {
				t.state = Ready()
				return t, pending
			}
			pending = true
		}
	}
	return nil, pending
}

func (s *Scheduler) switchTo(next *Task) {
	prev := &s.tasks[s.current]
	next.state = Running()
	s.current = next.ID
	s.sw.Switch(prev, next)
}

// retire hands the CPU away from the current, already killed task. With
// exit set the caller's context is dropped and retire returns once the next
// task owns the CPU; otherwise the context is parked and never resumed.
func (s *Scheduler) retire(exit bool) {
	for {
		next := s.next()
		if next == nil {
			s.reportStall("guard")
			if s.idle != nil {
				s.idle.Idle()
			}
			continue
		}
		s.stalled = false
		if !exit {
			s.switchTo(next)
			return
		}
		next.state = Running()
		s.current = next.ID
		s.sw.Exit(next)
		return
	}
}

func (s *Scheduler) reportStall(where string) {
	now := s.clock.Millis()
	if s.stalled && !reached(now, s.lastStall+stallReportMillis) {
		return
	}
	s.stalled = true
	s.lastStall = now
	s.logf("kernel: %s: no runnable task (current=%d state=%s)", where, s.current, s.tasks[s.current].state)
}
