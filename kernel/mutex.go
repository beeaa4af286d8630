package kernel

// Mutex is a cooperative lock with FIFO hand-off. Contended acquirers block
// in AwaitWake(WakeMutexRelease); Release switches straight into the oldest
// waiter. Waiters are queued by handle, so a slot that was killed and
// respawned while queued is never woken on behalf of its old incarnation.
type Mutex[T any] struct {
	rt      Runtime
	locked  bool
	waiters []TaskHandle
	data    T
}

// NewMutex returns an unlocked mutex guarding v.
func NewMutex[T any](rt Runtime, v T) *Mutex[T] {
	return &Mutex[T]{rt: rt, data: v}
}

// IsTaken reports whether a guard is currently held.
func (m *Mutex[T]) IsTaken() bool { return m.locked }

// Waiters returns the queued task ids, oldest first.
func (m *Mutex[T]) Waiters() []TaskID {
	ids := make([]TaskID, len(m.waiters))
	for i, w := range m.waiters {
		ids[i] = w.id
	}
	return ids
}

// Acquire blocks until the caller holds the lock.
func (m *Mutex[T]) Acquire() *Guard[T] {
	if !m.locked && len(m.waiters) == 0 {
		m.locked = true
		return &Guard[T]{m: m}
	}

	h := m.rt.CurrentHandle()
	m.waiters = append(m.waiters, h)
	for m.locked {
		if !m.rt.AwaitWake(WakeMutexRelease) {
			// Nothing else can run; back off instead of spinning.
			if idle, ok := m.rt.(Idler); ok {
				idle.Idle()
			}
		}
		if m.locked && !m.queued(h) {
			// Woken but beaten to the lock: keep our place at the front.
			m.waiters = append([]TaskHandle{h}, m.waiters...)
		}
	}
	m.dequeue(h)
	m.locked = true
	return &Guard[T]{m: m}
}

// TryAcquire takes the lock only if that needs no waiting.
func (m *Mutex[T]) TryAcquire() (*Guard[T], bool) {
	if m.locked || len(m.waiters) > 0 {
		return nil, false
	}
	m.locked = true
	return &Guard[T]{m: m}, true
}

// With runs fn while holding the lock.
func (m *Mutex[T]) With(fn func(v *T)) {
	g := m.Acquire()
	defer g.Release()
	fn(g.Value())
}

func (m *Mutex[T]) release() {
	m.locked = false
	for len(m.waiters) > 0 {
		next := m.waiters[0]
		m.waiters = m.waiters[1:]
		// Killed while queued, possibly with its slot reused since.
		if !m.rt.Alive(next) {
			continue
		}
		if m.rt.Wake(next.id, WakeMutexRelease) {
			return
		}
	}
}

func (m *Mutex[T]) queued(h TaskHandle) bool {
	for _, w := range m.waiters {
		if w == h {
			return true
		}
	}
	return false
}

func (m *Mutex[T]) dequeue(h TaskHandle) {
	for i, w := range m.waiters {
		if w == h {
			m.waiters = append(m.waiters[:i], m.waiters[i+1:]...)
			return
		}
	}
}

// Guard is exclusive access to a mutex payload. Release it exactly once,
// normally with defer.
type Guard[T any] struct {
	m        *Mutex[T]
	released bool
}

// Value returns the protected payload. It must not be used after Release.
func (g *Guard[T]) Value() *T {
	return &g.m.data
}

// Release unlocks the mutex. Later calls do nothing.
func (g *Guard[T]) Release() {
	if g == nil || g.released {
		return
	}
	g.released = true
	g.m.release()
}
