package kernel

import "fmt"

// TaskID is the index of a task slot. Slot 0 is the supervisor.
type TaskID uint8

// Supervisor is the slot of the kernel task that constructs the scheduler.
const Supervisor TaskID = 0

// StateKind is the lifecycle state of a task slot.
type StateKind uint8

const (
	StateAvailable StateKind = iota
	StateReady
	StateRunning
	StateWaitUntil
	StateAwaitWake
)

func (k StateKind) String() string {
	switch k {
	case StateAvailable:
		return "available"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateWaitUntil:
		return "wait-until"
	case StateAwaitWake:
		return "await-wake"
	default:
		return "unknown"
	}
}

// WakeSignal tags a blocking wait so a task is only woken for the reason it
// is waiting on.
type WakeSignal uint8

const (
	WakeNone WakeSignal = iota
	WakeMutexRelease

	// WakeUser is the first signal value free for application use.
	WakeUser WakeSignal = 16
)

func (s WakeSignal) String() string {
	switch s {
	case WakeNone:
		return "none"
	case WakeMutexRelease:
		return "mutex-release"
	default:
		if s >= WakeUser {
			return fmt.Sprintf("user+%d", s-WakeUser)
		}
		return fmt.Sprintf("signal(%d)", uint8(s))
	}
}

// State is a task state. Deadline is meaningful for StateWaitUntil and Signal
// for StateAwaitWake.
type State struct {
	Kind     StateKind
	Deadline uint32
	Signal   WakeSignal
}

func Available() State { return State{Kind: StateAvailable} }
func Ready() State     { return State{Kind: StateReady} }
func Running() State   { return State{Kind: StateRunning} }

// WaitUntil is the state of a task sleeping until the clock reaches deadline
// (milliseconds).
func WaitUntil(deadline uint32) State {
	return State{Kind: StateWaitUntil, Deadline: deadline}
}

// AwaitWake is the state of a task blocked until Wake is called with sig.
func AwaitWake(sig WakeSignal) State {
	return State{Kind: StateAwaitWake, Signal: sig}
}

func (s State) String() string {
	switch s.Kind {
	case StateWaitUntil:
		return fmt.Sprintf("wait-until(%d)", s.Deadline)
	case StateAwaitWake:
		return fmt.Sprintf("await-wake(%s)", s.Signal)
	default:
		return s.Kind.String()
	}
}

// TaskInfo is a point-in-time view of one slot.
type TaskInfo struct {
	ID    TaskID
	State State
}
