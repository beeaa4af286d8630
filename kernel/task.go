package kernel

import "unsafe"

// Task is one slot of the task table: a private stack, the saved stack
// pointer offset and a lifecycle state.
type Task struct {
	ID TaskID

	state  State
	stack  []byte
	offset uint32
	gen    uint32
	entry  func()
}

func newTask(id TaskID, stackSize int) Task {
	return Task{
		ID:    id,
		state: Available(),
		stack: make([]byte, stackSize),
	}
}

// Initialize zeroes the stack and lays out a frame whose restore lands at
// entry, with the guard as the return address should entry ever return.
func (t *Task) Initialize(entry func()) {
	clear(t.stack)
	t.entry = entry
	t.gen++
	t.offset = uint32(len(t.stack) - FrameSize)

	var f Frame
	f.LR = GuardAddr
	f.PC = EntryAddr(t.ID)
	f.put(t.stack[t.offset:])
}

// save records a suspension frame for the running task.
func (t *Task) save() {
	t.offset = uint32(len(t.stack) - FrameSize)

	var f Frame
	f.LR = GuardAddr
	f.PC = ResumeAddr
	f.put(t.stack[t.offset:])
}

// Offset is the saved stack pointer relative to the stack base. Only the
// offset is persisted, so the stack storage may move between suspensions.
func (t *Task) Offset() uint32 { return t.offset }

// SP returns the live stack pointer: base + length - saved frame.
func (t *Task) SP() uintptr {
	if len(t.stack) == 0 {
		return 0
	}
	base := uintptr(unsafe.Pointer(&t.stack[0]))
	return base + uintptr(len(t.stack)) - SavedRegisters*WordSize
}

// Frame decodes the frame at the saved stack pointer.
func (t *Task) Frame() Frame {
	if int(t.offset)+FrameSize > len(t.stack) {
		return Frame{}
	}
	return readFrame(t.stack[t.offset:])
}

// State returns the current state of the slot.
func (t *Task) State() State { return t.state }

// StackSize returns the size of the task's stack in bytes.
func (t *Task) StackSize() int { return len(t.stack) }

// TaskHandle identifies one incarnation of a slot returned by Spawn.
type TaskHandle struct {
	id    TaskID
	gen   uint32
	valid bool
}

// ID returns the slot of the spawned task.
func (h TaskHandle) ID() TaskID { return h.id }

// Valid reports whether Spawn found a free slot.
func (h TaskHandle) Valid() bool { return h.valid }
