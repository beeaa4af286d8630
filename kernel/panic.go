package kernel

import "sync/atomic"

// PanicInfo contains details about a panic recovered from a task.
type PanicInfo struct {
	TaskID TaskID
	Value  any
	Stack  []byte
}

var panicHandler atomic.Value // func(PanicInfo)

// SetPanicHandler installs a process-wide handler for task panics.
//
// The handler runs on the panicking task before it is killed. It must not
// panic and must not block.
func SetPanicHandler(fn func(PanicInfo)) {
	panicHandler.Store(fn)
}

func reportPanic(info PanicInfo) {
	info.Stack = captureStack()
	if v := panicHandler.Load(); v != nil {
		if fn, ok := v.(func(PanicInfo)); ok && fn != nil {
			fn(info)
		}
	}
}
