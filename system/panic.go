package system

import (
	"strings"

	"brainos/kernel"
)

// maxStackLines bounds how much of a panicking task's stack is logged; the
// console only keeps a dozen lines.
const maxStackLines = 16

func installPanicHandler(s *System) {
	kernel.SetPanicHandler(func(info kernel.PanicInfo) {
		s.panics++
		s.logf("system: panic task=%d panic=%v", info.TaskID, info.Value)
		if len(info.Stack) == 0 {
			s.logf("system: stack unavailable")
			return
		}
		for i, line := range stackLines(info.Stack) {
			if i == maxStackLines {
				s.logf("  ...")
				break
			}
			s.log.WriteLineString("  " + line)
		}
	})
}

// stackLines drops blank lines and the frames of the runtime's own panic
// machinery from a goroutine dump.
func stackLines(stack []byte) []string {
	var out []string
	skip := 0
	for _, line := range strings.Split(string(stack), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case skip > 0:
			skip--
			continue
		case strings.HasPrefix(line, "goroutine "):
			continue
		case strings.HasPrefix(line, "runtime/debug.Stack"),
			strings.HasPrefix(line, "brainos/kernel.captureStack"),
			strings.HasPrefix(line, "brainos/kernel.reportPanic"),
			strings.HasPrefix(line, "panic("):
			// The next line is the file:line of the frame.
			skip = 1
			continue
		}
		out = append(out, line)
	}
	return out
}
