package devices

import (
	"fmt"
	"strings"
)

// Fault is an irrecoverable wiring error: a port out of range, a conflicting
// binding or access through the wrong kind. It terminates the task that
// caused it.
type Fault struct {
	Op     string
	Port   Port
	Index  int // -1 for the smart port itself
	Want   string
	Have   string
	Reason string
}

func (f *Fault) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "devices: %s port=%d", f.Op, f.Port)
	if f.Index >= 0 {
		fmt.Fprintf(&b, " line=%s", LineName(f.Index))
	}
	b.WriteString(": ")
	b.WriteString(f.Reason)
	if f.Want != "" || f.Have != "" {
		fmt.Fprintf(&b, " (want=%s have=%s)", f.Want, f.Have)
	}
	return b.String()
}
