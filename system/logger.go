package system

import "brainos/hal"

// teeLogger writes every line to the HAL logger and the console.
type teeLogger struct {
	sinks []hal.Logger
}

func newTeeLogger(sinks ...hal.Logger) *teeLogger {
	t := &teeLogger{}
	for _, l := range sinks {
		if l != nil {
			t.sinks = append(t.sinks, l)
		}
	}
	return t
}

func (t *teeLogger) WriteLineString(s string) {
	for _, l := range t.sinks {
		l.WriteLineString(s)
	}
}

func (t *teeLogger) WriteLineBytes(b []byte) {
	t.WriteLineString(string(b))
}
