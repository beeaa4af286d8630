package kernel

import "fmt"

// Logger writes newline-delimited diagnostic lines. hal.Logger satisfies it.
type Logger interface {
	WriteLineString(s string)
}

type nopLogger struct{}

func (nopLogger) WriteLineString(string) {}

func (s *Scheduler) logf(format string, args ...any) {
	s.log.WriteLineString(fmt.Sprintf(format, args...))
}
