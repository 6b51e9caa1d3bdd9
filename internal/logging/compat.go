package logging

import "fmt"

// Panicf logs at error level and panics with the same message. Reserved for
// broken invariants that must not be papered over, e.g. a close rendezvous
// that never completes. Prefer the explicitly leveled API everywhere else.
func (log *Logger) Panicf(format string, v ...interface{}) {
	s := fmt.Sprintf(format, v...)
	log.Log(Error, 1, s)
	panic(s)
}
