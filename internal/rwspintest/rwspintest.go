// Package rwspintest provides white-box assertion helpers for property
// tests written against a *rwspin.Lock, without those tests having to poke
// at the lock's unexported fields directly.
package rwspintest

import "github.com/dijkstracula/rwspin"

// The four states a Lock can occupy, named the way rwspin's acquire loops
// reason about them: no holder, one or more readers, a writer that has
// claimed the flag but is still waiting for readers to drain, and a writer
// holding exclusively.
const (
	IDLE      = "IDLE"
	SHARED    = "SHARED"
	CLAIMING  = "CLAIMING"
	EXCLUSIVE = "EXCLUSIVE"
)

// StateLabel reports which of the four states l currently occupies, read
// via l.Snapshot(). The result is a point-in-time observation, not a
// guarantee about what a concurrent goroutine will see next.
func StateLabel(l *rwspin.Lock) string {
	writerLocked, readers := l.Snapshot()
	switch {
	case writerLocked && readers == 0:
		return EXCLUSIVE
	case writerLocked && readers > 0:
		return CLAIMING
	case !writerLocked && readers > 0:
		return SHARED
	default:
		return IDLE
	}
}
