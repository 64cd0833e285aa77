package rwspin

import "sync"

// Guard releases a single acquisition exactly once. It is returned by
// Lock.Guard / Lock.RGuard for the common defer l.Guard().Release() idiom,
// a scoped-acquisition alternative that sits alongside (never in place of)
// the bare Lock/Unlock calls. The once indirection (rather than a done
// bool) is what lets Release have a value receiver, so it can be called
// directly on the unaddressable temporary returned by l.Guard().Release().
type Guard struct {
	once    *sync.Once
	release func()
}

// Release releases the held acquisition. Calling it more than once is a
// no-op; this makes Guard safe to both defer and release early along a
// single code path.
func (g Guard) Release() {
	g.once.Do(g.release)
}

// Guard acquires the lock exclusively and returns a Guard whose Release
// calls Unlock.
func (l *Lock) Guard() Guard {
	l.Lock()
	return Guard{once: new(sync.Once), release: l.Unlock}
}

// RGuard acquires the lock shared and returns a Guard whose Release calls
// RUnlock.
func (l *Lock) RGuard() Guard {
	l.RLock()
	return Guard{once: new(sync.Once), release: l.RUnlock}
}

// WithLock acquires the lock exclusively, runs fn, and releases it even if
// fn panics.
func (l *Lock) WithLock(fn func()) {
	l.Lock()
	defer l.Unlock()
	fn()
}

// WithRLock acquires the lock shared, runs fn, and releases it even if fn
// panics.
func (l *Lock) WithRLock(fn func()) {
	l.RLock()
	defer l.RUnlock()
	fn()
}

// RLocker returns a sync.Locker whose Lock/Unlock call l.RLock/l.RUnlock,
// for handing the read side of l to an API that only knows sync.Locker.
func (l *Lock) RLocker() rlocker { return rlocker{l} }

type rlocker struct{ l *Lock }

func (r rlocker) Lock()   { r.l.RLock() }
func (r rlocker) Unlock() { r.l.RUnlock() }
