// Package rwspin implements a shared/exclusive (reader-writer) lock for
// goroutines within a single process, built from lock-free atomics with a
// spin-then-yield waiting strategy. It targets short critical sections
// where the OS-assisted parking of sync.RWMutex would dominate cost.
//
// The protocol is writer-preferring at the claim boundary (a writer that
// has set the flag blocks new readers immediately) but makes no fairness
// guarantee against an adversarial scheduler, performs no reentrancy or
// owner tracking, and is single-process only.
package rwspin

import (
	"sync/atomic"
	"time"

	"golang.org/x/sys/cpu"

	"github.com/dijkstracula/rwspin/internal/clock"
	"github.com/dijkstracula/rwspin/internal/cpuinfo"
	"github.com/dijkstracula/rwspin/internal/spinwait"
)

// rwState is the unpadded layout: writerLocked and readerCount may share a
// cache line. This is the default (Config.PreventFalseSharing == false).
type rwState struct {
	writerLocked atomic.Bool
	readerCount  atomic.Uint32
}

// paddedRWState pads writerLocked and readerCount onto separate cache
// lines, trading memory for immunity to false sharing between reader and
// writer traffic on multi-socket machines. Selected when
// Config.PreventFalseSharing is set. Grounded on the cpu.CacheLinePad
// bracketing technique documented in the parl SpinLock example.
type paddedRWState struct {
	writerLocked atomic.Bool
	_            cpu.CacheLinePad
	readerCount  atomic.Uint32
	_            cpu.CacheLinePad
}

// state is the narrow surface rwspin's operations need from either layout.
type state interface {
	loadWriter() bool
	casWriter(old, new bool) bool
	storeWriter(v bool)
	loadReader() uint32
	addReader(delta int32) uint32
}

// addDelta converts a signed reader-count delta into the unsigned argument
// atomic.Uint32.Add expects; two's-complement addition mod 2^32 makes
// addDelta(-1) a correct decrement, the same trick atomic.AddUint32(&n,
// ^uint32(0)) relies on in the julienschmidt-spinlock RWMutex.
func addDelta(delta int32) uint32 { return uint32(delta) }

func (s *rwState) loadWriter() bool             { return s.writerLocked.Load() }
func (s *rwState) casWriter(old, new bool) bool { return s.writerLocked.CompareAndSwap(old, new) }
func (s *rwState) storeWriter(v bool)           { s.writerLocked.Store(v) }
func (s *rwState) loadReader() uint32           { return s.readerCount.Load() }
func (s *rwState) addReader(delta int32) uint32 { return s.readerCount.Add(addDelta(delta)) }

func (s *paddedRWState) loadWriter() bool             { return s.writerLocked.Load() }
func (s *paddedRWState) casWriter(old, new bool) bool { return s.writerLocked.CompareAndSwap(old, new) }
func (s *paddedRWState) storeWriter(v bool)           { s.writerLocked.Store(v) }
func (s *paddedRWState) loadReader() uint32           { return s.readerCount.Load() }
func (s *paddedRWState) addReader(delta int32) uint32 { return s.readerCount.Add(addDelta(delta)) }

// Lock is a shared/exclusive lock. The zero value is not usable; construct
// one with New. A Lock must not be copied after first use.
type Lock struct {
	noCopy noCopy //nolint:unused // vet guard only

	state state
	cfg   Config
}

// New constructs a ready, unheld Lock. Go's value construction always
// succeeds; passing an invalid receiver to a later method (a nil *Lock)
// panics instead, the idiomatic Go reading of a null-handle failure.
func New(opts ...Option) *Lock {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	l := &Lock{cfg: cfg}
	if cfg.PreventFalseSharing {
		l.state = &paddedRWState{}
		if actual := cpuinfo.LineSize(); cfg.CacheLineSize != actual {
			cfg.Logger.Warn().
				Int("configured_cache_line_size", cfg.CacheLineSize).
				Int("actual_pad_size", actual).
				Msg("CacheLineSize does not match the compiled padding size; Go struct layouts are fixed at compile time, so this knob is descriptive only and the padding actually used is cpu.CacheLinePad's size")
		}
	} else {
		l.state = &rwState{}
	}
	return l
}

// RLock acquires the lock for shared (read) access, blocking until no
// writer holds or is claiming it.
func (l *Lock) RLock() {
	var spins uint32
	for {
		for l.state.loadWriter() {
			l.backoff(&spins, l.cfg.MaxWriterWaitSpins)
		}

		l.state.addReader(1)
		if !l.state.loadWriter() {
			return
		}
		l.state.addReader(-1)
	}
}

// TryRLock makes a single attempt to acquire the lock for shared access. It
// never spins or yields, returning false immediately on contention with no
// net change to the reader count.
func (l *Lock) TryRLock() bool {
	if l.state.loadWriter() {
		return false
	}
	l.state.addReader(1)
	if l.state.loadWriter() {
		l.state.addReader(-1)
		return false
	}
	return true
}

// TimedRLock acquires the lock for shared access, spinning until success or
// until deadline passes. It returns false (timed-out) without holding the
// lock and without perturbing the reader count if the deadline passes
// first.
func (l *Lock) TimedRLock(deadline time.Time) bool {
	var spins uint32
	for !clock.Expired(l.now(), deadline) {
		for l.state.loadWriter() {
			if clock.Expired(l.now(), deadline) {
				return false
			}
			l.backoff(&spins, l.cfg.MaxWriterWaitSpins)
		}

		l.state.addReader(1)
		if !l.state.loadWriter() {
			return true
		}
		l.state.addReader(-1)

		if clock.Expired(l.now(), deadline) {
			return false
		}
		l.backoff(&spins, l.cfg.MaxWriterWaitSpins)
	}
	return false
}

// RUnlock releases one shared hold. The caller must currently hold the lock
// shared; violating this precondition trips Config.Assert unless
// Config.DisableDebugChecks is set.
func (l *Lock) RUnlock() {
	if !l.cfg.DisableDebugChecks {
		l.cfg.Assert(l.state.loadReader() > 0, "RUnlock of a lock with no shared holders")
	}
	l.state.addReader(-1)
}

// Lock acquires the lock for exclusive (write) access, blocking until the
// caller is the sole writer and all readers have drained.
func (l *Lock) Lock() {
	var spins uint32
	for !l.state.casWriter(false, true) {
		l.backoff(&spins, l.cfg.MaxWriterWaitSpins)
	}

	spins = 0
	for l.state.loadReader() != 0 {
		l.backoff(&spins, l.cfg.MaxReaderWaitSpins)
	}
}

// TryLock makes a single attempt to acquire the lock for exclusive access.
// It never spins or yields.
func (l *Lock) TryLock() bool {
	if !l.state.casWriter(false, true) {
		return false
	}
	if l.state.loadReader() != 0 {
		l.state.storeWriter(false)
		return false
	}
	return true
}

// TimedLock acquires the lock for exclusive access, spinning until success
// or until deadline passes. It returns false (timed-out) without holding
// the flag if the deadline passes, in either the claim phase or the
// reader-drain phase.
func (l *Lock) TimedLock(deadline time.Time) bool {
	var spins uint32
	for !l.state.casWriter(false, true) {
		if clock.Expired(l.now(), deadline) {
			return false
		}
		l.backoff(&spins, l.cfg.MaxWriterWaitSpins)
	}

	spins = 0
	for l.state.loadReader() != 0 {
		if clock.Expired(l.now(), deadline) {
			l.state.storeWriter(false)
			return false
		}
		l.backoff(&spins, l.cfg.MaxReaderWaitSpins)
	}
	return true
}

// Unlock releases the exclusive hold. The caller must currently hold the
// lock exclusively; violating this precondition trips Config.Assert unless
// Config.DisableDebugChecks is set.
func (l *Lock) Unlock() {
	if !l.cfg.DisableDebugChecks {
		l.cfg.Assert(l.state.loadWriter(), "Unlock of a lock with no exclusive holder")
	}
	l.state.storeWriter(false)
}

// Snapshot reports the lock's current writer-held flag and reader count.
// It exists for diagnostics and white-box tests (see internal/rwspintest);
// it is not part of the acquire/release protocol, and a value read this
// way may be stale before the call returns under any concurrent use.
func (l *Lock) Snapshot() (writerLocked bool, readers uint32) {
	return l.state.loadWriter(), l.state.loadReader()
}

// now reads the configured clock source.
func (l *Lock) now() time.Time { return l.cfg.ClockNow() }

// backoff executes the current spin count's worth of pause hints, yields
// past the configured threshold, and advances the caller-owned spin count
// for next time, capped at max.
func (l *Lock) backoff(spins *uint32, max uint32) {
	spinwait.Spin(*spins)
	if spinwait.ShouldYield(*spins, l.cfg.YieldThreshold) {
		l.cfg.YieldFunc()
	}
	*spins = spinwait.Next(*spins, l.cfg.NextSpins, max)
}

// noCopy may be embedded in a struct to help `go vet` flag accidental
// copies of a value that contains a Lock, whose atomics must not be
// duplicated after first use.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
