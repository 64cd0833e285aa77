package rwspin

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestSingleThreadRoundTrip covers a single goroutine round-tripping init,
// exclusive acquire/release, and shared acquire/release.
func TestSingleThreadRoundTrip(t *testing.T) {
	l := New()

	l.Lock()
	l.Unlock()

	l.RLock()
	l.RUnlock()

	assert.False(t, l.state.loadWriter())
	assert.Zero(t, l.state.loadReader())
}

func TestTryLockUncontendedSucceeds(t *testing.T) {
	l := New()
	assert.True(t, l.TryLock())
	l.Unlock()
}

func TestTryRLockUncontendedSucceeds(t *testing.T) {
	l := New()
	assert.True(t, l.TryRLock())
	l.RUnlock()
}

// TestTryLockWhileReadersActive checks that a busy TryLock never perturbs
// the reader count.
func TestTryLockWhileReadersActive(t *testing.T) {
	l := New()
	l.RLock()

	assert.False(t, l.TryLock())
	assert.Equal(t, uint32(1), l.state.loadReader(), "a busy TryLock must leave reader count unchanged")

	l.RUnlock()
	assert.Zero(t, l.state.loadReader())
}

func TestTryRLockWhileWriterHeld(t *testing.T) {
	l := New()
	l.Lock()

	assert.False(t, l.TryRLock())
	assert.Zero(t, l.state.loadReader(), "a busy TryRLock must leave reader count unchanged")

	l.Unlock()
}

func TestTimedRLockPastDeadlineReturnsImmediately(t *testing.T) {
	l := New()
	l.Lock()
	defer l.Unlock()

	start := time.Now()
	ok := l.TimedRLock(start.Add(-time.Second))
	assert.False(t, ok)
	assert.Zero(t, l.state.loadReader())
}

func TestTimedLockPastDeadlineReturnsImmediately(t *testing.T) {
	l := New()
	l.Lock()
	defer l.Unlock()

	ok := l.TimedLock(time.Now().Add(-time.Second))
	assert.False(t, ok)
}

// TestTimedRLockWithWriterHeldTimesOut checks that a reader gives up at its
// deadline while a writer holds the lock, and that a later acquire still
// succeeds once the writer releases.
func TestTimedRLockWithWriterHeldTimesOut(t *testing.T) {
	l := New(WithMaxWriterWaitSpins(16))
	l.Lock()

	done := make(chan bool, 1)
	go func() {
		done <- l.TimedRLock(time.Now().Add(10 * time.Millisecond))
	}()

	select {
	case ok := <-done:
		assert.False(t, ok, "reader must time out while writer holds the lock")
	case <-time.After(time.Second):
		t.Fatal("TimedRLock did not return")
	}

	assert.Zero(t, l.state.loadReader())
	l.Unlock()

	assert.True(t, l.TryRLock())
	l.RUnlock()
}

// TestTimedLockLosesRaceThenTimesOut races two writers' TimedLock calls
// against a short deadline while the lock is already held; at most one of
// the racers may succeed within the window.
func TestTimedLockLosesRaceThenTimesOut(t *testing.T) {
	l := New(WithMaxWriterWaitSpins(16))
	l.Lock()

	var succeeded int32
	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func() {
			defer wg.Done()
			if l.TimedLock(time.Now().Add(15 * time.Millisecond)) {
				atomic.AddInt32(&succeeded, 1)
				l.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, succeeded, int32(1))
	l.Unlock()
	assert.False(t, l.state.loadWriter())
}

func TestManyReadersConcurrent(t *testing.T) {
	l := New()
	const n = 50

	var wg sync.WaitGroup
	wg.Add(n)
	var maxObserved int32
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			l.RLock()
			defer l.RUnlock()

			cur := int32(l.state.loadReader())
			for {
				prev := atomic.LoadInt32(&maxObserved)
				if cur <= prev || atomic.CompareAndSwapInt32(&maxObserved, prev, cur) {
					break
				}
			}
			runtime.Gosched()
		}()
	}
	wg.Wait()

	assert.Zero(t, l.state.loadReader())
	assert.Greater(t, maxObserved, int32(1), "multiple readers should have overlapped")
}

// TestManyReadersOneWriter runs a pool of goroutines, 1-in-4 of them
// writers incrementing a shared counter under exclusive hold while the rest
// read it under shared hold, and checks the counter against the total
// number of writer iterations.
func TestManyReadersOneWriter(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}

	const goroutines = 32
	const writerFraction = 4 // 1-in-4 goroutines is a writer, i.e. 25%
	const itersPerGoroutine = 200

	l := New()
	var counter uint64
	var writerIters uint64

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		isWriter := g%writerFraction == 0
		go func(isWriter bool) {
			defer wg.Done()
			for i := 0; i < itersPerGoroutine; i++ {
				if isWriter {
					l.Lock()
					counter++
					l.Unlock()
					atomic.AddUint64(&writerIters, 1)
				} else {
					l.RLock()
					_ = counter
					l.RUnlock()
				}
			}
		}(isWriter)
	}
	wg.Wait()

	assert.Equal(t, writerIters, counter, "counter must equal total writer iterations")
	assert.Zero(t, l.state.loadReader())
	assert.False(t, l.state.loadWriter())
}

func TestWriterThenReaderObservesWrite(t *testing.T) {
	l := New()
	var payload int

	l.Lock()
	payload = 42
	l.Unlock()

	l.RLock()
	assert.Equal(t, 42, payload)
	l.RUnlock()
}

func TestRUnlockWithoutHolderPanicsByDefault(t *testing.T) {
	l := New()
	assert.Panics(t, func() { l.RUnlock() })
}

func TestUnlockWithoutHolderPanicsByDefault(t *testing.T) {
	l := New()
	assert.Panics(t, func() { l.Unlock() })
}

func TestDisableDebugChecksSkipsAssertion(t *testing.T) {
	l := New(WithDisableDebugChecks(true))
	assert.NotPanics(t, func() { l.RUnlock() })
}

func TestWithLockReleasesOnPanic(t *testing.T) {
	l := New()
	assert.Panics(t, func() {
		l.WithLock(func() { panic("boom") })
	})
	assert.True(t, l.TryLock(), "lock must be released even though fn panicked")
	l.Unlock()
}

func TestGuardReleaseIsIdempotent(t *testing.T) {
	l := New()
	g := l.Guard()
	g.Release()
	assert.NotPanics(t, g.Release)
	assert.True(t, l.TryLock())
	l.Unlock()
}

func TestRLockerSatisfiesSyncLocker(t *testing.T) {
	l := New()
	var locker sync.Locker = l.RLocker()
	locker.Lock()
	locker.Unlock()
}

func TestPreventFalseSharingLayoutIsFunctionallyEquivalent(t *testing.T) {
	l := New(WithPreventFalseSharing(true))

	l.Lock()
	assert.False(t, l.TryRLock())
	l.Unlock()

	assert.True(t, l.TryRLock())
	l.RUnlock()
}

// benchmarkRWContention drives a shared counter under l with a channel
// barrier limiting in-flight goroutines and a reader/writer dispatch split
// by writePercent.
func benchmarkRWContention(b *testing.B, concurrency int, writePercent int) {
	l := New()
	barrier := make(chan struct{}, concurrency)
	var counter uint64

	for i := 0; i < b.N; i++ {
		barrier <- struct{}{}
		write := i%100 < writePercent
		go func(write bool) {
			defer func() { <-barrier }()
			if write {
				l.Lock()
				counter++
				l.Unlock()
			} else {
				l.RLock()
				_ = counter
				l.RUnlock()
			}
		}(write)
	}
	for i := 0; i < concurrency; i++ {
		barrier <- struct{}{}
	}
}

func BenchmarkSerialReadHeavy(b *testing.B)     { benchmarkRWContention(b, 1, 10) }
func BenchmarkLowConcurrency(b *testing.B)      { benchmarkRWContention(b, 2, 10) }
func BenchmarkMediumConcurrency(b *testing.B)   { benchmarkRWContention(b, 10, 10) }
func BenchmarkHighConcurrency(b *testing.B)     { benchmarkRWContention(b, 20, 10) }
func BenchmarkHighConcurrencyWriteHeavy(b *testing.B) { benchmarkRWContention(b, 20, 50) }
