// Package spinwait implements the backoff helper used by rwspin's acquire
// loops: pure pause-and-maybe-yield execution, with the spin count owned and
// advanced by the caller so that timed variants can re-check a deadline
// between spins without duplicating the schedule.
package spinwait

import "runtime"

// Spin calls doSpin n times. On amd64/arm64 each call delegates to the Go
// runtime's own spin primitive, a short burst of pause hints (see
// dospin_asm.go); elsewhere it falls back to a volatile-ish empty loop.
func Spin(n uint32) {
	for i := uint32(0); i < n; i++ {
		doSpin()
	}
}

// Next advances a spin count by calling grow, capped at max. Callers use
// this between iterations of their own acquire loop; Spin itself never
// advances the count.
func Next(current uint32, grow func(uint32) uint32, max uint32) uint32 {
	if grow == nil {
		grow = Double
	}
	next := grow(current)
	if next > max || next < current /* overflow */ {
		next = max
	}
	return next
}

// Double is the default NextSpins progression: exponential backoff starting
// at 1.
func Double(current uint32) uint32 {
	if current == 0 {
		return 1
	}
	return current * 2
}

// ShouldYield reports whether a spin count has crossed the configured yield
// threshold, at which point the caller should additionally invoke a
// cooperative scheduler yield (runtime.Gosched by default).
func ShouldYield(current, threshold uint32) bool {
	return current > threshold
}

// Yield is the default cooperative-yield action.
func Yield() { runtime.Gosched() }
