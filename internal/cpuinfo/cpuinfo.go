// Package cpuinfo resolves the cache-line size used to default
// rwspin.Config.CacheLineSize. Getting it wrong costs throughput under
// false sharing; it never affects shared/exclusive semantics.
package cpuinfo

// defaultLineSize is the fallback used on architectures this package does
// not special-case; 64 bytes is the line size of essentially every x86_64
// and arm64 part in service today (the same constant twmb-dash's primitive
// package hardcodes as CacheLine).
const defaultLineSize = 64

// LineSize returns the probed or architecture-default cache-line size in
// bytes. It reports the size of the cpu.CacheLinePad padding inserted when
// rwspin.Config.PreventFalseSharing is set; it does not change that padding.
func LineSize() int {
	if n := archLineSize(); n > 0 {
		return n
	}
	return defaultLineSize
}
