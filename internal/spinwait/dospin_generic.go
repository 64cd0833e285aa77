//go:build !((amd64 || arm64) && !race)

package spinwait

// doSpin is the portable fallback used under the race detector (which
// disallows the runtime linkname trick) and on architectures without a
// cheap pause instruction: a function call is itself a safepoint, so a
// spinning goroutine still cannot starve stop-the-world GC.
func doSpin() {}
