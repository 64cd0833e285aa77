//go:build (amd64 || arm64) && !race

package spinwait

import _ "unsafe" // for go:linkname

// doSpin issues one short, fixed-length burst of architectural pause/yield
// hints (PAUSE on amd64, YIELD on arm64) via the same runtime primitive
// sync.Mutex's own spin path uses.
// Grounded on the linkname technique in the parl SpinLock example: spinning
// through the runtime's primitive keeps a safepoint in the loop so
// stop-the-world GC is never starved by a spinning goroutine.
//
//go:linkname doSpin sync.runtime_doSpin
func doSpin()
