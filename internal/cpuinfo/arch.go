package cpuinfo

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// archLineSize reports the cache-line size x/sys/cpu itself pads to on the
// current GOARCH (ppc64/ppc64le pad to 128 bytes; everything else x/sys/cpu
// knows about pads to 64). Returning 0 means "use defaultLineSize".
func archLineSize() int {
	return int(unsafe.Sizeof(cpu.CacheLinePad{}))
}
