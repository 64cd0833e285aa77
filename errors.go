package rwspin

import "fmt"

// AssertFunc is the debug-precondition hook. The default, DefaultAssert,
// panics; Config.DisableDebugChecks removes the calls entirely rather than
// routing through a no-op AssertFunc, so a disabled build pays nothing for
// the check, mirroring an assertion that's compiled out in release builds.
type AssertFunc func(ok bool, format string, args ...any)

// DefaultAssert panics with a formatted message when ok is false. It is the
// default Config.Assert installed by New.
func DefaultAssert(ok bool, format string, args ...any) {
	if !ok {
		panic(fmt.Sprintf("rwspin: "+format, args...))
	}
}
