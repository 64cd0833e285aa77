package rwspin

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/dijkstracula/rwspin/internal/clock"
	"github.com/dijkstracula/rwspin/internal/cpuinfo"
	"github.com/dijkstracula/rwspin/internal/spinwait"
)

// Config holds the tunable knobs of a Lock's backoff, assertion, clock,
// and layout behavior, resolved once at New() time and never mutated
// afterward. Go has no preprocessor, so rather than a set of compile-time
// switches, rwspin resolves one Config value per Lock instance instead.
type Config struct {
	// DisableDebugChecks removes the RUnlock/Unlock precondition
	// assertions when true.
	DisableDebugChecks bool

	// Assert is invoked on every debug-checked precondition. Defaults to
	// DefaultAssert (panics). Ignored entirely when DisableDebugChecks.
	Assert AssertFunc

	// NextSpins is the backoff progression applied to the caller-owned
	// spin count between iterations. Defaults to exponential doubling.
	NextSpins func(current uint32) uint32

	// MaxWriterWaitSpins caps the spin count while readers (or a writer
	// claiming the flag) wait for a writer to release.
	MaxWriterWaitSpins uint32

	// MaxReaderWaitSpins caps the spin count while a writer drains
	// readers after claiming the flag.
	MaxReaderWaitSpins uint32

	// YieldThreshold is the spin count past which the acquire loop
	// additionally invokes YieldFunc.
	YieldThreshold uint32

	// YieldFunc is the cooperative-yield action invoked once the spin
	// count crosses YieldThreshold. Defaults to runtime.Gosched via
	// spinwait.Yield.
	YieldFunc func()

	// ClockNow supplies the current time for deadline comparisons.
	// Defaults to clock.Real (time.Now); tests may substitute a fake clock.
	ClockNow func() time.Time

	// CacheLineSize records the cache-line size, in bytes, that
	// PreventFalseSharing's padding is expected to match. Defaults to the
	// probed architecture cache-line size. Go struct layouts are fixed at
	// compile time, so this field cannot resize the padding actually
	// inserted (cpu.CacheLinePad, sized by the same probe); overriding it
	// away from the probed value only logs a mismatch warning at New(), and
	// only when PreventFalseSharing is set.
	CacheLineSize int

	// PreventFalseSharing, when true, pads writerLocked and readerCount
	// onto separate cache lines. Semantics are unaffected; this is a
	// performance-only variant.
	PreventFalseSharing bool

	// Logger receives ambient diagnostics, never from the hot
	// acquire/release paths themselves. Defaults to a no-op logger.
	Logger zerolog.Logger
}

// defaultConfig returns Config's zero-tuning defaults.
func defaultConfig() Config {
	return Config{
		DisableDebugChecks:  false,
		Assert:              DefaultAssert,
		NextSpins:           spinwait.Double,
		MaxWriterWaitSpins:  1024,
		MaxReaderWaitSpins:  1024,
		YieldThreshold:      512,
		YieldFunc:           spinwait.Yield,
		ClockNow:            clock.Real,
		CacheLineSize:       cpuinfo.LineSize(),
		PreventFalseSharing: false,
		Logger:              zerolog.Nop(),
	}
}

// Option configures a Lock at construction time. Grounded on the
// functional-options idiom used for config surfaces throughout the
// joeycumines-go-utilpkg and vanadium-go.lib trees.
type Option func(*Config)

// WithDisableDebugChecks toggles Config.DisableDebugChecks.
func WithDisableDebugChecks(disable bool) Option {
	return func(c *Config) { c.DisableDebugChecks = disable }
}

// WithAssert overrides Config.Assert.
func WithAssert(fn AssertFunc) Option {
	return func(c *Config) { c.Assert = fn }
}

// WithNextSpins overrides Config.NextSpins.
func WithNextSpins(fn func(uint32) uint32) Option {
	return func(c *Config) { c.NextSpins = fn }
}

// WithMaxWriterWaitSpins overrides Config.MaxWriterWaitSpins.
func WithMaxWriterWaitSpins(n uint32) Option {
	return func(c *Config) { c.MaxWriterWaitSpins = n }
}

// WithMaxReaderWaitSpins overrides Config.MaxReaderWaitSpins.
func WithMaxReaderWaitSpins(n uint32) Option {
	return func(c *Config) { c.MaxReaderWaitSpins = n }
}

// WithYieldThreshold overrides Config.YieldThreshold.
func WithYieldThreshold(n uint32) Option {
	return func(c *Config) { c.YieldThreshold = n }
}

// WithYieldFunc overrides Config.YieldFunc.
func WithYieldFunc(fn func()) Option {
	return func(c *Config) { c.YieldFunc = fn }
}

// WithClockNow overrides Config.ClockNow; intended for tests.
func WithClockNow(fn func() time.Time) Option {
	return func(c *Config) { c.ClockNow = fn }
}

// WithCacheLineSize overrides Config.CacheLineSize. It does not change the
// padding New() actually lays out (see Config.CacheLineSize); setting it to
// anything other than the probed default only changes what New() logs when
// PreventFalseSharing is set.
func WithCacheLineSize(bytes int) Option {
	return func(c *Config) { c.CacheLineSize = bytes }
}

// WithPreventFalseSharing toggles Config.PreventFalseSharing.
func WithPreventFalseSharing(prevent bool) Option {
	return func(c *Config) { c.PreventFalseSharing = prevent }
}

// WithLogger overrides Config.Logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}
