// Command rwspinstress drives a rwspin.Lock with a configurable mix of
// reader and writer goroutines and reports the resulting throughput and
// contention. It only calls the lock's public operations and may override
// a handful of Config knobs, never the protocol itself.
package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/dijkstracula/rwspin"
)

func main() {
	var (
		goroutines = pflag.IntP("goroutines", "g", 32, "number of concurrent reader/writer goroutines")
		writePct   = pflag.IntP("write-percent", "w", 10, "percent of goroutines acting as writers")
		duration   = pflag.DurationP("duration", "d", 2*time.Second, "how long to run the stress workload")
		deadline   = pflag.Duration("timed-deadline", 5*time.Millisecond, "deadline used for each TimedLock/TimedRLock call")
		falseShare = pflag.Bool("prevent-false-sharing", false, "pad writerLocked/readerCount onto separate cache lines")
		maxWSpins  = pflag.Uint32("max-writer-wait-spins", 1024, "Config.MaxWriterWaitSpins")
		maxRSpins  = pflag.Uint32("max-reader-wait-spins", 1024, "Config.MaxReaderWaitSpins")
		yieldAt    = pflag.Uint32("yield-threshold", 512, "Config.YieldThreshold")
		verbose    = pflag.BoolP("verbose", "v", false, "enable debug-level log output")
	)
	pflag.Parse()

	cfg := stressConfig{
		goroutines: *goroutines,
		writePct:   *writePct,
		duration:   *duration,
		deadline:   *deadline,
		falseShare: *falseShare,
		maxWSpins:  *maxWSpins,
		maxRSpins:  *maxRSpins,
		yieldAt:    *yieldAt,
		verbose:    *verbose,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.duration)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintln(os.Stderr, "rwspinstress:", err)
		os.Exit(1)
	}
}

type stressConfig struct {
	goroutines int
	writePct   int
	duration   time.Duration
	deadline   time.Duration
	falseShare bool
	maxWSpins  uint32
	maxRSpins  uint32
	yieldAt    uint32
	verbose    bool
}

type tallies struct {
	readerSuccess  uint64
	readerTimeout  uint64
	writerSuccess  uint64
	writerTimeout  uint64
	writerOpsOnCtr uint64
	counter        uint64
}

// operationDeadline returns the earlier of ctx's own deadline and now plus
// perOp, so a single stress run can be bounded both by an overall context
// (cancelable from outside, e.g. by a test or a signal handler upstream)
// and by the per-call budget each TimedLock/TimedRLock worker is given.
func operationDeadline(ctx context.Context, perOp time.Duration) time.Time {
	want := time.Now().Add(perOp)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(want) {
		return ctxDeadline
	}
	return want
}

func run(ctx context.Context, cfg stressConfig) error {
	if cfg.goroutines <= 0 {
		return fmt.Errorf("goroutines must be positive, got %d", cfg.goroutines)
	}
	if cfg.writePct < 0 || cfg.writePct > 100 {
		return fmt.Errorf("write-percent must be in [0, 100], got %d", cfg.writePct)
	}

	level := zerolog.InfoLevel
	if cfg.verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()

	lock := rwspin.New(
		rwspin.WithPreventFalseSharing(cfg.falseShare),
		rwspin.WithMaxWriterWaitSpins(cfg.maxWSpins),
		rwspin.WithMaxReaderWaitSpins(cfg.maxRSpins),
		rwspin.WithYieldThreshold(cfg.yieldAt),
		rwspin.WithLogger(logger),
	)

	logger.Info().
		Int("goroutines", cfg.goroutines).
		Int("write_percent", cfg.writePct).
		Dur("duration", cfg.duration).
		Bool("prevent_false_sharing", cfg.falseShare).
		Msg("starting rwspin stress workload")

	var t tallies
	var wg sync.WaitGroup
	wg.Add(cfg.goroutines)

	for i := 0; i < cfg.goroutines; i++ {
		isWriter := i*100/cfg.goroutines < cfg.writePct
		go func(isWriter bool) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				deadline := operationDeadline(ctx, cfg.deadline)
				if isWriter {
					if lock.TimedLock(deadline) {
						atomic.AddUint64(&t.counter, 1)
						atomic.AddUint64(&t.writerOpsOnCtr, 1)
						lock.Unlock()
						atomic.AddUint64(&t.writerSuccess, 1)
					} else {
						atomic.AddUint64(&t.writerTimeout, 1)
					}
				} else {
					if lock.TimedRLock(deadline) {
						_ = atomic.LoadUint64(&t.counter)
						lock.RUnlock()
						atomic.AddUint64(&t.readerSuccess, 1)
					} else {
						atomic.AddUint64(&t.readerTimeout, 1)
					}
				}
			}
		}(isWriter)
	}

	<-ctx.Done()
	wg.Wait()

	logger.Info().
		Uint64("reader_success", t.readerSuccess).
		Uint64("reader_timeout", t.readerTimeout).
		Uint64("writer_success", t.writerSuccess).
		Uint64("writer_timeout", t.writerTimeout).
		Uint64("counter", t.counter).
		Msg("rwspin stress workload finished")

	if t.writerOpsOnCtr != t.counter {
		return fmt.Errorf("counter drift detected: %d writer ops but counter reads %d", t.writerOpsOnCtr, t.counter)
	}
	return nil
}
