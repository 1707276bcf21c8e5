// Package scheduler runs named periodic loops. Every loop owns its cadence,
// survives failing or panicking cycles, and stops cleanly on shutdown.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	loopRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qualitywatch_loop_runs_total",
			Help: "Periodic loop cycles by loop name and outcome.",
		},
		[]string{"loop", "outcome"},
	)
	loopDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qualitywatch_loop_duration_seconds",
			Help:    "Periodic loop cycle duration.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"loop"},
	)
)

func init() {
	prometheus.MustRegister(loopRuns, loopDuration)
}

// RunFunc performs one cycle. A returned error is logged; the loop keeps going.
type RunFunc func(ctx context.Context) error

// Loop runs Run every Interval until stopped. Cycles of one loop never
// overlap: a slow cycle delays the next tick instead of stacking.
type Loop struct {
	Name     string
	Interval time.Duration
	// Timeout bounds one cycle. Zero means Interval.
	Timeout time.Duration
	// Immediate runs the first cycle on Start instead of after one Interval.
	Immediate bool
	Run       RunFunc

	logger *zap.Logger
	mu     sync.Mutex
	stop   chan struct{}
	done   chan struct{}
	abort  context.CancelFunc
}

// New creates a loop. Interval must be positive.
func New(name string, interval time.Duration, run RunFunc, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{Name: name, Interval: interval, Run: run, logger: logger}
}

// Start launches the loop goroutine. Starting a running loop is an error.
// Cancelling ctx stops scheduling like Stop does; cycles never inherit its
// cancellation, only its values.
func (l *Loop) Start(ctx context.Context) error {
	if l.Interval <= 0 {
		return fmt.Errorf("loop %s: interval must be positive", l.Name)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.runningLocked() {
		return fmt.Errorf("loop %s already running", l.Name)
	}
	stop, done := make(chan struct{}), make(chan struct{})
	runCtx, abort := context.WithCancel(context.WithoutCancel(ctx))
	l.stop, l.done, l.abort = stop, done, abort

	go func() {
		defer close(done)
		defer abort()
		ticker := time.NewTicker(l.Interval)
		defer ticker.Stop()

		if l.Immediate {
			_ = l.cycle(runCtx)
		}
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case <-stop:
					return
				default:
				}
				_ = l.cycle(runCtx)
			}
		}
	}()

	l.logger.Info("loop started",
		zap.String("loop", l.Name),
		zap.Duration("interval", l.Interval),
	)
	return nil
}

// Stop stops scheduling new cycles and waits for an in-flight cycle to
// finish. The cycle keeps its context; only its Timeout bounds the wait.
func (l *Loop) Stop() {
	_ = l.StopContext(context.Background())
}

// StopContext is Stop with a bound on the wait. When ctx ends before the
// in-flight cycle returns, the cycle's context is cancelled, StopContext
// waits for it to unwind and returns ctx's error.
func (l *Loop) StopContext(ctx context.Context) error {
	l.mu.Lock()
	stop, done, abort := l.stop, l.done, l.abort
	l.stop = nil
	l.mu.Unlock()
	if done == nil {
		return nil
	}
	if stop != nil {
		close(stop)
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		abort()
		<-done
		l.logger.Warn("loop stopped before cycle finished",
			zap.String("loop", l.Name),
			zap.Error(ctx.Err()),
		)
		return ctx.Err()
	}
}

// Running reports whether the loop is active.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.runningLocked()
}

func (l *Loop) runningLocked() bool {
	if l.done == nil {
		return false
	}
	select {
	case <-l.done:
		return false
	default:
		return true
	}
}

// RunOnce executes a single cycle synchronously with the loop's recovery
// and logging. Useful for on-demand triggers.
func (l *Loop) RunOnce(ctx context.Context) error {
	return l.cycle(ctx)
}

func (l *Loop) cycle(parent context.Context) (err error) {
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = l.Interval
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		loopDuration.WithLabelValues(l.Name).Observe(time.Since(start).Seconds())
		if err != nil {
			loopRuns.WithLabelValues(l.Name, "error").Inc()
			l.logger.Warn("loop cycle failed",
				zap.String("loop", l.Name),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err),
			)
			return
		}
		loopRuns.WithLabelValues(l.Name, "ok").Inc()
	}()

	return l.Run(ctx)
}
