package call

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/vasu-devs/Vaani/pkg/logger"
	"go.uber.org/zap"
)

// PipelineFunc runs the post-call pipeline: transcript snapshot, risk
// analysis, persistence. It must honor ctx cancellation.
type PipelineFunc func(ctx context.Context) error

// SessionFinalizer guarantees the post-call pipeline runs at most once per
// session, no matter how many termination signals arrive or how concurrently
// they fire. Triggers are fire-and-forget; a single consumer goroutine runs
// the pipeline under a hard timeout. State machine: idle -> running on the
// first trigger (atomic compare-and-set), running -> done on completion or
// timeout. There is no way back to idle.
type SessionFinalizer struct {
	roomName string
	timeout  time.Duration
	pipeline PipelineFunc

	latch   atomic.Bool   // idle=false, running/done=true
	signals chan struct{} // single-consumer trigger channel, capacity 1
	done    chan struct{} // closed when the pipeline attempt is over
}

// NewSessionFinalizer creates a finalizer for one session.
func NewSessionFinalizer(roomName string, timeout time.Duration, pipeline PipelineFunc) *SessionFinalizer {
	return &SessionFinalizer{
		roomName: roomName,
		timeout:  timeout,
		pipeline: pipeline,
		signals:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Start launches the single consumer goroutine. It consumes at most one
// signal; later signals are dropped by Trigger. ctx cancellation stops the
// consumer without finalizing; the shutdown path calls Await instead.
func (f *SessionFinalizer) Start(ctx context.Context) {
	go func() {
		select {
		case <-f.signals:
			f.finalize()
		case <-ctx.Done():
		}
	}()
}

// Trigger requests finalization. Safe to call from any event-handler context:
// it never blocks and never runs the pipeline inline. Signals beyond the
// first are discarded.
func (f *SessionFinalizer) Trigger() {
	select {
	case f.signals <- struct{}{}:
	default:
	}
}

// Await finalizes synchronously. If another trigger already won the latch it
// simply waits for that attempt to finish, bounded by ctx. Used as the
// last-resort trigger on worker shutdown.
func (f *SessionFinalizer) Await(ctx context.Context) {
	f.finalize()
	select {
	case <-f.done:
	case <-ctx.Done():
		logger.Base().Warn("gave up waiting for session finalization", zap.String("room_name", f.roomName))
	}
}

// Done is closed once the pipeline attempt has completed or timed out.
func (f *SessionFinalizer) Done() <-chan struct{} {
	return f.done
}

// Finalized reports whether the latch has been taken.
func (f *SessionFinalizer) Finalized() bool {
	return f.latch.Load()
}

// finalize runs the pipeline if this caller wins the latch. Every other
// caller returns immediately with no side effects. Failures and timeouts are
// logged, never propagated: finalization must not crash the host or deadlock
// its shutdown, and the latch stays set so no duplicate attempt follows.
func (f *SessionFinalizer) finalize() {
	if !f.latch.CompareAndSwap(false, true) {
		return
	}
	defer close(f.done)

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	start := time.Now()
	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				errCh <- fmt.Errorf("pipeline panicked: %v", r)
			}
		}()
		errCh <- f.pipeline(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Base().Error("post-call pipeline failed",
				zap.String("room_name", f.roomName),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
			return
		}
		logger.Base().Info("session finalized",
			zap.String("room_name", f.roomName),
			zap.Duration("elapsed", time.Since(start)))
	case <-ctx.Done():
		// Whatever partial work completed before the deadline is abandoned;
		// the session still counts as finalized.
		logger.Base().Error("post-call pipeline timed out",
			zap.String("room_name", f.roomName),
			zap.Duration("timeout", f.timeout))
	}
}
