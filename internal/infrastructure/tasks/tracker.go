package tasks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrShutdownTimeout is returned by Shutdown when tasks outlive its context.
var ErrShutdownTimeout = errors.New("tasks still running at shutdown")

// Tracker runs detached work that must outlive the request that started
// it. Shutdown stops accepting tasks and waits for running ones.
type Tracker struct {
	mu      sync.Mutex
	wg      sync.WaitGroup
	closed  bool
	base    context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	logger  zerolog.Logger
}

// NewTracker creates a tracker. Each task gets its own deadline of timeout;
// zero means no per-task deadline.
func NewTracker(timeout time.Duration, logger zerolog.Logger) *Tracker {
	base, cancel := context.WithCancel(context.Background())
	return &Tracker{
		base:    base,
		cancel:  cancel,
		timeout: timeout,
		logger:  logger.With().Str("component", "tasks").Logger(),
	}
}

// Go starts fn in the background. It reports false once Shutdown has begun.
func (t *Tracker) Go(name string, fn func(ctx context.Context) error) bool {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return false
	}
	t.wg.Add(1)
	t.mu.Unlock()

	go func() {
		defer t.wg.Done()
		ctx := t.base
		if t.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, t.timeout)
			defer cancel()
		}
		defer func() {
			if r := recover(); r != nil {
				t.logger.Error().Str("task", name).Interface("panic", r).Msg("task panicked")
			}
		}()

		start := time.Now()
		if err := fn(ctx); err != nil {
			t.logger.Error().Err(err).Str("task", name).Dur("elapsed", time.Since(start)).Msg("task failed")
			return
		}
		t.logger.Debug().Str("task", name).Dur("elapsed", time.Since(start)).Msg("task done")
	}()
	return true
}

// Shutdown waits for running tasks. If ctx expires first the tasks'
// contexts are canceled and ErrShutdownTimeout is returned.
func (t *Tracker) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.cancel()
		return nil
	case <-ctx.Done():
		t.cancel()
		return ErrShutdownTimeout
	}
}
