// Package scheduler holds the two timing primitives of the CLI: a one-shot
// task fired after a random delay and a periodic poller.
package scheduler

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// OneShot runs a task once, after a delay drawn uniformly from [Min, Max].
// Stop or cancellation of the start context clears the pending timer. Once
// fired, or once stopped, it never runs again.
type OneShot struct {
	min, max time.Duration
	task     func(context.Context)

	mu      sync.Mutex
	started bool
	fired   bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}

	// randDelay is replaced in tests.
	randDelay func(min, max time.Duration) time.Duration
}

func NewOneShot(min, max time.Duration, task func(context.Context)) *OneShot {
	if max < min {
		min, max = max, min
	}
	return &OneShot{min: min, max: max, task: task, randDelay: uniform}
}

func uniform(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + rand.N(max-min+1)
}

// Start arms the timer and returns the chosen delay. Calling Start again, or
// after Stop, is a no-op that returns 0.
func (o *OneShot) Start(ctx context.Context) time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started || o.stopped {
		return 0
	}
	o.started = true

	delay := o.randDelay(o.min, o.max)
	ctx, o.cancel = context.WithCancel(ctx)
	o.done = make(chan struct{})

	go o.run(ctx, delay, o.done)
	return delay
}

func (o *OneShot) run(ctx context.Context, delay time.Duration, done chan struct{}) {
	defer close(done)

	t := time.NewTimer(delay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return
	case <-t.C:
	}

	o.mu.Lock()
	if o.stopped || o.fired {
		o.mu.Unlock()
		return
	}
	o.fired = true
	o.mu.Unlock()

	o.task(ctx)
}

// Stop cancels a pending run and waits for the timer goroutine to exit.
func (o *OneShot) Stop() {
	o.mu.Lock()
	o.stopped = true
	cancel, done := o.cancel, o.done
	o.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Fired reports whether the task has run.
func (o *OneShot) Fired() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fired
}
