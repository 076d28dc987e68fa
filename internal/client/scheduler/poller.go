package scheduler

import (
	"context"
	"sync"
	"time"
)

// Poller calls a task every interval until stopped or until the start
// context is cancelled. Runs never overlap.
type Poller struct {
	interval time.Duration
	task     func(context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(interval time.Duration, task func(context.Context)) *Poller {
	return &Poller{interval: interval, task: task}
}

// Start begins polling. A non-positive interval disables the poller. Calling
// Start on a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	if p.interval <= 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.task(ctx)
			}
		}
	}(p.done)
}

// Stop ends polling and waits for an in-flight run to return.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
