package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/aligned-app/aligned/internal/client/client"
	"github.com/aligned-app/aligned/internal/client/models"
	"github.com/aligned-app/aligned/internal/client/scheduler"
)

// goAsync runs work off the calling goroutine. Tests replace it.
var goAsync = func(fn func()) { go fn() }

// startBackground starts the periodic refresh and, when the assistant may
// still be offered, the one-shot invitation timer. Running tasks are replaced.
func (a *App) startBackground(ctx context.Context) {
	a.stopBackground()

	poller := scheduler.NewPoller(a.config.RefreshInterval, a.poll)
	var trigger *scheduler.OneShot
	if a.destinyService.ShouldOffer() {
		trigger = scheduler.NewOneShot(a.config.ChatTriggerMin, a.config.ChatTriggerMax, a.offerDestiny)
	}

	a.mu.Lock()
	a.poller, a.trigger = poller, trigger
	a.mu.Unlock()

	poller.Start(ctx)
	if trigger != nil {
		delay := trigger.Start(ctx)
		a.log.Debug(ctx, "destiny invitation armed", "delay", delay)
	}
}

func (a *App) stopBackground() {
	a.mu.Lock()
	poller := a.poller
	a.poller = nil
	a.mu.Unlock()

	if poller != nil {
		poller.Stop()
	}
	a.stopTrigger()
}

func (a *App) stopTrigger() {
	a.mu.Lock()
	trigger := a.trigger
	a.trigger = nil
	a.mu.Unlock()

	if trigger != nil {
		trigger.Stop()
	}
}

// poll refreshes the queues and announces new notifications.
func (a *App) poll(ctx context.Context) {
	if a.currentMode() != ModeOnline || !a.isLoggedIn() {
		return
	}
	err := a.feedService.RefreshAll(ctx)
	if err != nil && !errors.Is(err, client.ErrUnauthorized) {
		a.log.Warn(ctx, "background refresh failed", "error", err)
	}
	if !errors.Is(err, client.ErrUnauthorized) {
		var fresh []models.Notification
		fresh, err = a.notificationService.Poll(ctx)
		for _, n := range fresh {
			fmt.Fprintf(a.out, "\n[notification] %s\n", n.Message)
		}
	}
	if errors.Is(err, client.ErrUnauthorized) {
		// Logout stops the poller and waits for this run.
		bg := context.WithoutCancel(ctx)
		goAsync(func() { a.expireSession(bg) })
	}
}

// expireSession logs out after the backend rejected the session token.
func (a *App) expireSession(ctx context.Context) {
	if !a.isLoggedIn() {
		return
	}
	a.log.Warn(ctx, "session rejected by backend, logging out")
	fmt.Fprintln(a.out, "Your session has expired. Please login again.")
	_ = a.Logout(ctx)
}

func (a *App) offerDestiny(ctx context.Context) {
	if !a.destinyService.ShouldOffer() {
		return
	}
	fmt.Fprintln(a.out, "\nDestiny would like to learn what you are looking for. Type 'destiny' to chat.")
}
