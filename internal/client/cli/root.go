package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/aligned-app/aligned/internal/buildinfo"
)

func (a *App) getStatus() string {
	a.mu.Lock()
	mode, counters := a.mode, a.counters
	a.mu.Unlock()

	var parts []string
	if a.isLoggedIn() {
		name := a.session.Email()
		if name == "" {
			name = a.session.UID()
		}
		parts = append(parts, name)
	}
	if mode != "" {
		parts = append(parts, string(mode))
	}
	if a.isLoggedIn() && counters != "" {
		parts = append(parts, counters)
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, " "))
}

// Root prints the banner, resumes or starts a session, launches the
// connectivity watcher and runs the REPL until the user leaves.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintf(a.out, "Welcome to Aligned %s (type 'help' for commands)\n", buildinfo.Version)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.isLoggedIn() {
		a.resume(ctx)
	} else {
		_ = a.Login(ctx)
	}

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}

// resume continues a session restored from the cache.
func (a *App) resume(ctx context.Context) {
	fmt.Fprintf(a.out, "Welcome back, %s\n", a.session.Email())
	if err := a.feedService.RefreshAll(ctx); err != nil {
		a.log.Warn(ctx, "refresh on resume failed", "error", err)
		a.setMode(ModeOffline)
		if _, cerr := a.feedService.LoadCached(ctx, ""); cerr != nil {
			a.log.Warn(ctx, "no cached queues", "error", cerr)
		}
	} else {
		a.setMode(ModeOnline)
	}
	a.startBackground(ctx)
}
