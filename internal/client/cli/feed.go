package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/aligned-app/aligned/internal/client/client"
	"github.com/aligned-app/aligned/internal/client/models"
)

// List prints one queue, or all of them when tab is empty.
func (a *App) List(ctx context.Context, tab string) error {
	queues := models.Queues
	if tab != "" {
		q, err := models.ParseQueue(tab)
		if err != nil {
			fmt.Fprintln(a.out, err)
			return err
		}
		queues = []models.Queue{q}
	}

	snap := a.state.Snapshot()
	now := a.now()
	for _, q := range queues {
		fmt.Fprint(a.out, renderQueue(q, snap.Queue(q), now))
	}
	return nil
}

// Show prints the card of one candidate.
func (a *App) Show(ctx context.Context, uid string) error {
	u, ok := a.state.Get(uid)
	if !ok {
		fmt.Fprintf(a.out, "No candidate with id %s\n", uid)
		return client.ErrNotFound
	}
	fmt.Fprintln(a.out, renderCard(u, a.now()))
	return nil
}

func (a *App) Align(ctx context.Context, uid string) error {
	return a.act(ctx, uid, models.ActionAlign)
}

func (a *App) Skip(ctx context.Context, uid string) error {
	return a.act(ctx, uid, models.ActionSkip)
}

func (a *App) act(ctx context.Context, uid string, kind models.ActionKind) error {
	res, err := a.actionService.Do(ctx, uid, kind)
	if err != nil {
		switch {
		case errors.Is(err, client.ErrUnavailable):
			fmt.Fprintf(a.out, "Could not %s right now, the server is unreachable. Please try again.\n", kind)
		case errors.Is(err, client.ErrUnauthorized):
			a.expireSession(ctx)
		default:
			fmt.Fprintf(a.out, "Could not %s: %v\n", kind, err)
		}
		return err
	}

	if models.HasTag(res.Message) {
		fmt.Fprintln(a.out, res.Message)
	}
	if q, ok := a.state.Locate(uid); ok {
		fmt.Fprintf(a.out, "%s moved to %s\n", uid, queueTitle(q))
	} else {
		fmt.Fprintf(a.out, "%s removed from your queues\n", uid)
	}
	return nil
}

// Refresh reloads every queue from the backend.
func (a *App) Refresh(ctx context.Context) error {
	err := a.feedService.RefreshAll(ctx)
	if errors.Is(err, client.ErrUnauthorized) {
		a.expireSession(ctx)
		return err
	}
	if err != nil {
		fmt.Fprintln(a.out, "Refresh incomplete:", err)
	}
	s := a.state.Snapshot()
	fmt.Fprintf(a.out, "%d recommendations, %d matches, %d awaiting\n",
		len(s.Recommendations), len(s.Matches), len(s.Awaiting))
	return err
}
