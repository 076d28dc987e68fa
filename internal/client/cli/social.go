package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aligned-app/aligned/internal/client/models"
	"github.com/aligned-app/aligned/internal/client/services"
	"github.com/aligned-app/aligned/internal/filex"
)

// historyTimeout bounds the wait for a conversation backlog.
const historyTimeout = 10 * time.Second

// Notifications prints local messages and server notifications and marks
// them read.
func (a *App) Notifications(ctx context.Context) error {
	snap := a.state.Snapshot()
	if snap.NotificationCount() == 0 {
		fmt.Fprintln(a.out, "No notifications")
		return nil
	}
	for _, m := range snap.Messages {
		who := ""
		if m.UserName != "" {
			who = " (" + m.UserName + ")"
		}
		fmt.Fprintf(a.out, "%s  %s%s\n", m.Timestamp.Format(time.Kitchen), m.Text, who)
	}
	for _, n := range snap.Notifications {
		fmt.Fprintf(a.out, "%s  %s\n", n.Updated, n.Message)
	}
	a.state.MarkRead()
	return nil
}

// Destiny runs the preference assistant until it completes or the user
// leaves with an empty line. "/dismiss" stops it from being offered again.
func (a *App) Destiny(ctx context.Context) error {
	a.stopTrigger()
	for _, l := range a.destinyService.Transcript() {
		printDestinyLine(a, l)
	}

	for {
		input, err := getSimpleText(a.reader, "", a.out)
		if err != nil {
			return nil
		}
		switch strings.TrimSpace(input) {
		case "", "/exit":
			return nil
		case "/dismiss":
			a.destinyService.Dismiss(ctx)
			fmt.Fprintln(a.out, "Destiny will not be offered again this session.")
			return nil
		}

		reply, err := a.destinyService.Send(ctx, input)
		fmt.Fprintln(a.out, "Destiny:", reply.Message)
		if err != nil {
			if errors.Is(err, services.ErrNotLoggedIn) {
				return err
			}
			continue
		}
		if reply.Completed {
			fmt.Fprintln(a.out, "Your preferences have been saved.")
			return nil
		}
	}
}

func printDestinyLine(a *App, l services.DestinyLine) {
	if l.FromUser {
		fmt.Fprintln(a.out, "You:", l.Text)
		return
	}
	fmt.Fprintln(a.out, "Destiny:", l.Text)
}

// Chat opens a conversation with uid. Lines typed are sent; incoming
// messages are printed as they arrive. An empty line or "/exit" leaves.
func (a *App) Chat(ctx context.Context, uid string) error {
	conv, err := a.chatService.Open(ctx, uid)
	if err != nil {
		if errors.Is(err, services.ErrNoConversation) {
			fmt.Fprintln(a.out, "You can only chat with your matches.")
		} else {
			fmt.Fprintln(a.out, "Chat unavailable:", err)
		}
		return err
	}

	me := a.session.UID()
	peer := uid
	if u, ok := a.state.Get(uid); ok {
		peer = u.Name
	}

	hctx, cancel := context.WithTimeout(ctx, historyTimeout)
	history, err := conv.History(hctx)
	cancel()
	if err != nil {
		a.log.Warn(ctx, "conversation history unavailable", "conversation", conv.ID(), "error", err)
	}
	fmt.Fprintf(a.out, "Chatting with %s (empty line to leave)\n", peer)
	for _, l := range history {
		fmt.Fprintln(a.out, formatChatLine(l, me, peer))
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for l := range conv.Events() {
			fmt.Fprintln(a.out, formatChatLine(l, me, peer))
		}
	}()

	for {
		line, err := readLine(a.reader)
		if err != nil || line == "" || line == "/exit" {
			break
		}
		if err := conv.Send(ctx, line); err != nil {
			fmt.Fprintln(a.out, "Message not sent:", err)
			break
		}
	}

	_ = conv.Close()
	<-done
	return nil
}

func formatChatLine(l models.ChatLine, me, peer string) string {
	who := peer
	if l.Author == me {
		who = "you"
	}
	body := l.Body
	if l.Media != "" {
		body = strings.TrimSpace(body + " [media] " + l.Media)
	}
	return fmt.Sprintf("[%s] %s: %s", l.Sent.Local().Format(time.Kitchen), who, body)
}

// Profile prints the own profile card.
func (a *App) Profile(ctx context.Context) error {
	me, err := a.profileService.Me(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Profile unavailable:", err)
		return err
	}
	fmt.Fprintln(a.out, renderCard(me, a.now()))
	return nil
}

// Photos uploads the given image files, prompting for them when none are
// given.
func (a *App) Photos(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		answer, err := getSimpleText(a.reader, fmt.Sprintf("Photo files (space separated, at most %d per profile)", services.MaxImages), a.out)
		if err != nil {
			return err
		}
		paths = strings.Fields(answer)
	}
	if len(paths) == 0 {
		fmt.Fprintln(a.out, "No new photos to upload.")
		return nil
	}

	files, err := filex.ReadFiles(paths...)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}

	me, err := a.profileService.AddPhotos(ctx, files)
	if err != nil {
		fmt.Fprintln(a.out, "Upload failed:", err)
		return err
	}
	fmt.Fprintf(a.out, "Uploaded %d photo(s). Your profile now has %d.\n", len(files), len(me.Images))
	return nil
}
