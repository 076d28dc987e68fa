package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aligned-app/aligned/internal/client/client"
	"github.com/aligned-app/aligned/internal/client/models"
	"github.com/aligned-app/aligned/internal/client/session"
	"github.com/aligned-app/aligned/internal/logging"
)

// DestinyFallback is shown when the assistant cannot be reached.
const DestinyFallback = "I'm having trouble connecting right now. Please try again later."

// DestinyGreeting opens every assistant conversation.
const DestinyGreeting = "Hi! I'm Destiny. Tell me what you are looking for in a partner."

// DestinyLine is one entry of the assistant transcript.
type DestinyLine struct {
	FromUser bool
	Text     string
	At       time.Time
}

// DestinyService drives the scripted preference assistant.
type DestinyService interface {
	// ShouldOffer reports whether the assistant may still be offered in
	// this session.
	ShouldOffer() bool
	Send(ctx context.Context, input string) (models.DestinyReply, error)
	Dismiss(ctx context.Context)
	Transcript() []DestinyLine
	// Reset starts a new transcript.
	Reset()
}

type destinyService struct {
	client  client.Client
	session *session.Store
	log     logging.Logger
	now     func() time.Time

	mu         sync.Mutex
	transcript []DestinyLine
}

func NewDestinyService(c client.Client, sess *session.Store, log logging.Logger) DestinyService {
	d := &destinyService{client: c, session: sess, log: log, now: time.Now}
	d.Reset()
	return d
}

func (d *destinyService) ShouldOffer() bool {
	return d.session.LoggedIn() && !d.session.DestinyDismissed() && !d.session.DestinyCompleted()
}

func (d *destinyService) append(fromUser bool, text string) {
	d.mu.Lock()
	d.transcript = append(d.transcript, DestinyLine{FromUser: fromUser, Text: text, At: d.now()})
	d.mu.Unlock()
}

func (d *destinyService) Send(ctx context.Context, input string) (models.DestinyReply, error) {
	uid := d.session.UID()
	if uid == "" {
		return models.DestinyReply{}, ErrNotLoggedIn
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return models.DestinyReply{}, fmt.Errorf("%w: empty message", ErrValidation)
	}

	d.append(true, input)

	reply, err := d.client.ChatPreference(ctx, uid, input)
	if err != nil {
		d.log.Warn(ctx, "assistant unavailable", "error", err)
		d.append(false, DestinyFallback)
		return models.DestinyReply{Message: DestinyFallback}, err
	}

	d.append(false, reply.Message)
	if reply.Completed {
		d.session.SetDestinyCompleted(ctx, true)
		d.log.Info(ctx, "preference chat completed")
	}
	return *reply, nil
}

func (d *destinyService) Dismiss(ctx context.Context) {
	d.session.SetDestinyDismissed(ctx, true)
}

func (d *destinyService) Transcript() []DestinyLine {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]DestinyLine(nil), d.transcript...)
}

func (d *destinyService) Reset() {
	d.mu.Lock()
	d.transcript = []DestinyLine{{Text: DestinyGreeting, At: d.now()}}
	d.mu.Unlock()
}
