package services

import (
	"context"
	"sync"

	"github.com/aligned-app/aligned/internal/client/client"
	"github.com/aligned-app/aligned/internal/client/models"
	"github.com/aligned-app/aligned/internal/client/normalize"
	"github.com/aligned-app/aligned/internal/client/session"
	"github.com/aligned-app/aligned/internal/client/triage"
	"github.com/aligned-app/aligned/internal/logging"
)

// NotificationService keeps the server notifications of the triage state up
// to date and reports which ones are new.
type NotificationService interface {
	// Seed replaces the notifications with the records delivered at login.
	// Seeded notifications count as already seen.
	Seed(ctx context.Context, records []models.RawRecord) []models.Notification

	// Poll fetches the notifications and returns those not seen before.
	Poll(ctx context.Context) ([]models.Notification, error)
}

type notificationService struct {
	client  client.Client
	state   *triage.State
	session *session.Store
	log     logging.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewNotificationService(c client.Client, state *triage.State, sess *session.Store, log logging.Logger) NotificationService {
	return &notificationService{
		client:  c,
		state:   state,
		session: sess,
		log:     log,
		seen:    make(map[string]struct{}),
	}
}

func (s *notificationService) decode(ctx context.Context, records []models.RawRecord) []models.Notification {
	out := make([]models.Notification, 0, len(records))
	for _, r := range records {
		n, err := normalize.DecodeNotification(r)
		if err != nil {
			s.log.Debug(ctx, "skipping notification", "error", err)
			continue
		}
		out = append(out, n)
	}
	return normalize.DedupeNotifications(out)
}

func (s *notificationService) Seed(ctx context.Context, records []models.RawRecord) []models.Notification {
	list := s.decode(ctx, records)
	s.state.SetNotifications(list)

	s.mu.Lock()
	s.seen = make(map[string]struct{}, len(list))
	for _, n := range list {
		s.seen[n.Key()] = struct{}{}
	}
	s.mu.Unlock()
	return list
}

func (s *notificationService) Poll(ctx context.Context) ([]models.Notification, error) {
	uid := s.session.UID()
	if uid == "" {
		return nil, ErrNotLoggedIn
	}

	records, err := s.client.GetNotifications(ctx, uid)
	if err != nil {
		s.log.Warn(ctx, "notification poll failed", "error", err)
		return nil, err
	}

	list := s.decode(ctx, records)
	s.state.SetNotifications(list)

	s.mu.Lock()
	defer s.mu.Unlock()
	var fresh []models.Notification
	for _, n := range list {
		if _, ok := s.seen[n.Key()]; ok {
			continue
		}
		s.seen[n.Key()] = struct{}{}
		fresh = append(fresh, n)
	}
	return fresh, nil
}
