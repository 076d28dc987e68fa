package services

import (
	"context"
	"errors"
	"time"

	"github.com/aligned-app/aligned/internal/client/client"
	"github.com/aligned-app/aligned/internal/client/models"
	"github.com/aligned-app/aligned/internal/client/normalize"
	"github.com/aligned-app/aligned/internal/client/session"
	"github.com/aligned-app/aligned/internal/client/storage"
	"github.com/aligned-app/aligned/internal/client/triage"
	"github.com/aligned-app/aligned/internal/logging"
	"golang.org/x/sync/errgroup"
)

// FeedService turns recommendation cards into routed, normalized users.
type FeedService interface {
	// Ingest fetches the profile of every card, normalizes it and routes it
	// into the triage state. Cards without a queue tag use defaultTag. It
	// returns the number of users routed.
	Ingest(ctx context.Context, cards []models.RawRecord, defaultTag string) (int, error)

	// RefreshTab reloads one queue from the backend. When the backend is
	// unreachable the cached profiles of q are shown instead.
	RefreshTab(ctx context.Context, q models.Queue) error

	// RefreshAll reloads recommendations, matches and awaiting, in that order.
	RefreshAll(ctx context.Context) error

	// LoadCached routes the cached profiles of q (all queues when q is
	// empty) into the triage state.
	LoadCached(ctx context.Context, q models.Queue) (int, error)
}

type feedService struct {
	client      client.Client
	state       *triage.State
	session     *session.Store
	cache       ProfileCache
	presigner   storage.Presigner
	log         logging.Logger
	concurrency int
	now         func() time.Time
}

// NewFeedService builds a FeedService. cache and presigner may be nil.
func NewFeedService(c client.Client, state *triage.State, sess *session.Store, cache ProfileCache,
	presigner storage.Presigner, log logging.Logger, concurrency int) FeedService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &feedService{
		client:      c,
		state:       state,
		session:     sess,
		cache:       cache,
		presigner:   presigner,
		log:         log,
		concurrency: concurrency,
		now:         time.Now,
	}
}

type ingested struct {
	user models.NormalizedUser
	tag  string
	ok   bool
}

func (s *feedService) Ingest(ctx context.Context, cards []models.RawRecord, defaultTag string) (int, error) {
	decoded := make([]models.RecommendationCard, 0, len(cards))
	for _, raw := range cards {
		card, err := normalize.DecodeCard(raw)
		if err != nil {
			s.log.Warn(ctx, "skipping malformed card", "error", err)
			continue
		}
		decoded = append(decoded, card)
	}

	results := make([]ingested, len(decoded))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, card := range decoded {
		g.Go(func() error {
			u, ok := s.profile(ctx, card.SubjectID)
			if !ok {
				return nil
			}
			tag := card.Queue
			if tag == "" {
				tag = defaultTag
			}
			results[i] = ingested{user: u.WithCard(card), tag: tag, ok: true}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	routed := 0
	batch := make([]models.CachedProfile, 0, len(results))
	for _, r := range results {
		if !r.ok {
			continue
		}
		q, known := s.state.Route(r.user, r.tag)
		if !known && models.HasTag(r.tag) {
			s.log.Warn(ctx, "unknown queue tag, routed to recommendations", "uid", r.user.UID, "tag", r.tag)
		}
		routed++
		batch = append(batch, models.CachedProfile{User: r.user, Queue: q, FetchedAt: s.now()})
	}

	if s.cache != nil {
		if err := s.cache.SaveAll(ctx, batch); err != nil {
			s.log.Warn(ctx, "profile cache write failed", "error", err)
		}
	}
	return routed, nil
}

// profile fetches and normalizes uid, falling back to the cache.
func (s *feedService) profile(ctx context.Context, uid string) (models.NormalizedUser, bool) {
	raw, err := s.client.GetProfile(ctx, uid)
	if err != nil {
		if cached, ok := s.cached(ctx, uid); ok {
			s.log.Debug(ctx, "using cached profile", "uid", uid, "error", err)
			return cached, true
		}
		s.log.Warn(ctx, "profile fetch failed, skipping card", "uid", uid, "error", err)
		return models.NormalizedUser{}, false
	}

	u := normalize.User(raw)
	if u.UID == "" {
		u.UID = uid
	}
	u.Images = storage.SignImages(ctx, s.presigner, s.log, u.Images)
	return u, true
}

func (s *feedService) cached(ctx context.Context, uid string) (models.NormalizedUser, bool) {
	if s.cache == nil {
		return models.NormalizedUser{}, false
	}
	p, err := s.cache.Get(ctx, uid)
	if err != nil {
		s.log.Warn(ctx, "profile cache read failed", "uid", uid, "error", err)
		return models.NormalizedUser{}, false
	}
	if p == nil {
		return models.NormalizedUser{}, false
	}
	return p.User, true
}

func (s *feedService) RefreshTab(ctx context.Context, q models.Queue) error {
	uid := s.session.UID()
	if uid == "" {
		return ErrNotLoggedIn
	}

	cards, err := s.client.GetQueue(ctx, q, uid)
	if err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			s.log.Warn(ctx, "backend unreachable, showing cached queue", "queue", q, "error", err)
			if _, cerr := s.LoadCached(ctx, q); cerr != nil {
				s.log.Warn(ctx, "cached queue unavailable", "queue", q, "error", cerr)
			}
		}
		return err
	}

	n, err := s.Ingest(ctx, cards, q.Tag())
	if err != nil {
		return err
	}
	s.prune(ctx, q, cards)
	s.log.Debug(ctx, "queue refreshed", "queue", q, "cards", len(cards), "routed", n)
	return nil
}

// prune drops the users of q that the backend no longer lists for it. A
// listed card whose profile could not be fetched keeps its current entry.
func (s *feedService) prune(ctx context.Context, q models.Queue, cards []models.RawRecord) {
	keep := make([]string, 0, len(cards))
	for _, raw := range cards {
		if card, err := normalize.DecodeCard(raw); err == nil {
			keep = append(keep, card.SubjectID)
		}
	}
	dropped := s.state.Prune(q, keep)
	if len(dropped) == 0 {
		return
	}
	s.log.Debug(ctx, "dropped subjects no longer listed", "queue", q, "uids", dropped)
	if s.cache == nil {
		return
	}
	for _, uid := range dropped {
		if err := s.cache.SetQueue(ctx, uid, ""); err != nil {
			s.log.Warn(ctx, "profile cache write failed", "uid", uid, "error", err)
		}
	}
}

func (s *feedService) RefreshAll(ctx context.Context) error {
	var errs []error
	for _, q := range models.Queues {
		if err := s.RefreshTab(ctx, q); err != nil {
			if errors.Is(err, ErrNotLoggedIn) || ctx.Err() != nil {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *feedService) LoadCached(ctx context.Context, q models.Queue) (int, error) {
	if s.cache == nil {
		return 0, client.ErrLocalDataNotAvailable
	}
	list, err := s.cache.List(ctx, q)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range list {
		if p.Queue == "" {
			continue
		}
		s.state.Route(p.User, p.Queue.Tag())
		n++
	}
	return n, nil
}
