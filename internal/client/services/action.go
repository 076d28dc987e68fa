package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/aligned-app/aligned/internal/client/client"
	"github.com/aligned-app/aligned/internal/client/models"
	"github.com/aligned-app/aligned/internal/client/normalize"
	"github.com/aligned-app/aligned/internal/client/session"
	"github.com/aligned-app/aligned/internal/client/triage"
	"github.com/aligned-app/aligned/internal/logging"
)

// ActionService applies align/skip decisions.
//
// The triage state changes only when the backend answers with an OK status.
// A transport failure or a rejected action is logged and returned, and the
// state is left exactly as it was. Nothing is retried.
type ActionService interface {
	Align(ctx context.Context, uid string) (*models.ActionResult, error)
	Skip(ctx context.Context, uid string) (*models.ActionResult, error)
	Do(ctx context.Context, uid string, kind models.ActionKind) (*models.ActionResult, error)
}

type actionService struct {
	client  client.Client
	state   *triage.State
	session *session.Store
	cache   ProfileCache
	log     logging.Logger
}

// NewActionService builds an ActionService. cache may be nil.
func NewActionService(c client.Client, state *triage.State, sess *session.Store, cache ProfileCache, log logging.Logger) ActionService {
	return &actionService{client: c, state: state, session: sess, cache: cache, log: log}
}

func (s *actionService) Align(ctx context.Context, uid string) (*models.ActionResult, error) {
	return s.Do(ctx, uid, models.ActionAlign)
}

func (s *actionService) Skip(ctx context.Context, uid string) (*models.ActionResult, error) {
	return s.Do(ctx, uid, models.ActionSkip)
}

func (s *actionService) Do(ctx context.Context, uid string, kind models.ActionKind) (*models.ActionResult, error) {
	actor := s.session.UID()
	if actor == "" {
		return nil, ErrNotLoggedIn
	}
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, fmt.Errorf("%w: subject id is required", ErrValidation)
	}

	res, err := s.client.Act(ctx, actor, kind, uid)
	if err != nil {
		s.log.Error(ctx, "action failed", "action", kind, "uid", uid, "error", err)
		return res, err
	}

	q, placed := s.state.ApplyActionResult(uid, *res, s.fallback(ctx, uid))
	if !placed {
		q = ""
	}
	s.log.Info(ctx, "action applied", "action", kind, "uid", uid, "queue", q)

	if s.cache != nil {
		if err := s.cache.SetQueue(ctx, uid, q); err != nil {
			s.log.Warn(ctx, "profile cache update failed", "uid", uid, "error", err)
		}
	}
	return res, nil
}

// fallback is the profile used when uid is not in any queue, for example
// when acting on a uid typed by hand.
func (s *actionService) fallback(ctx context.Context, uid string) models.NormalizedUser {
	if s.cache != nil {
		if p, err := s.cache.Get(ctx, uid); err == nil && p != nil {
			return p.User
		}
	}
	return models.NormalizedUser{
		UID:     uid,
		Name:    normalize.UnknownName,
		Hobbies: []string{},
		Images:  []string{},
	}
}
