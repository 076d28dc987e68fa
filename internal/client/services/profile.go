package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/aligned-app/aligned/internal/client/client"
	"github.com/aligned-app/aligned/internal/client/models"
	"github.com/aligned-app/aligned/internal/client/normalize"
	"github.com/aligned-app/aligned/internal/client/session"
	"github.com/aligned-app/aligned/internal/client/storage"
	"github.com/aligned-app/aligned/internal/logging"
)

// ProfileService reads and edits the signed-in user's own profile.
type ProfileService interface {
	// Me fetches the own profile. When the backend is unreachable the cached
	// copy is returned.
	Me(ctx context.Context) (models.NormalizedUser, error)

	// AddPhotos uploads new photos. The profile may hold at most MaxImages.
	AddPhotos(ctx context.Context, files [][]byte) (models.NormalizedUser, error)
}

type profileService struct {
	client    client.Client
	session   *session.Store
	presigner storage.Presigner
	log       logging.Logger
}

// NewProfileService builds a ProfileService. presigner may be nil.
func NewProfileService(c client.Client, sess *session.Store, presigner storage.Presigner, log logging.Logger) ProfileService {
	return &profileService{client: c, session: sess, presigner: presigner, log: log}
}

func (s *profileService) Me(ctx context.Context) (models.NormalizedUser, error) {
	uid := s.session.UID()
	if uid == "" {
		return models.NormalizedUser{}, ErrNotLoggedIn
	}

	raw, err := s.client.GetProfile(ctx, uid)
	if err != nil {
		if cached, ok := s.session.Profile(); ok && errors.Is(err, client.ErrUnavailable) {
			s.log.Warn(ctx, "backend unreachable, showing cached profile", "error", err)
			return cached, nil
		}
		return models.NormalizedUser{}, fmt.Errorf("get profile: %w", err)
	}

	me := normalize.User(raw)
	me.UID = uid
	if me.Email == "" {
		me.Email = s.session.Email()
	}
	me.Images = storage.SignImages(ctx, s.presigner, s.log, me.Images)
	s.session.SetProfile(ctx, me)
	return me, nil
}

func (s *profileService) AddPhotos(ctx context.Context, files [][]byte) (models.NormalizedUser, error) {
	uid := s.session.UID()
	if uid == "" {
		return models.NormalizedUser{}, ErrNotLoggedIn
	}
	if len(files) == 0 {
		return models.NormalizedUser{}, fmt.Errorf("%w: no photos given", ErrValidation)
	}

	me, ok := s.session.Profile()
	if !ok {
		var err error
		if me, err = s.Me(ctx); err != nil {
			return models.NormalizedUser{}, err
		}
	}
	if len(me.Images)+len(files) > MaxImages {
		return me, fmt.Errorf("%w: a profile holds at most %d photos, %d already present",
			ErrValidation, MaxImages, len(me.Images))
	}

	encoded := make([]string, 0, len(files))
	for _, f := range files {
		encoded = append(encoded, base64.StdEncoding.EncodeToString(f))
	}

	if _, err := s.client.UpdateProfile(ctx, uid, encoded); err != nil {
		s.log.Error(ctx, "photo upload failed", "error", err)
		return me, fmt.Errorf("update profile: %w", err)
	}

	me = me.Clone()
	for _, e := range encoded {
		me.Images = append(me.Images, "data:image/jpeg;base64,"+e)
	}
	s.session.SetProfile(ctx, me)
	s.log.Info(ctx, "photos added", "count", len(files))
	return me, nil
}
