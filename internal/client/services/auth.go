package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aligned-app/aligned/internal/client/client"
	"github.com/aligned-app/aligned/internal/client/models"
	"github.com/aligned-app/aligned/internal/client/normalize"
	"github.com/aligned-app/aligned/internal/client/session"
	"github.com/aligned-app/aligned/internal/client/storage"
	"github.com/aligned-app/aligned/internal/client/triage"
	"github.com/aligned-app/aligned/internal/cryptox"
	"github.com/aligned-app/aligned/internal/logging"
	"github.com/go-playground/validator/v10"
)

// Mode tells whether a session talks to the backend or only to the cache.
type Mode int

const (
	ModeOnline Mode = iota
	ModeOffline
)

func (m Mode) String() string {
	if m == ModeOffline {
		return "offline"
	}
	return "online"
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: authenticate against the backend; when it is unreachable fall
//     back to OfflineLogin.
//   - OfflineLogin: verify the password against locally cached data and
//     show the cached queues.
//   - Register: validate the form, check the email and create the account.
//   - Logout: forget the session, the triage state and the profile cache.
//   - Ping: check backend liveness.
type AuthService interface {
	Login(ctx context.Context, email, password string) (Mode, error)
	OfflineLogin(ctx context.Context, email, password string) error
	Register(ctx context.Context, reg models.Registration, images [][]byte) error
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
}

type authService struct {
	client        client.Client
	state         *triage.State
	session       *session.Store
	feed          FeedService
	notifications NotificationService
	cache         ProfileCache
	presigner     storage.Presigner
	validate      *validator.Validate
	log           logging.Logger
}

// NewAuthService builds an AuthService. cache and presigner may be nil.
func NewAuthService(c client.Client, state *triage.State, sess *session.Store, feed FeedService,
	notifications NotificationService, cache ProfileCache, presigner storage.Presigner, log logging.Logger) AuthService {
	return &authService{
		client:        c,
		state:         state,
		session:       sess,
		feed:          feed,
		notifications: notifications,
		cache:         cache,
		presigner:     presigner,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		log:           log,
	}
}

func (a *authService) Login(ctx context.Context, email, password string) (Mode, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ModeOnline, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	res, err := a.client.Login(ctx, email, password)
	if errors.Is(err, client.ErrUnavailable) {
		a.log.Warn(ctx, "backend unreachable, trying offline login", "error", err)
		if oerr := a.OfflineLogin(ctx, email, password); oerr != nil {
			return ModeOffline, oerr
		}
		return ModeOffline, nil
	}
	if err != nil {
		return ModeOnline, fmt.Errorf("login error: %w", err)
	}
	if res.UID == "" {
		return ModeOnline, fmt.Errorf("%w: login response carries no uid", client.ErrRejected)
	}

	a.state.Reset()
	a.session.Clear(ctx)
	a.session.SetUID(ctx, res.UID)
	a.session.SetToken(ctx, res.Token)
	a.session.SetEmail(ctx, email)
	a.session.ClearDestinyFlags(ctx)

	me := normalize.User(res.Profile)
	me.UID = res.UID
	if me.Email == "" {
		me.Email = email
	}
	me.Images = storage.SignImages(ctx, a.presigner, a.log, me.Images)
	a.session.SetProfile(ctx, me)

	a.saveOfflineData(ctx, email, password, res.UID, res.Token)

	a.notifications.Seed(ctx, res.Notifications)
	if _, err := a.feed.Ingest(ctx, res.Cards, ""); err != nil {
		return ModeOnline, err
	}
	a.log.Info(ctx, "logged in", "uid", res.UID)
	return ModeOnline, nil
}

// saveOfflineData keeps what OfflineLogin needs: a salted verifier of the
// password and the session token sealed with the derived key.
func (a *authService) saveOfflineData(ctx context.Context, email, password, uid, token string) {
	salt, err := cryptox.NewSalt()
	if err != nil {
		a.log.Warn(ctx, "offline data not saved", "error", err)
		return
	}
	key := cryptox.DeriveMasterKey([]byte(password), salt)

	creds := session.OfflineCredentials{
		Email:    email,
		UID:      uid,
		Salt:     salt,
		Verifier: cryptox.MakeVerifier(key),
	}
	if token != "" {
		sealed, err := cryptox.Seal(key, []byte(token))
		if err != nil {
			a.log.Warn(ctx, "token not sealed", "error", err)
		} else {
			creds.SealedToken = sealed
		}
	}
	a.session.SetOffline(ctx, creds)
}

func (a *authService) OfflineLogin(ctx context.Context, email, password string) error {
	creds, ok := a.session.Offline()
	if !ok {
		return client.ErrLocalDataNotAvailable
	}
	if !strings.EqualFold(creds.Email, strings.TrimSpace(email)) {
		return client.ErrUnauthorized
	}

	key := cryptox.DeriveMasterKey([]byte(password), creds.Salt)
	if !cryptox.CheckVerifier(key, creds.Verifier) {
		return client.ErrUnauthorized
	}

	var token string
	if len(creds.SealedToken) > 0 {
		plain, err := cryptox.Open(key, creds.SealedToken)
		if err != nil {
			a.log.Warn(ctx, "cached token unreadable", "error", err)
		} else {
			token = string(plain)
		}
	}

	a.state.Reset()
	a.session.SetUID(ctx, creds.UID)
	a.session.SetToken(ctx, token)
	a.session.SetEmail(ctx, creds.Email)
	a.client.SetToken(token)

	n, err := a.feed.LoadCached(ctx, "")
	if err != nil {
		a.log.Warn(ctx, "no cached profiles", "error", err)
	}
	a.log.Info(ctx, "logged in offline", "uid", creds.UID, "cached", n)
	return nil
}

func (a *authService) Register(ctx context.Context, reg models.Registration, images [][]byte) error {
	if err := a.validate.Struct(reg); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if len(images) > MaxImages {
		return fmt.Errorf("%w: at most %d photos", ErrValidation, MaxImages)
	}

	free, msg, err := a.client.VerifyEmail(ctx, reg.Email)
	if err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	if !free {
		return fmt.Errorf("%w: %s", ErrEmailTaken, msg)
	}

	if err := a.client.CreateAccount(ctx, reg, images); err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	a.log.Info(ctx, "account created", "email", reg.Email)
	return nil
}

func (a *authService) Logout(ctx context.Context) error {
	a.state.Reset()
	a.session.Clear(ctx)
	a.client.SetToken("")
	a.notifications.Seed(ctx, nil)
	if a.cache != nil {
		if err := a.cache.Clear(ctx); err != nil {
			a.log.Warn(ctx, "profile cache not cleared", "error", err)
		}
	}
	return nil
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}
