// Package session keeps the per-user session state: identity, token,
// assistant flags and the material needed to unlock the cache offline.
//
// Values live in memory and are mirrored to the metadata repository. A
// failing cache write is logged and otherwise ignored.
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/aligned-app/aligned/internal/client/models"
	"github.com/aligned-app/aligned/internal/client/repositories/metadata"
	"github.com/aligned-app/aligned/internal/logging"
)

const (
	keyUID              = "session.uid"
	keyToken            = "session.token"
	keyEmail            = "session.email"
	keyProfile          = "session.profile"
	keyDestinyDismissed = "destiny.dismissed"
	keyDestinyCompleted = "destiny.completed"
	keyOffline          = "offline.credentials"
)

var sessionKeys = []string{keyUID, keyToken, keyEmail, keyProfile, keyDestinyDismissed, keyDestinyCompleted}

// OfflineCredentials let a previously signed-in user unlock the cache while
// the backend is unreachable.
type OfflineCredentials struct {
	Email       string `json:"email"`
	UID         string `json:"uid"`
	Salt        []byte `json:"salt"`
	Verifier    []byte `json:"verifier"`
	SealedToken []byte `json:"sealed_token,omitempty"`
}

type Store struct {
	repo metadata.Repository
	log  logging.Logger

	mu     sync.RWMutex
	values map[string][]byte
}

// NewStore returns a Store mirrored to repo. repo may be nil for a
// memory-only session.
func NewStore(repo metadata.Repository, log logging.Logger) *Store {
	return &Store{repo: repo, log: log, values: make(map[string][]byte)}
}

// Load reads every persisted value into memory.
func (s *Store) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	for k, v := range all {
		s.values[k] = v
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) get(key string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

func (s *Store) set(ctx context.Context, key string, value []byte) {
	s.mu.Lock()
	if value == nil {
		delete(s.values, key)
	} else {
		s.values[key] = value
	}
	s.mu.Unlock()

	if s.repo == nil {
		return
	}
	var err error
	if value == nil {
		err = s.repo.Delete(ctx, key)
	} else {
		err = s.repo.Set(ctx, key, value)
	}
	if err != nil {
		s.log.Warn(ctx, "session cache write failed", "key", key, "error", err)
	}
}

func (s *Store) setString(ctx context.Context, key, v string) {
	if v == "" {
		s.set(ctx, key, nil)
		return
	}
	s.set(ctx, key, []byte(v))
}

func (s *Store) setFlag(ctx context.Context, key string, v bool) {
	if !v {
		s.set(ctx, key, nil)
		return
	}
	s.set(ctx, key, []byte("true"))
}

func (s *Store) UID() string   { return string(s.get(keyUID)) }
func (s *Store) Token() string { return string(s.get(keyToken)) }
func (s *Store) Email() string { return string(s.get(keyEmail)) }

// LoggedIn reports whether a user id is known.
func (s *Store) LoggedIn() bool { return s.UID() != "" }

func (s *Store) SetUID(ctx context.Context, uid string)     { s.setString(ctx, keyUID, uid) }
func (s *Store) SetToken(ctx context.Context, tok string)   { s.setString(ctx, keyToken, tok) }
func (s *Store) SetEmail(ctx context.Context, email string) { s.setString(ctx, keyEmail, email) }

func (s *Store) DestinyDismissed() bool { return string(s.get(keyDestinyDismissed)) == "true" }
func (s *Store) DestinyCompleted() bool { return string(s.get(keyDestinyCompleted)) == "true" }

func (s *Store) SetDestinyDismissed(ctx context.Context, v bool) {
	s.setFlag(ctx, keyDestinyDismissed, v)
}

func (s *Store) SetDestinyCompleted(ctx context.Context, v bool) {
	s.setFlag(ctx, keyDestinyCompleted, v)
}

// ClearDestinyFlags resets the assistant flags, as on every login.
func (s *Store) ClearDestinyFlags(ctx context.Context) {
	s.setFlag(ctx, keyDestinyDismissed, false)
	s.setFlag(ctx, keyDestinyCompleted, false)
}

// Profile returns the cached own profile.
func (s *Store) Profile() (models.NormalizedUser, bool) {
	var u models.NormalizedUser
	data := s.get(keyProfile)
	if data == nil {
		return u, false
	}
	if err := json.Unmarshal(data, &u); err != nil {
		return u, false
	}
	return u, true
}

func (s *Store) SetProfile(ctx context.Context, u models.NormalizedUser) {
	data, err := json.Marshal(u)
	if err != nil {
		s.log.Warn(ctx, "encode profile", "error", err)
		return
	}
	s.set(ctx, keyProfile, data)
}

func (s *Store) Offline() (OfflineCredentials, bool) {
	var c OfflineCredentials
	data := s.get(keyOffline)
	if data == nil {
		return c, false
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, false
	}
	return c, true
}

func (s *Store) SetOffline(ctx context.Context, c OfflineCredentials) {
	data, err := json.Marshal(c)
	if err != nil {
		s.log.Warn(ctx, "encode offline credentials", "error", err)
		return
	}
	s.set(ctx, keyOffline, data)
}

// Clear forgets the signed-in session. Offline credentials are kept so the
// user can still unlock the cache later.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	for _, k := range sessionKeys {
		delete(s.values, k)
	}
	s.mu.Unlock()

	if s.repo == nil {
		return
	}
	if err := s.repo.Delete(ctx, sessionKeys...); err != nil {
		s.log.Warn(ctx, "session cache clear failed", "error", err)
	}
}
