package services

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/aligned-app/aligned/internal/client/models"
	"github.com/aligned-app/aligned/internal/client/messaging"
	"github.com/aligned-app/aligned/internal/client/session"
	"github.com/aligned-app/aligned/internal/client/triage"
	"github.com/aligned-app/aligned/internal/logging"
)

// ---- fake client ----

// fakeClient implements client.Client for service unit tests.
type fakeClient struct {
	mu sync.Mutex

	LoginRet *models.LoginResult
	LoginErr error

	VerifyFree bool
	VerifyMsg  string
	VerifyErr  error

	CreateErr error

	Profiles   map[string]models.RawRecord
	ProfileErr map[string]error

	UpdateErr error

	Queues   map[models.Queue][]models.RawRecord
	QueueErr error

	ActRet *models.ActionResult
	ActErr error

	NotificationsRet []models.RawRecord
	NotificationsErr error

	PreferenceRet *models.DestinyReply
	PreferenceErr error

	ChatTokens  []string
	ChatTokenN  int
	ChatTokUIDs []string
	ChatTokErr  error
	ConvRet     string
	ConvErr     error
	PingErr     error
	token       string
	ProfileHits int

	LastLoginEmail    string
	LastCreate        *models.Registration
	LastCreateImages  [][]byte
	LastUpdateUID     string
	LastUpdateImages  []string
	LastActActor      string
	LastActKind       models.ActionKind
	LastActSubject    string
	LastPreferenceIn  string
	LastConvUID1      string
	LastConvUID2      string
	LastQueueUID      string
	LastNotifications string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		VerifyFree: true,
		Profiles:   map[string]models.RawRecord{},
		ProfileErr: map[string]error{},
		Queues:     map[models.Queue][]models.RawRecord{},
	}
}

func (f *fakeClient) Login(_ context.Context, email, _ string) (*models.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastLoginEmail = email
	if f.LoginErr != nil {
		return nil, f.LoginErr
	}
	if f.LoginRet != nil && f.LoginRet.Token != "" {
		f.token = f.LoginRet.Token
	}
	return f.LoginRet, nil
}

func (f *fakeClient) VerifyEmail(context.Context, string) (bool, string, error) {
	return f.VerifyFree, f.VerifyMsg, f.VerifyErr
}

func (f *fakeClient) CreateAccount(_ context.Context, reg models.Registration, images [][]byte) error {
	f.LastCreate = &reg
	f.LastCreateImages = images
	return f.CreateErr
}

func (f *fakeClient) GetProfile(_ context.Context, uid string) (models.RawRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ProfileHits++
	if err := f.ProfileErr[uid]; err != nil {
		return nil, err
	}
	raw, ok := f.Profiles[uid]
	if !ok {
		return models.RawRecord{}, nil
	}
	return raw, nil
}

func (f *fakeClient) UpdateProfile(_ context.Context, uid string, images []string) (models.RawRecord, error) {
	f.LastUpdateUID = uid
	f.LastUpdateImages = images
	if f.UpdateErr != nil {
		return nil, f.UpdateErr
	}
	return models.RawRecord{}, nil
}

func (f *fakeClient) GetQueue(_ context.Context, q models.Queue, uid string) ([]models.RawRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastQueueUID = uid
	if f.QueueErr != nil {
		return nil, f.QueueErr
	}
	return f.Queues[q], nil
}

func (f *fakeClient) Act(_ context.Context, actor string, kind models.ActionKind, subject string) (*models.ActionResult, error) {
	f.LastActActor, f.LastActKind, f.LastActSubject = actor, kind, subject
	return f.ActRet, f.ActErr
}

func (f *fakeClient) GetNotifications(_ context.Context, uid string) ([]models.RawRecord, error) {
	f.LastNotifications = uid
	return f.NotificationsRet, f.NotificationsErr
}

func (f *fakeClient) ChatPreference(_ context.Context, _, input string) (*models.DestinyReply, error) {
	f.LastPreferenceIn = input
	return f.PreferenceRet, f.PreferenceErr
}

func (f *fakeClient) ChatToken(_ context.Context, uid string) (string, error) {
	f.ChatTokUIDs = append(f.ChatTokUIDs, uid)
	if f.ChatTokErr != nil {
		return "", f.ChatTokErr
	}
	tok := f.ChatTokens[f.ChatTokenN%len(f.ChatTokens)]
	f.ChatTokenN++
	return tok, nil
}

func (f *fakeClient) Conversation(_ context.Context, uid1, uid2 string) (string, error) {
	f.LastConvUID1, f.LastConvUID2 = uid1, uid2
	return f.ConvRet, f.ConvErr
}

func (f *fakeClient) Ping(context.Context) error { return f.PingErr }

func (f *fakeClient) SetToken(token string) {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
}

func (f *fakeClient) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

// ---- fake profile cache ----

type fakeCache struct {
	mu       sync.Mutex
	profiles map[string]models.CachedProfile
	order    []string
	SaveErr  error
	Saves    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{profiles: map[string]models.CachedProfile{}}
}

func (c *fakeCache) Upsert(_ context.Context, p models.CachedProfile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.profiles[p.User.UID]; !ok {
		c.order = append(c.order, p.User.UID)
	}
	c.profiles[p.User.UID] = p
	return nil
}

func (c *fakeCache) SaveAll(ctx context.Context, list []models.CachedProfile) error {
	c.Saves++
	if c.SaveErr != nil {
		return c.SaveErr
	}
	for _, p := range list {
		_ = c.Upsert(ctx, p)
	}
	return nil
}

func (c *fakeCache) Get(_ context.Context, uid string) (*models.CachedProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.profiles[uid]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (c *fakeCache) List(_ context.Context, q models.Queue) ([]models.CachedProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.CachedProfile
	for _, uid := range c.order {
		p, ok := c.profiles[uid]
		if !ok {
			continue
		}
		if q == "" || p.Queue == q {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *fakeCache) SetQueue(_ context.Context, uid string, q models.Queue) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.profiles[uid]; ok {
		p.Queue = q
		c.profiles[uid] = p
	}
	return nil
}

func (c *fakeCache) Delete(_ context.Context, uid string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.profiles, uid)
	return nil
}

func (c *fakeCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles = map[string]models.CachedProfile{}
	c.order = nil
	return nil
}

// ---- fake presigner ----

type fakePresigner struct{}

func (fakePresigner) KeyFor(rawURL string) (string, bool) {
	const prefix = "https://bucket.s3.amazonaws.com/"
	if len(rawURL) > len(prefix) && rawURL[:len(prefix)] == prefix {
		return rawURL[len(prefix):], true
	}
	return "", false
}

func (fakePresigner) PresignGet(_ context.Context, key string) (string, error) {
	return "https://signed.example/" + key + "?sig=1", nil
}

// ---- fake messaging ----

type fakeConversation struct{ id string }

func (c *fakeConversation) ID() string { return c.id }
func (c *fakeConversation) History(context.Context) ([]models.ChatLine, error) {
	return nil, nil
}
func (c *fakeConversation) Send(context.Context, string) error { return nil }
func (c *fakeConversation) Events() <-chan models.ChatLine {
	ch := make(chan models.ChatLine)
	close(ch)
	return ch
}
func (c *fakeConversation) Close() error { return nil }

type fakeDialer struct {
	Err       error
	LastToken string
	LastID    string
	Dials     int
}

func (d *fakeDialer) Dial(_ context.Context, token, id string) (messaging.Conversation, error) {
	d.Dials++
	d.LastToken, d.LastID = token, id
	if d.Err != nil {
		return nil, d.Err
	}
	return &fakeConversation{id: id}, nil
}

// ---- helpers ----

func bufferLogger() (logging.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return logging.NewSlogLogger(slog.New(h)), &buf
}

func loggedIn(t *testing.T, uid string) *session.Store {
	t.Helper()
	s := session.NewStore(nil, logging.Discard())
	s.SetUID(context.Background(), uid)
	return s
}

func card(uid, tag string, score any) models.RawRecord {
	r := models.RawRecord{"recommendation_uid": uid, "queue": tag}
	if score != nil {
		r["score"] = score
	}
	return r
}

func uids(list []models.NormalizedUser) []string {
	out := make([]string, 0, len(list))
	for _, u := range list {
		out = append(out, u.UID)
	}
	return out
}

func newState() *triage.State { return triage.NewState() }
