package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/aligned-app/aligned/internal/client/config"
	"github.com/aligned-app/aligned/internal/client/messaging"
	"github.com/aligned-app/aligned/internal/client/models"
	"github.com/aligned-app/aligned/internal/client/services"
	"github.com/aligned-app/aligned/internal/client/session"
	"github.com/aligned-app/aligned/internal/client/triage"
	"github.com/aligned-app/aligned/internal/logging"
)

type fakeAuth struct {
	LoginMode services.Mode
	LoginErr  error
	RegErr    error
	PingErr   error

	LastEmail    string
	LastPassword string
	LastReg      *models.Registration
	LastImages   [][]byte
	Logouts      int

	onLogin func()
	sess    *session.Store
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (services.Mode, error) {
	f.LastEmail, f.LastPassword = email, password
	if f.LoginErr == nil && f.onLogin != nil {
		f.onLogin()
	}
	return f.LoginMode, f.LoginErr
}
func (f *fakeAuth) OfflineLogin(context.Context, string, string) error { return nil }
func (f *fakeAuth) Register(_ context.Context, reg models.Registration, images [][]byte) error {
	f.LastReg, f.LastImages = &reg, images
	return f.RegErr
}
func (f *fakeAuth) Logout(ctx context.Context) error {
	f.Logouts++
	if f.sess != nil {
		f.sess.Clear(ctx)
	}
	return nil
}
func (f *fakeAuth) Ping(context.Context) error { return f.PingErr }

type fakeFeed struct {
	RefreshErr error
	Refreshes  int
}

func (f *fakeFeed) Ingest(context.Context, []models.RawRecord, string) (int, error) { return 0, nil }
func (f *fakeFeed) RefreshTab(context.Context, models.Queue) error                 { return nil }
func (f *fakeFeed) RefreshAll(context.Context) error {
	f.Refreshes++
	return f.RefreshErr
}
func (f *fakeFeed) LoadCached(context.Context, models.Queue) (int, error) { return 0, nil }

// fakeActions applies results to the shared state like the real service.
type fakeActions struct {
	state *triage.State
	Ret   *models.ActionResult
	Err   error

	LastUID  string
	LastKind models.ActionKind
}

func (f *fakeActions) Align(ctx context.Context, uid string) (*models.ActionResult, error) {
	return f.Do(ctx, uid, models.ActionAlign)
}
func (f *fakeActions) Skip(ctx context.Context, uid string) (*models.ActionResult, error) {
	return f.Do(ctx, uid, models.ActionSkip)
}
func (f *fakeActions) Do(_ context.Context, uid string, kind models.ActionKind) (*models.ActionResult, error) {
	f.LastUID, f.LastKind = uid, kind
	if f.Err != nil {
		return nil, f.Err
	}
	f.state.ApplyActionResult(uid, *f.Ret, models.NormalizedUser{UID: uid})
	return f.Ret, nil
}

type fakeNotes struct {
	Fresh []models.Notification
	Err   error
	Polls int
}

func (f *fakeNotes) Seed(context.Context, []models.RawRecord) []models.Notification { return nil }
func (f *fakeNotes) Poll(context.Context) ([]models.Notification, error) {
	f.Polls++
	return f.Fresh, f.Err
}

type fakeDestiny struct {
	Offer     bool
	Replies   []models.DestinyReply
	Err       error
	Sent      []string
	Dismissed bool
	Resets    int
}

func (f *fakeDestiny) ShouldOffer() bool { return f.Offer && !f.Dismissed }
func (f *fakeDestiny) Send(_ context.Context, input string) (models.DestinyReply, error) {
	f.Sent = append(f.Sent, input)
	if f.Err != nil {
		return models.DestinyReply{Message: services.DestinyFallback}, f.Err
	}
	r := f.Replies[0]
	f.Replies = f.Replies[1:]
	return r, nil
}
func (f *fakeDestiny) Dismiss(context.Context) { f.Dismissed = true }
func (f *fakeDestiny) Transcript() []services.DestinyLine {
	return []services.DestinyLine{{Text: services.DestinyGreeting}}
}
func (f *fakeDestiny) Reset() { f.Resets++ }

type fakeConv struct {
	history []models.ChatLine
	events  chan models.ChatLine
	sent    []string
	closed  bool
}

func (c *fakeConv) ID() string { return "CH1" }
func (c *fakeConv) History(context.Context) ([]models.ChatLine, error) {
	return c.history, nil
}
func (c *fakeConv) Send(_ context.Context, body string) error {
	c.sent = append(c.sent, body)
	return nil
}
func (c *fakeConv) Events() <-chan models.ChatLine { return c.events }
func (c *fakeConv) Close() error {
	if !c.closed {
		c.closed = true
		close(c.events)
	}
	return nil
}

type fakeChat struct {
	Conv    *fakeConv
	Err     error
	LastUID string
}

func (f *fakeChat) Open(_ context.Context, uid string) (messaging.Conversation, error) {
	f.LastUID = uid
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Conv, nil
}

type fakeProfile struct {
	User      models.NormalizedUser
	Err       error
	LastFiles [][]byte
}

func (f *fakeProfile) Me(context.Context) (models.NormalizedUser, error) { return f.User, f.Err }
func (f *fakeProfile) AddPhotos(_ context.Context, files [][]byte) (models.NormalizedUser, error) {
	f.LastFiles = files
	if f.Err != nil {
		return f.User, f.Err
	}
	me := f.User.Clone()
	for range files {
		me.Images = append(me.Images, "data:image/jpeg;base64,AAAA")
	}
	return me, nil
}

type testApp struct {
	*App
	out     *bytes.Buffer
	auth    *fakeAuth
	feed    *fakeFeed
	actions *fakeActions
	notes   *fakeNotes
	destiny *fakeDestiny
	chat    *fakeChat
	profile *fakeProfile
}

var fixedNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

// newTestApp builds an App on fakes. input feeds the prompts.
func newTestApp(t *testing.T, input string) *testApp {
	t.Helper()
	state := triage.NewState()
	sess := session.NewStore(nil, logging.Discard())
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.RefreshInterval = time.Hour
	cfg.ChatTriggerMin, cfg.ChatTriggerMax = time.Hour, time.Hour

	var out bytes.Buffer
	ta := &testApp{
		out:     &out,
		auth:    &fakeAuth{sess: sess},
		feed:    &fakeFeed{},
		actions: &fakeActions{state: state},
		notes:   &fakeNotes{},
		destiny: &fakeDestiny{},
		chat:    &fakeChat{},
		profile: &fakeProfile{},
	}
	ta.App = &App{
		config:              cfg,
		log:                 logging.Discard(),
		state:               state,
		session:             sess,
		authService:         ta.auth,
		feedService:         ta.feed,
		actionService:       ta.actions,
		notificationService: ta.notes,
		destinyService:      ta.destiny,
		chatService:         ta.chat,
		profileService:      ta.profile,
		reader:              rdr(input),
		out:                 &out,
		now:                 func() time.Time { return fixedNow },
	}
	state.OnChange(ta.updateCounters)
	t.Cleanup(ta.stopBackground)
	return ta
}

func (ta *testApp) login(t *testing.T, uid string) {
	t.Helper()
	ta.session.SetUID(context.Background(), uid)
	ta.session.SetEmail(context.Background(), uid+"@example.com")
}
