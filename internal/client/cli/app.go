package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/aligned-app/aligned/internal/client/client"
	"github.com/aligned-app/aligned/internal/client/config"
	"github.com/aligned-app/aligned/internal/client/messaging"
	"github.com/aligned-app/aligned/internal/client/scheduler"
	"github.com/aligned-app/aligned/internal/client/services"
	"github.com/aligned-app/aligned/internal/client/session"
	"github.com/aligned-app/aligned/internal/client/storage"
	"github.com/aligned-app/aligned/internal/client/triage"
	"github.com/aligned-app/aligned/internal/filex"
	"github.com/aligned-app/aligned/internal/logging"
)

type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

// pingTimeout bounds one liveness check of the status watcher.
const pingTimeout = 3 * time.Second

type App struct {
	config  *config.Config
	log     logging.Logger
	db      *sql.DB
	state   *triage.State
	session *session.Store

	authService         services.AuthService
	feedService         services.FeedService
	actionService       services.ActionService
	notificationService services.NotificationService
	destinyService      services.DestinyService
	chatService         services.ChatService
	profileService      services.ProfileService

	reader *bufio.Reader
	out    io.Writer
	now    func() time.Time

	mu       sync.Mutex
	mode     Mode
	counters string
	poller   *scheduler.Poller
	trigger  *scheduler.OneShot
}

// lockedWriter serializes output of the REPL and the background tasks.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	if _, err := filex.EnsureParentDir(c.CachePath); err != nil {
		return nil, err
	}
	db, err := client.InitDatabase(ctx, c.CachePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}
	repos := client.NewRepositories(db)

	sess := session.NewStore(repos.Metadata, log)
	if err := sess.Load(ctx); err != nil {
		log.Warn(ctx, "session cache unreadable", "error", err)
	}

	api := client.NewHTTPClient(c.BackendURL, c.RequestTimeout)
	api.SetToken(sess.Token())

	var presigner storage.Presigner
	if c.S3Bucket != "" {
		p, err := storage.NewS3Presigner(ctx, storage.S3Config{
			Bucket:    c.S3Bucket,
			Region:    c.S3Region,
			Endpoint:  c.S3Endpoint,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			TTL:       c.PresignTTL,
		})
		if err != nil {
			log.Warn(ctx, "image presigning disabled", "error", err)
		} else {
			presigner = p
		}
	}

	state := triage.NewState()
	cache := services.NewProfileCache(db)
	dialer := messaging.NewWSDialer(c.MessagingEndpoint(), log)

	feed := services.NewFeedService(api, state, sess, cache, presigner, log, c.ProfileConcurrency)
	notes := services.NewNotificationService(api, state, sess, log)

	a := &App{
		config:              c,
		log:                 log,
		db:                  db,
		state:               state,
		session:             sess,
		authService:         services.NewAuthService(api, state, sess, feed, notes, cache, presigner, log),
		feedService:         feed,
		actionService:       services.NewActionService(api, state, sess, cache, log),
		notificationService: notes,
		destinyService:      services.NewDestinyService(api, sess, log),
		chatService:         services.NewChatService(api, sess, dialer, log),
		profileService:      services.NewProfileService(api, sess, presigner, log),
		reader:              bufio.NewReader(os.Stdin),
		out:                 &lockedWriter{w: os.Stdout},
		now:                 time.Now,
	}
	state.OnChange(a.updateCounters)
	return a, nil
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()
	if changed {
		a.log.Info(context.Background(), "connectivity changed", "mode", mode)
		fmt.Fprintf(a.out, "Switched to %s mode\n", mode)
	}
}

func (a *App) currentMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) updateCounters(s triage.Snapshot) {
	c := fmt.Sprintf("R:%d M:%d A:%d", len(s.Recommendations), len(s.Matches), len(s.Awaiting))
	if s.Unread {
		c += fmt.Sprintf(" *%d", s.NotificationCount())
	}
	a.mu.Lock()
	a.counters = c
	a.mu.Unlock()
}

func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

// Close stops background work and releases the cache database.
func (a *App) Close() {
	a.stopBackground()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn(context.Background(), "closing cache", "error", err)
		}
	}
}

func (a *App) isLoggedIn() bool {
	return a.session != nil && a.session.LoggedIn()
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := a.authService.Ping(pctx)
	cancel()

	mode := a.currentMode()
	switch {
	case err != nil && mode == ModeOnline:
		a.setMode(ModeOffline)
	case err == nil && mode != ModeOnline && a.isLoggedIn():
		a.setMode(ModeOnline)
	}
}
