package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/aligned-app/aligned/internal/devserver/config"
	"github.com/aligned-app/aligned/internal/logging"
	"github.com/aligned-app/aligned/internal/shared"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	store  *Store
	server *Server
}

func NewApp(c *config.Config, logger logging.Logger) (*App, error) {
	secret := c.SecretKey
	if secret == "" {
		s, err := shared.MakeRandHexString(32)
		if err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
		secret = s
	}

	store := NewStore()
	if c.Seed {
		if _, err := Seed(store); err != nil {
			return nil, err
		}
		logger.Info(context.Background(), "demo data loaded", "email", DemoEmail, "password", DemoPassword)
	}

	return &App{
		config: c,
		logger: logger,
		store:  store,
		server: NewServer(store, []byte(secret), c.SessionTokenTTL, c.ChatTokenTTL, logger),
	}, nil
}

// Run serves on the configured address until ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", app.config.Addr)
	if err != nil {
		return err
	}
	return app.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (app *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           app.server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "starting devserver", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	app.logger.Info(context.Background(), "devserver stopped")
	return nil
}
