package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/moodfit/internal/repositories"
	"github.com/desertthunder/moodfit/internal/server"
	"github.com/desertthunder/moodfit/internal/shared"
	"github.com/urfave/cli/v3"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Serve runs the gateway until SIGINT or SIGTERM.
//
// Fails fast when the Spotify client credentials are missing.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if port := cmd.Int("port"); port > 0 {
		r.config.Server.Port = int(port)
	}

	if err := r.config.Validate(); err != nil {
		return err
	}
	if r.spotify == nil {
		return fmt.Errorf("%w: spotify service not initialized", shared.ErrMissingCredentials)
	}

	ln, err := net.Listen("tcp", r.config.Server.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", r.config.Server.Addr(), err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return r.serve(ctx, ln)
}

// serve runs the gateway on ln until ctx ends, then drains in-flight requests.
func (r *Runner) serve(ctx context.Context, ln net.Listener) error {
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		ln.Close()
		return err
	}
	defer db.Close()

	r.logStartup(ln.Addr().String())

	srv := &http.Server{
		Handler: server.New(server.Opts{
			Service:     r.spotify,
			Users:       repositories.NewUserTokenRepository(db),
			FrontendURL: r.config.Server.FrontendURL,
			Logger:      r.logger,
		}),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

func (r *Runner) logStartup(addr string) {
	spotify := r.config.Credentials.Spotify
	database := r.config.Database

	r.logger.Info("starting MoodFit API", "addr", addr)
	r.logger.Info("spotify client configured",
		"client_id", shared.Mask(spotify.ClientID, 5),
		"redirect_uri", spotify.RedirectURI,
	)
	r.logger.Info("database ready", "path", database.DSN())

	if database.Host != "" || database.User != "" || database.Password != "" {
		r.logger.Warn("DB_HOST, DB_USER and DB_PASSWORD are ignored by the SQLite store")
	}
	if r.config.Server.SessionSecret == "" {
		r.logger.Warn("no session secret configured")
	}
}
