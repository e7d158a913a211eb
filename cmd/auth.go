package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/moodfit/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthURL prints the Spotify authorization URL, the same one GET /login returns.
func (r *Runner) AuthURL(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set", shared.ErrMissingCredentials)
	}

	authURL := r.spotify.AuthURL(shared.GenerateID())
	if err := r.writePlain("%s\n", authURL); err != nil {
		return err
	}

	if cmd.Bool("open") {
		r.logger.Info("opening browser for authorization")
		if err := r.openBrowser(authURL); err != nil {
			r.logger.Warn("failed to open browser, visit the URL manually", "error", err)
		}
	}

	return nil
}
