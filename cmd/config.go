package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/moodfit/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConfigInit writes the embedded example configuration to the --config path.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" {
		return fmt.Errorf("%w: --config path is empty", shared.ErrMissingArgument)
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	return r.writePlain("%s wrote %s\n%s\n", r.palette.OK("✓"), path, r.palette.Help("Set SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET, then run 'moodfit setup'."))
}
