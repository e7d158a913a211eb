package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/moodfit/internal/models"
	"github.com/desertthunder/moodfit/internal/repositories"
	"github.com/desertthunder/moodfit/internal/shared"
	"github.com/urfave/cli/v3"
)

// userSummary is the printable view of a stored token; it never carries the tokens themselves.
type userSummary struct {
	SpotifyID   string    `json:"spotify_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expires_at"`
	Expired     bool      `json:"expired"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func summarize(token *models.UserToken, now time.Time) userSummary {
	return userSummary{
		SpotifyID:   token.ProviderUserID(),
		DisplayName: token.DisplayName(),
		Email:       token.Email(),
		ExpiresAt:   time.Unix(token.ExpiresAt(), 0).UTC(),
		Expired:     token.Expired(now),
		UpdatedAt:   token.UpdatedAt(),
	}
}

// Users lists authenticated users with their token expiry state.
func (r *Runner) Users(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	criteria := map[string]any{}
	if cmd.Bool("expired") {
		criteria["expired"] = true
	}
	if email := cmd.String("email"); email != "" {
		criteria["email"] = email
	}

	tokens, err := repositories.NewUserTokenRepository(db).List(criteria)
	if err != nil {
		return err
	}

	now := time.Now()
	summaries := make([]userSummary, 0, len(tokens))
	for _, token := range tokens {
		summaries = append(summaries, summarize(token, now))
	}

	if cmd.Bool("json") {
		return r.writeJSON(summaries, true)
	}

	if len(summaries) == 0 {
		return r.writePlain("%s\n", r.palette.Warn("no users found"))
	}

	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		state := r.palette.OK("valid")
		if s.Expired {
			state = r.palette.Err("expired")
		}
		rows = append(rows, []string{
			s.SpotifyID,
			orDash(s.DisplayName),
			orDash(s.Email),
			s.ExpiresAt.Format(time.RFC3339),
			state,
		})
	}

	if err := r.writePlain("%s\n", r.palette.Title(fmt.Sprintf("%d user(s)", len(summaries)))); err != nil {
		return err
	}
	return r.writePlain("%s", r.palette.Table([]string{"SPOTIFY ID", "NAME", "EMAIL", "EXPIRES", "TOKEN"}, rows))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
