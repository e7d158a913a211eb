package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/moodfit/internal/models"
	"github.com/desertthunder/moodfit/internal/shared"
)

const userTokenColumns = `spotify_id, display_name, email, access_token, refresh_token, expires_at, created_at, updated_at`

var _ models.Repository[*models.UserToken] = (*UserTokenRepository)(nil)

// UserTokenRepository implements [models.Repository] for [models.UserToken] persistence.
type UserTokenRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewUserTokenRepository creates a new [UserTokenRepository] with the given database connection
func NewUserTokenRepository(db *sql.DB) *UserTokenRepository {
	return &UserTokenRepository{db: db, now: time.Now}
}

// Upsert inserts the token or, when the Spotify id is already stored, overwrites its
// access token, refresh token and expiry. Display name and email are kept from the first insert.
func (r *UserTokenRepository) Upsert(token *models.UserToken) error {
	if err := token.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := r.now()
	token.SetUpdatedAt(now)

	query := `
		INSERT INTO users (spotify_id, display_name, email, access_token, refresh_token, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(spotify_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		token.ProviderUserID(),
		nullable(token.DisplayName()),
		nullable(token.Email()),
		token.AccessToken(),
		token.RefreshToken(),
		token.ExpiresAt(),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user token: %w", err)
	}

	return nil
}

// Get retrieves the token stored for a Spotify user id.
func (r *UserTokenRepository) Get(providerUserID string) (*models.UserToken, error) {
	query := `SELECT ` + userTokenColumns + ` FROM users WHERE spotify_id = ?`

	token, err := scanUserToken(r.db.QueryRow(query, providerUserID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", shared.ErrNotFound, providerUserID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user token: %w", err)
	}

	return token, nil
}

// List retrieves stored tokens ordered by Spotify id.
//
// Supported criteria: "expired" (bool) filters on expires_at relative to the current time,
// "email" (string) matches exactly.
func (r *UserTokenRepository) List(criteria map[string]any) ([]*models.UserToken, error) {
	query := `SELECT ` + userTokenColumns + ` FROM users WHERE 1 = 1`
	args := []any{}

	if expired, ok := criteria["expired"].(bool); ok {
		if expired {
			query += " AND expires_at <= ?"
		} else {
			query += " AND expires_at > ?"
		}
		args = append(args, r.now().Unix())
	}

	if email, ok := criteria["email"].(string); ok && email != "" {
		query += " AND email = ?"
		args = append(args, email)
	}

	query += " ORDER BY spotify_id ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query user tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*models.UserToken
	for rows.Next() {
		token, err := scanUserToken(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user token: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tokens, nil
}

// Count returns the number of stored tokens.
func (r *UserTokenRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count user tokens: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUserToken(row scanner) (*models.UserToken, error) {
	var (
		spotifyID    string
		displayName  sql.NullString
		email        sql.NullString
		accessToken  string
		refreshToken string
		expiresAt    int64
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := row.Scan(&spotifyID, &displayName, &email, &accessToken, &refreshToken, &expiresAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	token := models.NewUserToken(spotifyID, displayName.String, email.String, accessToken, refreshToken, expiresAt)
	token.SetCreatedAt(createdAt)
	token.SetUpdatedAt(updatedAt)
	return token, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
