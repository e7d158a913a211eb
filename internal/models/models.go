// package models defines the data model for the MoodFit gateway
package models

import (
	"fmt"
	"time"
)

// Model defines the base interface for persistent models.
type Model interface {
	CreatedAt() time.Time // CreatedAt returns when this model was first stored
	UpdatedAt() time.Time // UpdatedAt returns when this model was last written
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the data access operations for [UserToken] records, keyed by provider user id.
type Repository[T Model] interface {
	Upsert(model T) error                      // Upsert inserts the model or refreshes the stored tokens of an existing one
	Get(id string) (T, error)                  // Get retrieves a model by its provider user id
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
	Count() (int, error)                       // Count returns the number of stored models
}

// UserToken is the stored OAuth grant for one Spotify account.
type UserToken struct {
	providerUserID string
	displayName    string
	email          string
	accessToken    string
	refreshToken   string
	expiresAt      int64
	createdAt      time.Time
	updatedAt      time.Time
}

// NewUserToken builds a token record. expiresAt is absolute epoch seconds.
func NewUserToken(providerUserID, displayName, email, accessToken, refreshToken string, expiresAt int64) *UserToken {
	now := time.Now()
	return &UserToken{
		providerUserID: providerUserID,
		displayName:    displayName,
		email:          email,
		accessToken:    accessToken,
		refreshToken:   refreshToken,
		expiresAt:      expiresAt,
		createdAt:      now,
		updatedAt:      now,
	}
}

// NewUserTokenExpiringIn builds a token record expiring expiresIn seconds after now.
func NewUserTokenExpiringIn(providerUserID, displayName, email, accessToken, refreshToken string, expiresIn int64, now time.Time) *UserToken {
	return NewUserToken(providerUserID, displayName, email, accessToken, refreshToken, now.Unix()+expiresIn)
}

func (u *UserToken) ProviderUserID() string { return u.providerUserID }
func (u *UserToken) DisplayName() string    { return u.displayName }
func (u *UserToken) Email() string          { return u.email }
func (u *UserToken) AccessToken() string    { return u.accessToken }
func (u *UserToken) RefreshToken() string   { return u.refreshToken }
func (u *UserToken) ExpiresAt() int64       { return u.expiresAt }
func (u *UserToken) CreatedAt() time.Time   { return u.createdAt }
func (u *UserToken) UpdatedAt() time.Time   { return u.updatedAt }

func (u *UserToken) SetCreatedAt(t time.Time) { u.createdAt = t }
func (u *UserToken) SetUpdatedAt(t time.Time) { u.updatedAt = t }

// Expired reports whether the access token's expiry is at or before now.
func (u *UserToken) Expired(now time.Time) bool {
	return u.expiresAt <= now.Unix()
}

// Validate checks the fields required to store a grant.
func (u *UserToken) Validate() error {
	if u.providerUserID == "" {
		return fmt.Errorf("provider user id is required")
	}
	if u.accessToken == "" {
		return fmt.Errorf("access token is required")
	}
	if u.expiresAt <= 0 {
		return fmt.Errorf("expires_at must be positive, got %d", u.expiresAt)
	}
	return nil
}
