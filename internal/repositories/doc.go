// Package repositories implements SQLite persistence for the gateway's entities.
//
// [UserTokenRepository] stores one [models.UserToken] per Spotify account.
// Writes go through [UserTokenRepository.Upsert], which inserts on first login and refreshes
// access_token, refresh_token and expires_at in place on every later login for the same account.
// Rows are never deleted by the HTTP surface.
package repositories
