// Package models defines the persistent entities of the MoodFit gateway.
//
// [UserToken] is the only durable entity: one row per Spotify account that completed the OAuth callback,
// holding the provider-issued tokens and their absolute expiry.
// Tokens are opaque to the gateway; it stores them but never interprets or refreshes them.
//
// The [Repository] interface describes the persistence operations the repositories package implements.
package models
