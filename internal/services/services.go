// package services defines interfaces for the music provider the gateway talks to
package services

import (
	"context"
	"encoding/json"

	"golang.org/x/oauth2"
)

// Service is an OAuth-backed music provider.
type Service interface {
	// Name returns the name of the service (e.g., "Spotify")
	Name() string

	// AuthURL returns the provider authorization URL carrying state.
	AuthURL(state string) string

	// Exchange trades an authorization code for an access/refresh token pair.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// Session returns a client acting with the given raw access token.
	Session(accessToken string) Session
}

// Session is a set of read-only calls made on behalf of one user.
//
// The Raw variants return the provider body verbatim for proxying.
type Session interface {
	CurrentUser(ctx context.Context) (*SpotifyUser, error)
	CurrentUserRaw(ctx context.Context) (json.RawMessage, error)
	TopTracks(ctx context.Context, limit int, timeRange TimeRange) (*SpotifyPaging[SpotifyTrack], error)
	TopTracksRaw(ctx context.Context, limit int, timeRange TimeRange) (json.RawMessage, error)
	TopArtistsRaw(ctx context.Context, limit int, timeRange TimeRange) (json.RawMessage, error)
	PlaylistsRaw(ctx context.Context, limit int) (json.RawMessage, error)
	AudioFeatures(ctx context.Context, trackID string) (*AudioFeatures, error)
	Artist(ctx context.Context, artistID string) (*SpotifyArtist, error)
}

// TimeRange selects the affinity window of the top items endpoints.
type TimeRange string

const (
	ShortTerm  TimeRange = "short_term"  // roughly the last 4 weeks
	MediumTerm TimeRange = "medium_term" // roughly the last 6 months
	LongTerm   TimeRange = "long_term"   // all available history
)
