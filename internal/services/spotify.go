// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/moodfit/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// DefaultRedirectURI is the web frontend's callback page; it forwards the code to GET /callback.
	DefaultRedirectURI = "http://localhost:3000/callback"
)

// Scopes requested at login.
var Scopes = []string{
	"user-top-read",
	"user-read-private",
	"user-read-email",
	"playlist-read-private",
	"playlist-read-collaborative",
	"user-read-playback-state",
}

var (
	_ Service = (*SpotifyService)(nil)
	_ Session = (*SpotifySession)(nil)
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist. Genres is only populated on full artist objects.
type SpotifyArtist struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Genres []string       `json:"genres"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ReleaseDate string         `json:"release_date"`
	Images      []SpotifyImage `json:"images"`
	URI         string         `json:"uri"`
}

// AudioFeatures holds the per-track audio analysis values, each in [0, 1].
type AudioFeatures struct {
	ID           string  `json:"id"`
	Valence      float64 `json:"valence"`
	Energy       float64 `json:"energy"`
	Danceability float64 `json:"danceability"`
	Acousticness float64 `json:"acousticness"`
	Tempo        float64 `json:"tempo"`
}

// SpotifyPaging is the envelope of Spotify list endpoints.
type SpotifyPaging[T any] struct {
	Items    []T     `json:"items"`
	Total    int     `json:"total"`
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// APIError is a non-2xx response from the Spotify Web API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify API error: status %d", e.StatusCode)
}

// Unwrap lets callers match [shared.ErrAPIRequest], and [shared.ErrNotAuthenticated] for 401s.
func (e *APIError) Unwrap() []error {
	if e.StatusCode == http.StatusUnauthorized {
		return []error{shared.ErrAPIRequest, shared.ErrNotAuthenticated}
	}
	return []error{shared.ErrAPIRequest}
}

// SpotifyOpts configures a [SpotifyService].
type SpotifyOpts struct {
	ClientID          string
	ClientSecret      string
	RedirectURI       string        // defaults to [DefaultRedirectURI]
	AuthURL           string        // defaults to the Spotify accounts service
	TokenURL          string        // defaults to the Spotify accounts service
	APIURL            string        // defaults to the Spotify Web API
	Timeout           time.Duration // per-request timeout; zero means none
	RequestsPerSecond float64       // outbound pacing; zero disables it
	HTTPClient        *http.Client  // overrides Timeout when set
}

// SpotifyOptsFromConfig maps the configuration file section onto [SpotifyOpts].
func SpotifyOptsFromConfig(cfg shared.SpotifyConfig) SpotifyOpts {
	return SpotifyOpts{
		ClientID:          cfg.ClientID,
		ClientSecret:      cfg.ClientSecret,
		RedirectURI:       cfg.RedirectURI,
		AuthURL:           cfg.AuthURL,
		TokenURL:          cfg.TokenURL,
		APIURL:            cfg.APIURL,
		Timeout:           time.Duration(cfg.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}
}

// SpotifyService implements [Service] for Spotify.
//
// It is safe for concurrent use; per-user state lives in the [SpotifySession] values it hands out.
type SpotifyService struct {
	config     *oauth2.Config
	apiURL     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(opts SpotifyOpts) (*SpotifyService, error) {
	if opts.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	if opts.RedirectURI == "" {
		opts.RedirectURI = DefaultRedirectURI
	}
	if opts.AuthURL == "" {
		opts.AuthURL = spotifyAuthURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.APIURL == "" {
		opts.APIURL = spotifyBaseURL
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	config := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		RedirectURL:  opts.RedirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  opts.AuthURL,
			TokenURL: opts.TokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		apiURL:     opts.APIURL,
		httpClient: client,
		limiter:    limiter,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// AuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for tokens at the accounts service.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)

	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenExchange, err)
	}
	if token == nil || token.AccessToken == "" {
		return nil, fmt.Errorf("%w: no access token returned", shared.ErrTokenExchange)
	}

	return token, nil
}

// Session returns a [SpotifySession] authenticated with accessToken.
func (s *SpotifyService) Session(accessToken string) Session {
	return &SpotifySession{service: s, accessToken: accessToken}
}

// ExpiresIn returns the token lifetime in seconds as reported by the token endpoint,
// falling back to the distance between now and the token's expiry.
func ExpiresIn(token *oauth2.Token, now time.Time) int64 {
	if token.ExpiresIn > 0 {
		return token.ExpiresIn
	}
	if token.Expiry.IsZero() {
		return 0
	}
	return int64(math.Round(token.Expiry.Sub(now).Seconds()))
}

// SpotifySession performs Web API calls with one user's access token.
type SpotifySession struct {
	service     *SpotifyService
	accessToken string
}

// doRequest performs an authenticated GET against the Spotify API and decodes the body into result.
func (c *SpotifySession) doRequest(ctx context.Context, endpoint string, query url.Values, result any) error {
	if c.accessToken == "" {
		return shared.ErrMissingToken
	}

	if limiter := c.service.limiter; limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	apiURL := c.service.apiURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.service.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		if errors.Is(err, io.EOF) {
			return shared.ErrEmptyResponse
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func (c *SpotifySession) raw(ctx context.Context, endpoint string, query url.Values) (json.RawMessage, error) {
	var body json.RawMessage
	if err := c.doRequest(ctx, endpoint, query, &body); err != nil {
		return nil, err
	}
	return body, nil
}

func topQuery(limit int, timeRange TimeRange) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("time_range", string(timeRange))
	return q
}

// CurrentUser retrieves the profile of the token's owner.
func (c *SpotifySession) CurrentUser(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := c.doRequest(ctx, "/me", nil, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: profile without id", shared.ErrEmptyResponse)
	}
	return &user, nil
}

// CurrentUserRaw retrieves the profile body verbatim.
func (c *SpotifySession) CurrentUserRaw(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, "/me", nil)
}

// TopTracks retrieves the user's top tracks for a time range.
func (c *SpotifySession) TopTracks(ctx context.Context, limit int, timeRange TimeRange) (*SpotifyPaging[SpotifyTrack], error) {
	var page SpotifyPaging[SpotifyTrack]
	if err := c.doRequest(ctx, "/me/top/tracks", topQuery(limit, timeRange), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// TopTracksRaw retrieves the user's top tracks body verbatim.
func (c *SpotifySession) TopTracksRaw(ctx context.Context, limit int, timeRange TimeRange) (json.RawMessage, error) {
	return c.raw(ctx, "/me/top/tracks", topQuery(limit, timeRange))
}

// TopArtistsRaw retrieves the user's top artists body verbatim.
func (c *SpotifySession) TopArtistsRaw(ctx context.Context, limit int, timeRange TimeRange) (json.RawMessage, error) {
	return c.raw(ctx, "/me/top/artists", topQuery(limit, timeRange))
}

// PlaylistsRaw retrieves the current user's playlists body verbatim.
func (c *SpotifySession) PlaylistsRaw(ctx context.Context, limit int) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	return c.raw(ctx, "/me/playlists", q)
}

// AudioFeatures retrieves the audio features of a single track. A null body is an error.
func (c *SpotifySession) AudioFeatures(ctx context.Context, trackID string) (*AudioFeatures, error) {
	var features *AudioFeatures
	if err := c.doRequest(ctx, "/audio-features/"+url.PathEscape(trackID), nil, &features); err != nil {
		return nil, err
	}
	if features == nil {
		return nil, fmt.Errorf("%w: no audio features for track %s", shared.ErrEmptyResponse, trackID)
	}
	return features, nil
}

// Artist retrieves a full artist object, including genres.
func (c *SpotifySession) Artist(ctx context.Context, artistID string) (*SpotifyArtist, error) {
	var artist SpotifyArtist
	if err := c.doRequest(ctx, "/artists/"+url.PathEscape(artistID), nil, &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}
