// package testing contains shared testing utilities
package testing

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// SpotifyStub is an in-process stand-in for the Spotify accounts service and Web API.
//
// Every map is keyed by the identifier in the request path (or the time_range query for top tracks);
// a missing key yields an error status, which is how tests simulate per-item failures.
// Bodies are raw JSON so tests can send exactly what the real API would, including "null".
type SpotifyStub struct {
	Server *httptest.Server

	mu sync.Mutex

	Tokens        map[string]string // authorization code → token endpoint body
	Users         map[string]string // access token → /me body
	TopTracks     map[string]string // time_range → /me/top/tracks body
	TopArtists    string            // /me/top/artists body
	Playlists     string            // /me/playlists body
	AudioFeatures map[string]string // track id → /audio-features/{id} body
	Artists       map[string]string // artist id → /artists/{id} body

	calls []string
}

// NewSpotifyStub starts a stub server that is closed when the test ends.
func NewSpotifyStub(t *testing.T) *SpotifyStub {
	t.Helper()

	s := &SpotifyStub{
		Tokens:        map[string]string{},
		Users:         map[string]string{},
		TopTracks:     map[string]string{},
		AudioFeatures: map[string]string{},
		Artists:       map[string]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token", s.token)
	mux.HandleFunc("GET /v1/me", s.authorized(func(w http.ResponseWriter, r *http.Request, token string) {
		body, ok := s.lookup(s.Users, token)
		s.write(w, body, ok)
	}))
	mux.HandleFunc("GET /v1/me/top/tracks", s.authorized(func(w http.ResponseWriter, r *http.Request, _ string) {
		body, ok := s.lookup(s.TopTracks, r.URL.Query().Get("time_range"))
		s.write(w, body, ok)
	}))
	mux.HandleFunc("GET /v1/me/top/artists", s.authorized(func(w http.ResponseWriter, r *http.Request, _ string) {
		s.write(w, s.TopArtists, s.TopArtists != "")
	}))
	mux.HandleFunc("GET /v1/me/playlists", s.authorized(func(w http.ResponseWriter, r *http.Request, _ string) {
		s.write(w, s.Playlists, s.Playlists != "")
	}))
	mux.HandleFunc("GET /v1/audio-features/{id}", s.authorized(func(w http.ResponseWriter, r *http.Request, _ string) {
		body, ok := s.lookup(s.AudioFeatures, r.PathValue("id"))
		s.write(w, body, ok)
	}))
	mux.HandleFunc("GET /v1/artists/{id}", s.authorized(func(w http.ResponseWriter, r *http.Request, _ string) {
		body, ok := s.lookup(s.Artists, r.PathValue("id"))
		s.write(w, body, ok)
	}))

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls = append(s.calls, r.Method+" "+r.URL.RequestURI())
		s.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Server.Close)

	return s
}

// AuthURL returns the stub authorize endpoint.
func (s *SpotifyStub) AuthURL() string { return s.Server.URL + "/authorize" }

// TokenURL returns the stub token endpoint.
func (s *SpotifyStub) TokenURL() string { return s.Server.URL + "/api/token" }

// APIURL returns the stub Web API base URL.
func (s *SpotifyStub) APIURL() string { return s.Server.URL + "/v1" }

// Calls returns the "METHOD /path?query" of every request received so far.
func (s *SpotifyStub) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// CallsTo counts received requests whose path starts with prefix.
func (s *SpotifyStub) CallsTo(prefix string) int {
	n := 0
	for _, c := range s.Calls() {
		if _, path, _ := strings.Cut(c, " "); strings.HasPrefix(path, prefix) {
			n++
		}
	}
	return n
}

// AddUser registers an access token and the profile /me returns for it.
func (s *SpotifyStub) AddUser(token string, profile map[string]any) {
	body, _ := json.Marshal(profile)
	s.mu.Lock()
	s.Users[token] = string(body)
	s.mu.Unlock()
}

func (s *SpotifyStub) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, `{"error":"invalid_request"}`, http.StatusBadRequest)
		return
	}
	body, ok := s.lookup(s.Tokens, r.PostForm.Get("code"))
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid authorization code"}`))
		return
	}
	s.write(w, body, true)
}

func (s *SpotifyStub) authorized(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if _, known := s.lookup(s.Users, token); !ok || !known {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"status":401,"message":"Invalid access token"}}`))
			return
		}
		next(w, r, token)
	}
}

func (s *SpotifyStub) lookup(m map[string]string, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := m[key]
	return v, ok
}

func (s *SpotifyStub) write(w http.ResponseWriter, body string, ok bool) {
	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"status":500,"message":"stub has no response"}}`))
		return
	}
	w.Write([]byte(body))
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// ErrTransport is returned by [FailingTransport].
var ErrTransport = errors.New("transport failed")

// FailingTransport returns an [http.Client] whose every request fails with [ErrTransport].
func FailingTransport() *http.Client {
	return &http.Client{Transport: NewMockRoundTripper(nil, ErrTransport)}
}

// JSON marshals v for use as a stub body, failing the test on error.
func JSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal stub body: %v", err)
	}
	return string(b)
}

// DecodeJSON decodes a recorded response body into v, failing the test on error.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}
