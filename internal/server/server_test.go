package server

import (
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/moodfit/internal/repositories"
	"github.com/desertthunder/moodfit/internal/services"
	"github.com/desertthunder/moodfit/internal/shared"
	tu "github.com/desertthunder/moodfit/internal/testing"
	"github.com/desertthunder/moodfit/internal/timeline"
)

const frontend = "http://localhost:3000"

type testGateway struct {
	stub    *tu.SpotifyStub
	users   *repositories.UserTokenRepository
	handler http.Handler
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if _, err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// newTestGateway wires the full router against a stub provider and an in-memory database.
func newTestGateway(t *testing.T) *testGateway {
	t.Helper()

	stub := tu.NewSpotifyStub(t)
	svc, err := services.NewSpotifyService(services.SpotifyOpts{
		ClientID:     "test_client_id",
		ClientSecret: "test_client_secret",
		AuthURL:      stub.AuthURL(),
		TokenURL:     stub.TokenURL(),
		APIURL:       stub.APIURL(),
		Timeout:      5 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	users := repositories.NewUserTokenRepository(setupTestDB(t))

	return &testGateway{
		stub:  stub,
		users: users,
		handler: New(Opts{
			Service:     svc,
			Users:       users,
			FrontendURL: frontend,
			Logger:      shared.NewLogger(io.Discard),
		}),
	}
}

func (g *testGateway) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	g.handler.ServeHTTP(rec, req)
	return rec
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()

	if rec.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}

	var body ErrorResponse
	tu.DecodeJSON(t, rec, &body)
	if body.Error != message {
		t.Errorf("expected error %q, got %q", message, body.Error)
	}
}

func TestStatusEndpoints(t *testing.T) {
	g := newTestGateway(t)

	t.Run("Home", func(t *testing.T) {
		rec := g.get("/", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var body map[string]string
		tu.DecodeJSON(t, rec, &body)
		if body["message"] != "MoodFit API je aktivan" {
			t.Errorf("unexpected body %v", body)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		rec := g.get("/ping", "")

		var body map[string]string
		tu.DecodeJSON(t, rec, &body)
		if body["status"] != "ok" || body["message"] != "Server je dostupan" {
			t.Errorf("unexpected body %v", body)
		}
	})

	t.Run("Unknown Path Is Not Home", func(t *testing.T) {
		if rec := g.get("/nope", ""); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("Wrong Method", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/ping", nil)
		rec := httptest.NewRecorder()
		g.handler.ServeHTTP(rec, req)

		assertError(t, rec, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		if allow := rec.Header().Get("Allow"); allow != http.MethodGet {
			t.Errorf("expected Allow: GET, got %q", allow)
		}
	})
}

func TestLogin(t *testing.T) {
	t.Run("Returns Authorization URL", func(t *testing.T) {
		g := newTestGateway(t)
		rec := g.get("/login", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var body LoginResponse
		tu.DecodeJSON(t, rec, &body)

		u, err := url.Parse(body.AuthURL)
		if err != nil {
			t.Fatalf("invalid auth url %q: %v", body.AuthURL, err)
		}
		q := u.Query()
		if q.Get("client_id") != "test_client_id" {
			t.Errorf("unexpected client_id %q", q.Get("client_id"))
		}
		if q.Get("redirect_uri") != "http://localhost:3000/callback" {
			t.Errorf("unexpected redirect_uri %q", q.Get("redirect_uri"))
		}
		if q.Get("scope") != strings.Join(services.Scopes, " ") {
			t.Errorf("unexpected scope %q", q.Get("scope"))
		}
		if q.Get("response_type") != "code" || q.Get("state") == "" {
			t.Errorf("expected code flow with state, got %v", q)
		}
		if len(g.stub.Calls()) != 0 {
			t.Errorf("login should not call the provider, got %v", g.stub.Calls())
		}
	})

	t.Run("Missing Credentials", func(t *testing.T) {
		stub := tu.NewSpotifyStub(t)
		handler := New(Opts{FrontendURL: frontend, Logger: shared.NewLogger(io.Discard)})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

		assertError(t, rec, http.StatusInternalServerError, "Spotify kredencijali nisu postavljeni")
		if len(stub.Calls()) != 0 {
			t.Errorf("expected no provider calls, got %v", stub.Calls())
		}
	})
}

func TestCallback(t *testing.T) {
	tokenBody := func(access, refresh string) string {
		return `{"access_token":"` + access + `","token_type":"Bearer","expires_in":3600,"refresh_token":"` + refresh + `"}`
	}

	t.Run("Missing Code", func(t *testing.T) {
		g := newTestGateway(t)
		assertError(t, g.get("/callback", ""), http.StatusBadRequest, "Missing authorization code")
	})

	t.Run("Invalid Code", func(t *testing.T) {
		g := newTestGateway(t)
		assertError(t, g.get("/callback?code=bogus", ""), http.StatusInternalServerError, "Failed to get access token")

		if n, _ := g.users.Count(); n != 0 {
			t.Errorf("expected no stored users, got %d", n)
		}
	})

	t.Run("Exchanges Code And Stores User", func(t *testing.T) {
		g := newTestGateway(t)
		g.stub.Tokens["abc"] = tokenBody("t1", "r1")
		g.stub.AddUser("t1", map[string]any{"id": "u1", "display_name": "User One", "email": "u1@example.com"})

		before := time.Now().Unix()
		rec := g.get("/callback?code=abc", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var body CallbackResponse
		tu.DecodeJSON(t, rec, &body)
		if body.AccessToken != "t1" || body.RefreshToken != "r1" || body.ExpiresIn != 3600 {
			t.Errorf("unexpected callback body %+v", body)
		}

		stored, err := g.users.Get("u1")
		if err != nil {
			t.Fatalf("expected stored user: %v", err)
		}
		if stored.AccessToken() != "t1" || stored.RefreshToken() != "r1" {
			t.Errorf("unexpected stored tokens %q/%q", stored.AccessToken(), stored.RefreshToken())
		}
		if stored.ExpiresAt() < before+3600 || stored.ExpiresAt() > time.Now().Unix()+3600 {
			t.Errorf("expires_at %d not within now+3600", stored.ExpiresAt())
		}
		if stored.DisplayName() != "User One" || stored.Email() != "u1@example.com" {
			t.Errorf("unexpected stored profile %q/%q", stored.DisplayName(), stored.Email())
		}
	})

	t.Run("Missing Refresh Token Is Empty String", func(t *testing.T) {
		g := newTestGateway(t)
		g.stub.Tokens["abc"] = `{"access_token":"t1","token_type":"Bearer","expires_in":3600}`
		g.stub.AddUser("t1", map[string]any{"id": "u1"})

		rec := g.get("/callback?code=abc", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), `"refresh_token":""`) {
			t.Errorf("expected empty refresh_token in %s", rec.Body.String())
		}
	})

	t.Run("Reauthentication Updates Single Row", func(t *testing.T) {
		g := newTestGateway(t)
		g.stub.Tokens["abc"] = tokenBody("t1", "r1")
		g.stub.Tokens["def"] = tokenBody("t2", "r2")
		g.stub.AddUser("t1", map[string]any{"id": "u1", "display_name": "User One"})
		g.stub.AddUser("t2", map[string]any{"id": "u1", "display_name": "Renamed"})

		for _, code := range []string{"abc", "def"} {
			if rec := g.get("/callback?code="+code, ""); rec.Code != http.StatusOK {
				t.Fatalf("callback %s failed: %d %s", code, rec.Code, rec.Body.String())
			}
		}

		if n, _ := g.users.Count(); n != 1 {
			t.Fatalf("expected one row, got %d", n)
		}
		stored, _ := g.users.Get("u1")
		if stored.AccessToken() != "t2" || stored.RefreshToken() != "r2" {
			t.Errorf("expected latest tokens, got %q/%q", stored.AccessToken(), stored.RefreshToken())
		}
		if stored.DisplayName() != "User One" {
			t.Errorf("display name is written on insert only, got %q", stored.DisplayName())
		}
	})

	t.Run("Profile Failure", func(t *testing.T) {
		g := newTestGateway(t)
		g.stub.Tokens["abc"] = tokenBody("t1", "r1")

		rec := g.get("/callback?code=abc", "")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		if n, _ := g.users.Count(); n != 0 {
			t.Errorf("expected no stored users, got %d", n)
		}
	})
}

func TestTokenGate(t *testing.T) {
	protected := []string{
		"/api/user/profile",
		"/api/user/top-tracks",
		"/api/user/top-artists",
		"/api/user/playlists",
		"/api/music-timeline",
	}

	g := newTestGateway(t)
	g.stub.AddUser("good", map[string]any{"id": "u1"})

	for _, path := range protected {
		t.Run(path, func(t *testing.T) {
			t.Run("Missing Header", func(t *testing.T) {
				assertError(t, g.get(path, ""), http.StatusUnauthorized, "Nedostaje autorizacioni token")
			})

			t.Run("Rejected Token", func(t *testing.T) {
				assertError(t, g.get(path, "bad"), http.StatusUnauthorized, "Nevažeći token")
			})

			t.Run("Bearer Prefix Is Not Stripped", func(t *testing.T) {
				assertError(t, g.get(path, "Bearer good"), http.StatusUnauthorized, "Nevažeći token")
			})
		})
	}

	t.Run("Stores Token And User In Context", func(t *testing.T) {
		var token string
		var user *services.SpotifyUser
		svc, _ := services.NewSpotifyService(services.SpotifyOpts{
			ClientID: "id", ClientSecret: "secret", APIURL: g.stub.APIURL(),
		})

		handler := TokenGate(svc, shared.NewLogger(io.Discard))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, _ = TokenFromContext(r.Context())
			user, _ = UserFromContext(r.Context())
			if _, ok := SessionFromContext(r.Context()); !ok {
				t.Error("expected session in context")
			}
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "good")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if token != "good" {
			t.Errorf("expected token 'good', got %q", token)
		}
		if user == nil || user.ID != "u1" {
			t.Errorf("expected user u1, got %+v", user)
		}
	})
}

func TestProxies(t *testing.T) {
	g := newTestGateway(t)
	g.stub.AddUser("t1", map[string]any{"id": "u1", "display_name": "User One"})
	g.stub.TopTracks["short_term"] = `{"items":[{"id":"s1","name":"Song"}],"total":1}`

	t.Run("Profile Is Verbatim", func(t *testing.T) {
		rec := g.get("/api/user/profile", "t1")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if rec.Body.String() != g.stub.Users["t1"] {
			t.Errorf("expected verbatim body %s, got %s", g.stub.Users["t1"], rec.Body.String())
		}
	})

	t.Run("Top Tracks Query", func(t *testing.T) {
		rec := g.get("/api/user/top-tracks", "t1")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if rec.Body.String() != g.stub.TopTracks["short_term"] {
			t.Errorf("unexpected body %s", rec.Body.String())
		}

		calls := g.stub.Calls()
		last := calls[len(calls)-1]
		if last != "GET /v1/me/top/tracks?limit=10&time_range=short_term" {
			t.Errorf("unexpected upstream call %q", last)
		}
	})

	t.Run("Top Artists Failure", func(t *testing.T) {
		assertError(t, g.get("/api/user/top-artists", "t1"), http.StatusInternalServerError, "Nije uspelo dohvatanje top izvođača")
	})

	t.Run("Playlists", func(t *testing.T) {
		assertError(t, g.get("/api/user/playlists", "t1"), http.StatusInternalServerError, "Nije uspelo dohvatanje plejlisti")

		g.stub.Playlists = `{"items":[],"total":0}`
		rec := g.get("/api/user/playlists", "t1")
		if rec.Code != http.StatusOK || rec.Body.String() != g.stub.Playlists {
			t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
		}

		calls := g.stub.Calls()
		if last := calls[len(calls)-1]; last != "GET /v1/me/playlists?limit=10" {
			t.Errorf("unexpected upstream call %q", last)
		}
	})
}

func TestMusicTimeline(t *testing.T) {
	t.Run("No Window Succeeds", func(t *testing.T) {
		g := newTestGateway(t)
		g.stub.AddUser("t1", map[string]any{"id": "u1"})

		assertError(t, g.get("/api/music-timeline", "t1"), http.StatusInternalServerError,
			"Nije moguće dohvatiti podatke ni za jedan vremenski period")

		if n := g.stub.CallsTo("/v1/me/top/tracks"); n != 3 {
			t.Errorf("expected one top tracks call per window, got %d", n)
		}
	})

	t.Run("Only Short Term Succeeds", func(t *testing.T) {
		g := newTestGateway(t)
		g.stub.AddUser("t1", map[string]any{"id": "u1"})
		g.stub.TopTracks["short_term"] = `{"items":[
			{"id":"s1","name":"Song 1","artists":[{"id":"a1","name":"Artist 1"}],"album":{"images":[{"url":"http://img/1"}]}},
			{"id":"s2","name":"Song 2","artists":[{"id":"a2","name":"Artist 2"}],"album":{"images":[]}}
		]}`
		g.stub.AudioFeatures["s1"] = `{"id":"s1","valence":0.2,"energy":0.6,"danceability":0.8}`
		g.stub.AudioFeatures["s2"] = `{"id":"s2","valence":0.4,"energy":0.2,"danceability":0.4}`
		g.stub.Artists["a1"] = `{"id":"a1","name":"Artist 1","genres":["pop","indie"]}`

		rec := g.get("/api/music-timeline", "t1")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var body map[string]timeline.WindowResult
		tu.DecodeJSON(t, rec, &body)

		if len(body) != 1 {
			t.Fatalf("expected only short_term, got %v", body)
		}
		w, ok := body["short_term"]
		if !ok {
			t.Fatal("missing short_term window")
		}
		if w.Label != "Poslednji mesec" {
			t.Errorf("unexpected label %q", w.Label)
		}
		if !approx(w.Features.Valence, 0.3) || !approx(w.Features.Energy, 0.4) || !approx(w.Features.Danceability, 0.6) {
			t.Errorf("unexpected features %+v", w.Features)
		}
		if len(w.TopGenres) != 2 || w.TopGenres[0].Genre != "pop" || w.TopGenres[0].Count != 1 {
			t.Errorf("unexpected genres %+v", w.TopGenres)
		}
		if len(w.Tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(w.Tracks))
		}
		if w.Tracks[0].Image == nil || *w.Tracks[0].Image != "http://img/1" {
			t.Errorf("unexpected first image %v", w.Tracks[0].Image)
		}
		if w.Tracks[1].Image != nil {
			t.Errorf("expected null image, got %v", *w.Tracks[1].Image)
		}
	})
}

func approx(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
