package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodfit/internal/services"
	"github.com/desertthunder/moodfit/internal/timeline"
)

// proxyLimit is the page size of every proxied list endpoint.
const proxyLimit = 10

// StatusHandler serves the liveness endpoints.
type StatusHandler struct{}

func NewStatusHandler() *StatusHandler {
	return &StatusHandler{}
}

func (h *StatusHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/{$}", Handler: http.HandlerFunc(h.Home)},
		{Method: http.MethodGet, Path: "/ping", Handler: http.HandlerFunc(h.Ping)},
	}
}

func (h *StatusHandler) Home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": msgHome})
}

func (h *StatusHandler) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": msgPing})
}

// UserHandler serves the token-gated profile, listening data and timeline endpoints.
type UserHandler struct {
	service services.Service
	logger  *log.Logger
}

func NewUserHandler(service services.Service, logger *log.Logger) *UserHandler {
	return &UserHandler{service: service, logger: logger}
}

// Routes returns every endpoint wrapped in [TokenGate].
func (h *UserHandler) Routes() []Route {
	gate := TokenGate(h.service, h.logger)

	return []Route{
		{Method: http.MethodGet, Path: "/api/user/profile", Handler: gate(http.HandlerFunc(h.Profile))},
		{Method: http.MethodGet, Path: "/api/user/top-tracks", Handler: gate(http.HandlerFunc(h.TopTracks))},
		{Method: http.MethodGet, Path: "/api/user/top-artists", Handler: gate(http.HandlerFunc(h.TopArtists))},
		{Method: http.MethodGet, Path: "/api/user/playlists", Handler: gate(http.HandlerFunc(h.Playlists))},
		{Method: http.MethodGet, Path: "/api/music-timeline", Handler: gate(http.HandlerFunc(h.Timeline))},
	}
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, msgProfileFailed, func(ctx context.Context, s services.Session) (json.RawMessage, error) {
		return s.CurrentUserRaw(ctx)
	})
}

func (h *UserHandler) TopTracks(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, msgTopTracksFailed, func(ctx context.Context, s services.Session) (json.RawMessage, error) {
		return s.TopTracksRaw(ctx, proxyLimit, services.ShortTerm)
	})
}

func (h *UserHandler) TopArtists(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, msgTopArtistsFailed, func(ctx context.Context, s services.Session) (json.RawMessage, error) {
		return s.TopArtistsRaw(ctx, proxyLimit, services.ShortTerm)
	})
}

func (h *UserHandler) Playlists(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, msgPlaylistsFailed, func(ctx context.Context, s services.Session) (json.RawMessage, error) {
		return s.PlaylistsRaw(ctx, proxyLimit)
	})
}

// Timeline aggregates mood features and genres over the three affinity windows.
//
// Windows that fail are left out; the response is an error only when none succeeded.
func (h *UserHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	session, ok := SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgMissingAuthToken)
		return
	}
	logger := h.logger.With("request_id", RequestIDFromContext(r.Context()))

	report := timeline.Build(r.Context(), session)
	for _, f := range report.Failures {
		logger.Warn("timeline call skipped",
			"window", f.Window,
			"stage", f.Stage,
			"item", f.Item,
			"error", f.Err,
		)
	}

	if report.Empty() {
		logger.Error("no timeline window succeeded", "failures", len(report.Failures))
		writeError(w, http.StatusInternalServerError, msgTimelineUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, report.Timeline)
}

// proxy writes the upstream body verbatim, or a 500 with message when the call fails.
func (h *UserHandler) proxy(w http.ResponseWriter, r *http.Request, message string, fetch func(context.Context, services.Session) (json.RawMessage, error)) {
	session, ok := SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgMissingAuthToken)
		return
	}

	body, err := fetch(r.Context(), session)
	if err != nil {
		h.logger.Error("proxy call failed",
			"path", r.URL.Path,
			"error", err,
			"request_id", RequestIDFromContext(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, message)
		return
	}

	writeRaw(w, http.StatusOK, body)
}
