package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodfit/internal/models"
	"github.com/desertthunder/moodfit/internal/services"
	"github.com/desertthunder/moodfit/internal/shared"
)

// LoginResponse is the body of GET /login.
type LoginResponse struct {
	AuthURL string `json:"auth_url"`
}

// CallbackResponse is the body of a successful GET /callback.
type CallbackResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// OAuthHandler serves the authorization-code flow.
//
// The frontend owns the redirect URI: it receives the provider redirect and forwards the
// code to /callback, so the state parameter is generated but never compared here.
type OAuthHandler struct {
	service services.Service
	users   models.Repository[*models.UserToken]
	logger  *log.Logger
	now     func() time.Time
}

// NewOAuthHandler creates an [OAuthHandler]. service may be nil when credentials are missing.
func NewOAuthHandler(service services.Service, users models.Repository[*models.UserToken], logger *log.Logger) *OAuthHandler {
	return &OAuthHandler{service: service, users: users, logger: logger, now: time.Now}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/login", Handler: http.HandlerFunc(h.Login)},
		{Method: http.MethodGet, Path: "/callback", Handler: http.HandlerFunc(h.Callback)},
	}
}

// Login returns the provider authorization URL.
func (h *OAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("request_id", RequestIDFromContext(r.Context()))
	logger.Info("login attempt started")

	if h.service == nil {
		logger.Error("spotify credentials are missing")
		writeError(w, http.StatusInternalServerError, msgMissingCredentials)
		return
	}

	authURL := h.service.AuthURL(shared.GenerateID())
	logger.Debug("generated auth url", "url", authURL)

	writeJSON(w, http.StatusOK, LoginResponse{AuthURL: authURL})
}

// Callback exchanges the authorization code, stores the user's tokens and returns them.
//
// Re-authenticating an existing user overwrites the stored tokens and expiry.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", RequestIDFromContext(ctx))

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, msgMissingCode)
		return
	}

	if h.service == nil {
		logger.Error("spotify credentials are missing")
		writeError(w, http.StatusInternalServerError, msgMissingCredentials)
		return
	}

	token, err := h.service.Exchange(ctx, code)
	if err != nil {
		logger.Error("token exchange error", "error", err)
		writeError(w, http.StatusInternalServerError, msgTokenFailed)
		return
	}

	user, err := h.service.Session(token.AccessToken).CurrentUser(ctx)
	if err != nil {
		logger.Error("failed to fetch profile after token exchange", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	now := h.now()
	expiresIn := services.ExpiresIn(token, now)
	record := models.NewUserTokenExpiringIn(
		user.ID, user.DisplayName, user.Email,
		token.AccessToken, token.RefreshToken,
		expiresIn, now,
	)

	if err := h.store(record); err != nil {
		logger.Error("failed to store user token", "spotify_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("user authenticated", "spotify_id", user.ID, "expires_in", expiresIn)

	writeJSON(w, http.StatusOK, CallbackResponse{
		AccessToken:  token.AccessToken,
		ExpiresIn:    expiresIn,
		RefreshToken: token.RefreshToken,
	})
}

func (h *OAuthHandler) store(record *models.UserToken) error {
	if h.users == nil {
		return errors.New("user token store is not configured")
	}
	return h.users.Upsert(record)
}
