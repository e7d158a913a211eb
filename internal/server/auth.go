package server

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodfit/internal/services"
)

// TokenGate rejects requests whose Authorization header is missing or not accepted by the provider.
//
// The header value is the raw access token, without a "Bearer " prefix. Validity is checked by
// fetching the caller's profile on every request; nothing is cached. On success the token, the
// validated profile and a provider session are stored in the request context.
func TokenGate(service services.Service, logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("Authorization")
			if token == "" {
				writeError(w, http.StatusUnauthorized, msgMissingAuthToken)
				return
			}

			if service == nil {
				logger.Error("token gate has no provider configured")
				writeError(w, http.StatusInternalServerError, msgMissingCredentials)
				return
			}

			session := service.Session(token)
			user, err := session.CurrentUser(r.Context())
			if err != nil {
				logger.Warn("token rejected",
					"error", err,
					"path", r.URL.Path,
					"request_id", RequestIDFromContext(r.Context()),
				)
				writeError(w, http.StatusUnauthorized, msgInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), tokenKey, token)
			ctx = context.WithValue(ctx, userKey, user)
			ctx = context.WithValue(ctx, sessionKey, session)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromContext returns the access token validated by [TokenGate].
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok && token != ""
}

// UserFromContext returns the profile fetched by [TokenGate].
func UserFromContext(ctx context.Context) (*services.SpotifyUser, bool) {
	user, ok := ctx.Value(userKey).(*services.SpotifyUser)
	return user, ok && user != nil
}

// SessionFromContext returns the provider session opened by [TokenGate].
func SessionFromContext(ctx context.Context) (services.Session, bool) {
	session, ok := ctx.Value(sessionKey).(services.Session)
	return session, ok && session != nil
}
