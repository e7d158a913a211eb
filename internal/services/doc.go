// Package services defines the [Service] interface for the music provider and implements it for Spotify.
//
// # Service Interface
//
// A [Service] owns the OAuth client configuration: it builds authorization URLs, exchanges codes for tokens,
// and hands out a [Session] bound to one user's raw access token.
// Sessions are cheap values; the gateway creates one per request and never caches them.
//
// # Spotify Implementation
//
// [SpotifyService] uses [oauth2.Config] for the authorization-code flow and a plain [http.Client] for
// Web API calls. Outbound calls can be paced with a [rate.Limiter] when requests_per_second is set.
// Tokens are not refreshed here: the client re-authenticates when its token expires.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrMissingCredentials] : client id or secret absent
//   - [shared.ErrTokenExchange] : code exchange failed or returned no token
//   - [shared.ErrNotAuthenticated] : Web API answered 401 (matched through [APIError])
//   - [shared.ErrAPIRequest] : any other non-2xx answer
//   - [shared.ErrServiceUnavailable] : transport failure
//   - [shared.ErrEmptyResponse] : a null or id-less body
package services
