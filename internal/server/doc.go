// Package server provides HTTP routing, middleware, and the handlers of the MoodFit gateway.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering. The method
// check runs inside the middleware stack so that CORS preflights are answered before it.
//
// # Handler Groups
//
// Handlers implement the [Handler] interface and return their own [Route] list:
//
//   - [StatusHandler]: GET / and GET /ping
//   - [OAuthHandler]: GET /login and GET /callback
//   - [UserHandler]: the /api/user/* proxies and /api/music-timeline, each behind [TokenGate]
//
// # Token Gate
//
// [TokenGate] treats the Authorization header as a raw provider access token and validates it by
// fetching the caller's profile. The token, profile and provider session are then available through
// [TokenFromContext], [UserFromContext] and [SessionFromContext].
//
// # Errors
//
// Every error response is a JSON object with a single "error" key. Messages are the ones the
// frontend displays, so most are in Serbian.
package server
