// package server contains the routing, middleware & handlers of the MoodFit HTTP gateway
package server

import (
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodfit/internal/models"
	"github.com/desertthunder/moodfit/internal/services"
	"github.com/desertthunder/moodfit/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, authentication, CORS, panic recovery, etc.
type Middleware func(http.Handler) http.Handler

// Route binds an HTTP method and path pattern to a handler.
type Route struct {
	Method  string
	Path    string
	Handler http.Handler
}

// Handler defines the interface for a group of related endpoints.
// Implementations keep their route definitions next to the code that serves them.
type Handler interface {
	Routes() []Route // Routes returns the method, path and handler of every endpoint in the group
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers every route of a Handler group
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Opts configures the gateway built by [New].
type Opts struct {
	// Service is the OAuth provider. Nil when client credentials are not configured;
	// /login then reports the missing credentials instead of building a URL.
	Service services.Service
	// Users persists the tokens obtained on /callback.
	Users models.Repository[*models.UserToken]
	// FrontendURL is the single origin allowed by CORS.
	FrontendURL string
	Logger      *log.Logger
}

// New builds the gateway router with its middleware stack and every endpoint registered.
//
// Middleware runs outermost first: request logging, CORS, then panic recovery,
// so a recovered panic is still logged and still carries CORS headers.
func New(opts Opts) *BasicRouter {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	r := NewBasicRouter()
	r.Use(
		RequestLogger(logger),
		CORS(opts.FrontendURL),
		Recovery(logger),
	)

	r.Handler(NewStatusHandler())
	r.Handler(NewOAuthHandler(opts.Service, opts.Users, shared.WithLogger(logger, "handler", "oauth")))
	r.Handler(NewUserHandler(opts.Service, shared.WithLogger(logger, "handler", "user")))

	return r
}
