// Package router sets up all HTTP routes and middleware chains for the
// content API. It organizes routes into public and authenticated groups
// with appropriate middleware stacks.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"casepress/internal/handlers"
	"casepress/internal/middleware"
	"casepress/internal/session"
)

// Rate limits, requests per window per client IP. Auth endpoints get a
// far tighter budget to slow down credential stuffing.
const (
	authRateLimit   = 5
	apiRateLimit    = 100
	rateLimitWindow = 15 * time.Minute
)

// Options carries router configuration.
type Options struct {
	SecureCookies bool
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(sessionStore *session.Store, auth *handlers.Auth, posts *handlers.Posts, authors *handlers.Authors, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(sessionStore))

	// Health check, no auth, no CSRF, no rate limit.
	r.Get("/health", healthHandler)

	authLimiter := middleware.NewRateLimiter(authRateLimit, rateLimitWindow)
	apiLimiter := middleware.NewRateLimiter(apiRateLimit, rateLimitWindow)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewCSRF(opts.SecureCookies))

		// Authentication. Tight rate limit on credential endpoints.
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter.Middleware).Post("/login", auth.Login)
			r.Post("/logout", auth.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.With(authLimiter.Middleware).Post("/2fa/verify", auth.TwoFAVerify)

				r.Group(func(r chi.Router) {
					r.Use(middleware.Require2FA)
					r.Get("/me", auth.Me)
					r.Post("/2fa/setup", auth.TwoFASetup)
					r.Post("/2fa/enable", auth.TwoFAEnable)
				})
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(apiLimiter.Middleware)

			// Posts. Reads and view tracking are public; everything else
			// requires a fully authenticated session.
			r.Route("/posts", func(r chi.Router) {
				r.Get("/", posts.List)
				r.Get("/{slug}", posts.Get)
				r.Post("/{id}/view", posts.TrackView)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAuth)
					r.Use(middleware.Require2FA)

					r.Post("/", posts.Create)
					r.Put("/{id}", posts.Update)
					r.Post("/{id}/submit", posts.Submit)
					r.Post("/{id}/approve", posts.Approve)
					r.Post("/{id}/reject", posts.Reject)
					r.Delete("/{id}", posts.Delete)
				})
			})

			// Authors. Listing, creation, and deletion are admin only;
			// Get and Update enforce self-or-admin internally.
			r.Route("/authors", func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Use(middleware.Require2FA)

				r.With(middleware.RequireAdmin).Get("/", authors.List)
				r.With(middleware.RequireAdmin).Post("/", authors.Create)
				r.Get("/{id}", authors.Get)
				r.Put("/{id}", authors.Update)
				r.With(middleware.RequireAdmin).Delete("/{id}", authors.Delete)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
