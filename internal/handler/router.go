package handler

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Shivanand-hulikatti/eventhub/internal/auth"
)

// RouterConfig carries everything the router needs besides the handlers.
type RouterConfig struct {
	Logger  *slog.Logger
	Tokens  *auth.Tokens
	Cookies auth.Cookies

	// CSRFKey enables form CSRF protection when non-empty.
	CSRFKey        []byte
	CSRFSecure     bool
	TrustedOrigins []string

	// WebDir is served at / when it exists.
	WebDir string
}

// NewRouter builds the chi router with the global middleware stack.
func NewRouter(cfg RouterConfig, events *EventHandler, accounts *AuthHandler) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(cfg.Logger))      // structured access log
	r.Use(CORS)
	r.Use(Language)
	if len(cfg.CSRFKey) > 0 {
		r.Use(CSRF(cfg.CSRFKey, cfg.CSRFSecure, cfg.TrustedOrigins, accounts.resp))
	}
	r.Use(auth.Authenticate(cfg.Tokens, cfg.Cookies, cfg.Logger))

	// Health
	r.Get("/health", HealthCheck)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", accounts.Signup)
		r.Post("/login", accounts.Login)
		r.Post("/logout", accounts.Logout)
		r.Get("/me", accounts.Me)
		r.Get("/csrf", accounts.CSRFToken)
	})

	r.Route("/events", func(r chi.Router) {
		r.Post("/", events.CreateEvent)
		r.Get("/", events.ListEvents)
		r.Get("/{id}", events.GetEvent)
		r.Get("/{id}/participants", events.ListParticipants)
		r.Get("/{id}/participants/count", events.ParticipantCount)
		r.Get("/{id}/participation", events.ParticipationStatus)
		r.Post("/{id}/participation", events.ToggleParticipation)
	})

	// Static front-end, when one is deployed alongside the API.
	if cfg.WebDir != "" {
		if info, err := os.Stat(cfg.WebDir); err == nil && info.IsDir() {
			r.Handle("/*", http.FileServer(http.Dir(cfg.WebDir)))
		}
	}

	return r
}
