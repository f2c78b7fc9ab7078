package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/communityportal/internal/api/apierr"
	"github.com/mcoot/communityportal/internal/api/handler"
	apimw "github.com/mcoot/communityportal/internal/api/middleware"
	"github.com/mcoot/communityportal/internal/apiclient"
	"github.com/mcoot/communityportal/internal/content"
	"github.com/mcoot/communityportal/internal/dependencies/clock"
	"github.com/mcoot/communityportal/internal/middleware"
	"github.com/mcoot/communityportal/internal/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger   *slog.Logger
	Clock    clock.Clock
	Registry *session.Registry
	Client   *apiclient.Client
	Content  *content.Service
	// LoginLimiter throttles login and signup per client IP; nil disables it
	LoginLimiter *middleware.RateLimiter
	CookieSecure bool
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	AddRoutes(r, cfg)
	return r
}

// AddRoutes mounts the JSON API under /api/v1 on an existing router
func AddRoutes(r *mux.Router, cfg RouterConfig) {
	sessionHandler := handler.NewSessionHandler(cfg.Client, cfg.Logger)
	contentHandler := handler.NewContentHandler(cfg.Content, cfg.Logger)
	profileHandler := handler.NewProfileHandler(cfg.Client, cfg.Clock, cfg.Logger)

	rateLimited := middleware.RateLimit(cfg.LoginLimiter, func(w http.ResponseWriter, r *http.Request) {
		apierr.WriteError(w, apierr.NewRateLimitedError())
	}, http.MethodPost)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.RequestID())
	api.Use(apimw.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))

	// Health check endpoint (no client required)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Public content
	api.HandleFunc("/content/news/{id:[0-9]+}", contentHandler.NewsItem).Methods(http.MethodGet)
	api.HandleFunc("/content/events/{id:[0-9]+}", contentHandler.Event).Methods(http.MethodGet)
	api.HandleFunc("/content/{section}", contentHandler.Section).Methods(http.MethodGet)

	// Client-scoped routes
	client := api.NewRoute().Subrouter()
	client.Use(middleware.ClientCookie(cfg.CookieSecure))
	client.Use(apimw.Session(cfg.Registry))

	client.HandleFunc("/session", sessionHandler.Get).Methods(http.MethodGet)
	client.Handle("/session/login", rateLimited(http.HandlerFunc(sessionHandler.Login))).Methods(http.MethodPost)
	client.Handle("/session/signup", rateLimited(http.HandlerFunc(sessionHandler.Signup))).Methods(http.MethodPost)
	client.HandleFunc("/session/logout", sessionHandler.Logout).Methods(http.MethodPost)
	client.HandleFunc("/access/{capability}", sessionHandler.Access).Methods(http.MethodGet)

	// Protected routes
	protected := client.NewRoute().Subrouter()
	protected.Use(apimw.RequireAuth)
	protected.HandleFunc("/me/profile", profileHandler.Get).Methods(http.MethodGet)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
