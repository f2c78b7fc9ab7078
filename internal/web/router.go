package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/communityportal/internal/api"
	"github.com/mcoot/communityportal/internal/apiclient"
	"github.com/mcoot/communityportal/internal/content"
	"github.com/mcoot/communityportal/internal/dependencies/clock"
	"github.com/mcoot/communityportal/internal/guard"
	"github.com/mcoot/communityportal/internal/metrics"
	"github.com/mcoot/communityportal/internal/middleware"
	"github.com/mcoot/communityportal/internal/session"
	"github.com/mcoot/communityportal/internal/web/handler"
	webmw "github.com/mcoot/communityportal/internal/web/middleware"
	"github.com/mcoot/communityportal/internal/web/sse"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger   *slog.Logger
	Clock    clock.Clock
	Registry *session.Registry
	Client   *apiclient.Client
	Content  *content.Service

	HubManager  *sse.HubManager
	Broadcaster *sse.Broadcaster

	// MountTimeout bounds how long section navigation waits for the home view
	MountTimeout time.Duration
	// LoginLimiter throttles login and signup per client IP; nil disables it
	LoginLimiter *middleware.RateLimiter
	CookieSecure bool
	// Metrics exposes /metrics when set
	Metrics   bool
	StaticDir string // Path to static files directory
}

// NewRouter creates the portal's router: the HTML pages, the session event
// stream and the JSON API under /api/v1
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	hubManager := cfg.HubManager
	if hubManager == nil {
		hubManager = sse.NewHubManager(cfg.Logger)
	}
	broadcaster := cfg.Broadcaster
	if broadcaster == nil {
		broadcaster = sse.NewBroadcaster(hubManager, cfg.Logger)
		cfg.Registry.OnOpen(broadcaster.Attach)
	}

	// JSON API
	api.AddRoutes(r, api.RouterConfig{
		Logger:       cfg.Logger,
		Clock:        cfg.Clock,
		Registry:     cfg.Registry,
		Client:       cfg.Client,
		Content:      cfg.Content,
		LoginLimiter: cfg.LoginLimiter,
		CookieSecure: cfg.CookieSecure,
	})

	if cfg.Metrics {
		r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	}

	if cfg.StaticDir != "" {
		staticHandler := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir)))
		r.PathPrefix("/static/").Handler(staticHandler)
	}

	// Every page shares the same chain: identify the browser, load its session,
	// then the flash and the menus shown in the header
	chain := []mux.MiddlewareFunc{
		middleware.RequestID(),
		webmw.Recovery(cfg.Logger),
		webmw.Logging(cfg.Logger),
		middleware.ClientCookie(cfg.CookieSecure),
		webmw.Session(cfg.Registry),
		webmw.Flash(),
		webmw.Menus(cfg.Content, cfg.Logger),
	}

	homeHandler := handler.NewHomeHandler(cfg.Content)
	navigationHandler := handler.NewNavigationHandler(cfg.Content, cfg.MountTimeout, cfg.Logger)
	contentHandler := handler.NewContentHandler(cfg.Content, cfg.Logger)
	authHandler := handler.NewAuthHandler(cfg.Client, cfg.Logger)
	profileHandler := handler.NewProfileHandler(cfg.Client, cfg.Clock, broadcaster, cfg.Logger)
	adminHandler := handler.NewAdminHandler(cfg.Client, cfg.Content, cfg.Logger)
	eventsHandler := handler.NewEventsHandler(hubManager, broadcaster)

	site := r.NewRoute().Subrouter()
	site.Use(chain...)

	// Session stream and auth actions are open to everyone
	site.HandleFunc("/events", eventsHandler.Stream).Methods(http.MethodGet)
	site.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)

	rateLimited := middleware.RateLimit(cfg.LoginLimiter, func(w http.ResponseWriter, r *http.Request) {
		renderTooManyRequests(w)
	}, http.MethodPost)
	site.HandleFunc("/login", authHandler.LoginPage).Methods(http.MethodGet)
	site.Handle("/login", rateLimited(http.HandlerFunc(authHandler.Login))).Methods(http.MethodPost)
	site.HandleFunc("/signup", authHandler.SignupPage).Methods(http.MethodGet)
	site.Handle("/signup", rateLimited(http.HandlerFunc(authHandler.Signup))).Methods(http.MethodPost)

	// Member site: anonymous visitors and members, admins go to the dashboard
	public := site.NewRoute().Subrouter()
	public.Use(webmw.Guard(guard.NonAdmin, cfg.Logger))
	public.HandleFunc("/", homeHandler.Home).Methods(http.MethodGet)
	public.HandleFunc("/go/{section}", navigationHandler.Go).Methods(http.MethodGet)
	public.HandleFunc("/news/{id:[0-9]+}", contentHandler.News).Methods(http.MethodGet)
	public.HandleFunc("/events/{id:[0-9]+}", contentHandler.Event).Methods(http.MethodGet)

	members := public.NewRoute().Subrouter()
	members.Use(webmw.RequireLogin)
	members.HandleFunc(handler.ProfileRoute, profileHandler.Edit).Methods(http.MethodGet)
	members.HandleFunc(handler.ProfileRoute, profileHandler.Save).Methods(http.MethodPost)
	members.HandleFunc(handler.ProfileRoute+"/photo/delete", profileHandler.DeletePhoto).Methods(http.MethodPost)

	// Back office
	admin := site.PathPrefix("/admin").Subrouter()
	admin.Use(webmw.Guard(guard.AdminOnly, cfg.Logger))
	admin.HandleFunc("/dashboard", adminHandler.Dashboard).Methods(http.MethodGet)
	admin.HandleFunc("/users", adminHandler.Users).Methods(http.MethodGet)
	admin.HandleFunc("/{resource}", adminHandler.List).Methods(http.MethodGet)
	admin.HandleFunc("/{resource}/{id:[0-9]+}/delete", adminHandler.Delete).Methods(http.MethodPost)

	var notFound http.Handler = http.HandlerFunc(handler.NotFound)
	for i := len(chain) - 1; i >= 0; i-- {
		notFound = chain[i](notFound)
	}
	r.NotFoundHandler = notFound

	return r
}

func renderTooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Too many attempts</title></head>
<body>
<h1>Too many attempts</h1>
<p>Please wait a minute before trying again.</p>
<p><a href="/login">Back to login</a></p>
</body>
</html>`))
}
