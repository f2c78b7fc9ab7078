package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mcoot/communityportal/internal/guard"
	"github.com/mcoot/communityportal/internal/metrics"
	"github.com/mcoot/communityportal/internal/middleware"
	"github.com/mcoot/communityportal/internal/session"
)

type contextKey string

const storeContextKey contextKey = "session-store"

// Session resolves the browser's session store and adds it to the context.
// It must run after middleware.ClientCookie.
func Session(registry *session.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store := registry.Get(r.Context(), middleware.GetClientID(r.Context()))
			ctx := context.WithValue(r.Context(), storeContextKey, store)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetStore retrieves the session store from the request context
func GetStore(ctx context.Context) *session.Store {
	store, _ := ctx.Value(storeContextKey).(*session.Store)
	return store
}

// GetSession returns a snapshot of the request's session, empty when no
// store is attached
func GetSession(ctx context.Context) session.Session {
	if store := GetStore(ctx); store != nil {
		return store.Session()
	}
	return session.Session{}
}

// Guard admits or redirects according to the route's required capability.
// Redirects use 303 so a guarded POST lands on a GET.
func Guard(required guard.Capability, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := guard.Evaluate(GetSession(r.Context()), required)
			metrics.GuardDecisionsTotal.WithLabelValues(required.String(), decision.String()).Inc()

			if !decision.Admitted() {
				logger.Debug("guard redirect",
					slog.String("path", r.URL.Path),
					slog.String("capability", required.String()),
					slog.String("decision", decision.String()))
				http.Redirect(w, r, decision.Location(), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireLogin redirects visitors without a credential to the login page
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetSession(r.Context()).IsAuthenticated() {
			http.Redirect(w, r, guard.LoginRoute, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
