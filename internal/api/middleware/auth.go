package middleware

import (
	"context"
	"net/http"

	"github.com/mcoot/communityportal/internal/api/apierr"
	"github.com/mcoot/communityportal/internal/middleware"
	"github.com/mcoot/communityportal/internal/session"
)

type contextKey string

const storeContextKey contextKey = "session-store"

// Session resolves the client's session store and adds it to the context.
// It must run after middleware.ClientCookie.
func Session(registry *session.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := middleware.GetClientID(r.Context())
			if clientID == "" {
				apierr.WriteError(w, apierr.NewInvalidRequestError("client id required"))
				return
			}

			store := registry.Get(r.Context(), clientID)
			ctx := context.WithValue(r.Context(), storeContextKey, store)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests whose session carries no credential
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store := GetStore(r.Context())
		if store == nil || !store.IsAuthenticated() {
			apierr.WriteError(w, apierr.NewNotAuthenticatedError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetStore returns the session store from the request context
func GetStore(ctx context.Context) *session.Store {
	store, _ := ctx.Value(storeContextKey).(*session.Store)
	return store
}

// MustGetStore returns the session store or panics
func MustGetStore(ctx context.Context) *session.Store {
	store := GetStore(ctx)
	if store == nil {
		panic("no session store in context - session middleware not applied?")
	}
	return store
}
