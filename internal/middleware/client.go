package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/communityportal/internal/model"
)

// Client identification
const (
	ClientCookieName = "portal_client"
	ClientIDHeader   = "X-Client-ID"
)

const clientCookieMaxAge = 365 * 24 * time.Hour

type clientIDKey struct{}

// ClientCookie identifies the browser. A valid X-Client-ID header wins over
// the cookie; when neither is present a new id is minted and set as a cookie.
func ClientCookie(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := requestClientID(r)
			if !ok {
				id = model.ClientID(uuid.NewString())
				http.SetCookie(w, &http.Cookie{
					Name:     ClientCookieName,
					Value:    string(id),
					Path:     "/",
					MaxAge:   int(clientCookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := WithClientID(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestClientID(r *http.Request) (model.ClientID, bool) {
	if v := r.Header.Get(ClientIDHeader); validClientID(v) {
		return model.ClientID(v), true
	}
	if c, err := r.Cookie(ClientCookieName); err == nil && validClientID(c.Value) {
		return model.ClientID(c.Value), true
	}
	return "", false
}

// Only ids we could have minted are accepted, so callers cannot pick
// arbitrary storage keys
func validClientID(v string) bool {
	if v == "" {
		return false
	}
	_, err := uuid.Parse(v)
	return err == nil
}

// WithClientID stores the client id in a context
func WithClientID(ctx context.Context, id model.ClientID) context.Context {
	return context.WithValue(ctx, clientIDKey{}, id)
}

// GetClientID returns the client id set by ClientCookie
func GetClientID(ctx context.Context) model.ClientID {
	id, _ := ctx.Value(clientIDKey{}).(model.ClientID)
	return id
}
