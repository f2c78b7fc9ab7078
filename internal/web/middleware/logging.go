package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/mcoot/communityportal/internal/middleware"
)

// Logging creates logging middleware for the web interface.
// Static assets are served without a log line.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		logged := middleware.Logging(logger)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/static/") {
				next.ServeHTTP(w, r)
				return
			}
			logged.ServeHTTP(w, r)
		})
	}
}
