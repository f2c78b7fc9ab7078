package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mcoot/communityportal/internal/content"
	"github.com/mcoot/communityportal/internal/model"
)

const menusContextKey contextKey = "menus"

// GetMenus retrieves the public navigation menus from the request context
func GetMenus(ctx context.Context) []model.Menu {
	menus, _ := ctx.Value(menusContextKey).([]model.Menu)
	return menus
}

// Menus loads the public menus for the page header and adds them to the
// context. A failed load leaves the header without menus.
func Menus(svc *content.Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			menus, err := svc.Menus(r.Context())
			if err != nil {
				logger.Warn("failed to load menus", slog.Any("error", err))
			}
			ctx := context.WithValue(r.Context(), menusContextKey, menus)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
