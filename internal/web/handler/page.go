package handler

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/mcoot/communityportal/internal/web/middleware"
	"github.com/mcoot/communityportal/internal/web/templates/layout"
	"github.com/mcoot/communityportal/internal/web/templates/pages"
)

// pageData collects what every page shows: the session, the menus and any flash
func pageData(r *http.Request, title string) layout.PageData {
	ctx := r.Context()
	return layout.PageData{
		Title:   title,
		Session: middleware.GetSession(ctx),
		Menus:   middleware.GetMenus(ctx),
		Flash:   middleware.GetFlash(ctx),
	}
}

// render buffers the component so a rendering failure can still become a 500
func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		slog.ErrorContext(r.Context(), "render failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func renderError(w http.ResponseWriter, r *http.Request, status int, title, message string) {
	render(w, r, status, pages.Error(pages.ErrorData{
		PageData: pageData(r, title),
		Message:  message,
	}))
}

// NotFound renders the 404 page
func NotFound(w http.ResponseWriter, r *http.Request) {
	renderError(w, r, http.StatusNotFound, "Page not found", "The page you were looking for does not exist.")
}
