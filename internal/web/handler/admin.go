package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/communityportal/internal/apiclient"
	"github.com/mcoot/communityportal/internal/content"
	"github.com/mcoot/communityportal/internal/model"
	"github.com/mcoot/communityportal/internal/web/middleware"
	"github.com/mcoot/communityportal/internal/web/templates/pages"
)

// AdminHandler handles the back office pages
type AdminHandler struct {
	client  *apiclient.Client
	content *content.Service
	logger  *slog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(client *apiclient.Client, svc *content.Service, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		client:  client,
		content: svc,
		logger:  logger,
	}
}

func (h *AdminHandler) admin(r *http.Request) *content.Admin {
	return content.NewAdmin(h.client.WithCredentials(middleware.GetStore(r.Context())), h.content, h.logger)
}

// Dashboard renders GET /admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, pages.Dashboard(pages.DashboardData{
		PageData:  pageData(r, "Dashboard"),
		Dashboard: h.admin(r).Dashboard(r.Context()),
	}))
}

// List renders GET /admin/{resource}
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	resource, err := content.ParseResource(mux.Vars(r)["resource"])
	if err != nil {
		NotFound(w, r)
		return
	}

	data := pages.ListData{PageData: pageData(r, resource.Title()), Resource: resource}
	rows, err := h.admin(r).List(r.Context(), resource)
	if err != nil {
		h.logger.Warn("failed to list collection", slog.String("resource", string(resource)), slog.Any("error", err))
		data.Error = adminMessage(err, "Failed to load "+resource.Title())
	}
	data.Rows = rows
	render(w, r, http.StatusOK, pages.List(data))
}

// Delete handles POST /admin/{resource}/{id}/delete
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	resource, err := content.ParseResource(mux.Vars(r)["resource"])
	if err != nil {
		NotFound(w, r)
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		NotFound(w, r)
		return
	}

	back := "/admin/" + string(resource)
	if err := h.admin(r).Delete(r.Context(), resource, id); err != nil {
		h.logger.Warn("delete failed", slog.String("resource", string(resource)), slog.Int("id", id), slog.Any("error", err))
		middleware.SetFlash(w, "error", adminMessage(err, "Delete failed"))
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	middleware.SetFlash(w, "success", "Deleted successfully")
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// Users renders GET /admin/users
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	data := pages.UsersData{PageData: pageData(r, "Pending users")}
	users, err := h.admin(r).PendingUsers(r.Context())
	if err != nil {
		h.logger.Warn("failed to list pending users", slog.Any("error", err))
		data.Error = adminMessage(err, "Failed to load pending users")
	}
	data.Users = users
	render(w, r, http.StatusOK, pages.Users(data))
}

func adminMessage(err error, fallback string) string {
	switch {
	case apiclient.IsTransport(err):
		return "Network error"
	case apiclient.IsStatus(err, http.StatusUnauthorized), apiclient.IsStatus(err, http.StatusForbidden):
		return "Your session has expired. Please log in again."
	case errors.Is(err, model.ErrContentNotFound):
		return fallback + ": item no longer exists"
	}
	if msg, ok := apiclient.ServerMessage(err); ok && msg != "" {
		return fallback + ": " + msg
	}
	return fallback
}
