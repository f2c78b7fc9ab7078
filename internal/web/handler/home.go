package handler

import (
	"net/http"

	"github.com/mcoot/communityportal/internal/content"
	"github.com/mcoot/communityportal/internal/web/templates/pages"
)

// HomeHandler handles the home page
type HomeHandler struct {
	content *content.Service
}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler(svc *content.Service) *HomeHandler {
	return &HomeHandler{content: svc}
}

// Home renders the home page with every public section
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	data := pages.HomeData{
		PageData: pageData(r, "Home"),
		Home:     h.content.Home(r.Context()),
	}
	render(w, r, http.StatusOK, pages.Home(data))
}
