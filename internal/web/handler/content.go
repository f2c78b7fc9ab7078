package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/communityportal/internal/content"
	"github.com/mcoot/communityportal/internal/model"
	"github.com/mcoot/communityportal/internal/web/templates/pages"
)

// ContentHandler handles the news and event detail pages
type ContentHandler struct {
	content *content.Service
	logger  *slog.Logger
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(svc *content.Service, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{
		content: svc,
		logger:  logger,
	}
}

// News renders GET /news/{id}
func (h *ContentHandler) News(w http.ResponseWriter, r *http.Request) {
	item, err := h.content.NewsItem(r.Context(), pathID(r))
	if err != nil {
		h.renderLoadError(w, r, err)
		return
	}
	render(w, r, http.StatusOK, pages.News(pages.NewsData{PageData: pageData(r, item.Title), Item: item}))
}

// Event renders GET /events/{id}
func (h *ContentHandler) Event(w http.ResponseWriter, r *http.Request) {
	item, err := h.content.Event(r.Context(), pathID(r))
	if err != nil {
		h.renderLoadError(w, r, err)
		return
	}
	render(w, r, http.StatusOK, pages.Event(pages.EventData{PageData: pageData(r, item.Title), Item: item}))
}

func (h *ContentHandler) renderLoadError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, model.ErrContentNotFound) {
		NotFound(w, r)
		return
	}
	h.logger.Warn("failed to load content", slog.String("path", r.URL.Path), slog.Any("error", err))
	renderError(w, r, http.StatusBadGateway, "Unavailable", "This content could not be loaded. Please try again later.")
}

func pathID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}
