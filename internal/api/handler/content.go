package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/communityportal/internal/api/apierr"
	"github.com/mcoot/communityportal/internal/api/response"
	"github.com/mcoot/communityportal/internal/apiclient"
	"github.com/mcoot/communityportal/internal/content"
	"github.com/mcoot/communityportal/internal/model"
)

// ContentHandler serves the public content read through the cache
type ContentHandler struct {
	content *content.Service
	logger  *slog.Logger
}

// NewContentHandler creates a new content handler
func NewContentHandler(svc *content.Service, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{
		content: svc,
		logger:  logger,
	}
}

// Section handles GET /api/v1/content/{section}
func (h *ContentHandler) Section(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var data any
	var err error
	switch mux.Vars(r)["section"] {
	case content.KeyCarousel:
		data, err = h.content.Carousel(ctx)
	case content.KeyInformation:
		data, err = h.content.Information(ctx)
	case content.KeyNews:
		data, err = h.content.News(ctx)
	case content.KeyEvents:
		data, err = h.content.Events(ctx)
	case content.KeyDownloads:
		data, err = h.content.Downloads(ctx)
	case content.KeyCommittee:
		data, err = h.content.Committee(ctx)
	case content.KeyMenus:
		data, err = h.content.Menus(ctx)
	default:
		WriteError(w, model.ErrContentNotFound)
		return
	}

	if err != nil {
		h.writeContentError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, data)
}

// NewsItem handles GET /api/v1/content/news/{id}
func (h *ContentHandler) NewsItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.content.NewsItem(r.Context(), pathID(r))
	if err != nil {
		h.writeContentError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, item)
}

// Event handles GET /api/v1/content/events/{id}
func (h *ContentHandler) Event(w http.ResponseWriter, r *http.Request) {
	item, err := h.content.Event(r.Context(), pathID(r))
	if err != nil {
		h.writeContentError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, item)
}

func (h *ContentHandler) writeContentError(w http.ResponseWriter, err error) {
	if errors.Is(err, model.ErrContentNotFound) {
		WriteError(w, err)
		return
	}
	h.logger.Warn("content request failed", slog.Any("error", err))
	if apiclient.IsTransport(err) {
		WriteError(w, apierr.NewUpstreamError("Network error"))
		return
	}
	WriteError(w, apierr.NewUpstreamError("Failed to load content"))
}

func pathID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}
