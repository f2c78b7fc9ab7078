package handler

import (
	"net/http"

	"github.com/mcoot/communityportal/internal/web/middleware"
	"github.com/mcoot/communityportal/internal/web/sse"
)

// EventsHandler streams session changes to every open tab of a browser
type EventsHandler struct {
	hubManager  *sse.HubManager
	broadcaster *sse.Broadcaster
}

// NewEventsHandler creates a new EventsHandler
func NewEventsHandler(hubManager *sse.HubManager, broadcaster *sse.Broadcaster) *EventsHandler {
	return &EventsHandler{
		hubManager:  hubManager,
		broadcaster: broadcaster,
	}
}

// Stream handles GET /events. The current session status is sent first so a
// tab that missed a change while disconnected catches up.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	store := middleware.GetStore(r.Context())
	hub := h.hubManager.GetOrCreateHub(store.ClientID())
	sse.ServeSSE(w, r, hub, h.broadcaster.Initial(r.Context(), store))
}
