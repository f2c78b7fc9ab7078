package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mcoot/communityportal/internal/api/apierr"
	"github.com/mcoot/communityportal/internal/api/middleware"
	"github.com/mcoot/communityportal/internal/api/response"
	"github.com/mcoot/communityportal/internal/apiclient"
	"github.com/mcoot/communityportal/internal/dependencies/clock"
	"github.com/mcoot/communityportal/internal/model"
	"github.com/mcoot/communityportal/internal/profile"
)

// ProfileHandler serves the signed-in member's profile
type ProfileHandler struct {
	client *apiclient.Client
	clock  clock.Clock
	logger *slog.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(client *apiclient.Client, clk clock.Clock, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		client: client,
		clock:  clk,
		logger: logger,
	}
}

// Get handles GET /api/v1/me/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	store := middleware.MustGetStore(r.Context())
	identity := store.Session().Identity
	if identity == nil {
		WriteError(w, model.ErrNotAuthenticated)
		return
	}

	svc := profile.NewService(h.client.WithCredentials(store), h.clock, h.logger)
	p, err := svc.Load(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, model.ErrProfileNotFound) {
			WriteError(w, err)
			return
		}
		WriteError(w, apierr.NewUpstreamError(profile.Message(err)))
		return
	}
	response.JSON(w, http.StatusOK, p)
}
