package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/communityportal/internal/api/apierr"
	"github.com/mcoot/communityportal/internal/api/middleware"
	"github.com/mcoot/communityportal/internal/api/request"
	"github.com/mcoot/communityportal/internal/api/response"
	"github.com/mcoot/communityportal/internal/apiclient"
	"github.com/mcoot/communityportal/internal/gateway"
	"github.com/mcoot/communityportal/internal/guard"
	"github.com/mcoot/communityportal/internal/metrics"
)

// SessionHandler exposes the client state and the auth exchanges
type SessionHandler struct {
	client *apiclient.Client
	logger *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(client *apiclient.Client, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		client: client,
		logger: logger,
	}
}

// Get handles GET /api/v1/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	store := middleware.MustGetStore(r.Context())
	response.JSON(w, http.StatusOK, response.SessionFromSnapshot(store.Session()))
}

// Login handles POST /api/v1/session/login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	store := middleware.MustGetStore(r.Context())
	result := gateway.New(h.client, store, h.logger).Login(r.Context(), req.Email, req.Password)
	if !result.Success {
		switch result.Message {
		case gateway.MsgNetworkError:
			WriteError(w, apierr.NewUpstreamError(result.Message))
		case gateway.MsgStaleLogin:
			WriteError(w, apierr.NewConflictError(apierr.CodeStaleSession, result.Message))
		default:
			WriteError(w, apierr.NewLoginFailedError(result.Message))
		}
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromSnapshot(store.Session()))
}

// Signup handles POST /api/v1/session/signup. The body mirrors the gateway result.
func (h *SessionHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req request.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	store := middleware.MustGetStore(r.Context())
	result := gateway.New(h.client, store, h.logger).Signup(r.Context(), gateway.SignupRequest{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})

	status := http.StatusOK
	switch {
	case result.Success:
	case result.Message == gateway.MsgNetworkError:
		status = http.StatusBadGateway
	default:
		status = http.StatusBadRequest
	}
	response.JSON(w, status, result)
}

// Logout handles POST /api/v1/session/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	store := middleware.MustGetStore(r.Context())
	if err := gateway.New(h.client, store, h.logger).Logout(r.Context()); err != nil {
		h.logger.Error("logout failed", slog.Any("error", err))
		WriteError(w, apierr.NewInternalError())
		return
	}
	response.NoContent(w)
}

// Access handles GET /api/v1/access/{capability}
func (h *SessionHandler) Access(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["capability"]
	capability, ok := guard.ParseCapability(name)
	if !ok {
		WriteError(w, apierr.NewUnknownCapabilityError(name))
		return
	}

	store := middleware.MustGetStore(r.Context())
	decision := guard.Evaluate(store.Session(), capability)
	metrics.GuardDecisionsTotal.WithLabelValues(capability.String(), decision.String()).Inc()

	response.JSON(w, http.StatusOK, response.AccessFromDecision(capability, decision))
}
