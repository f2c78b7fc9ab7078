// Package gateway performs the login, signup and logout exchanges with the
// remote API and folds every failure into a Result.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mcoot/communityportal/internal/apiclient"
	"github.com/mcoot/communityportal/internal/claims"
	"github.com/mcoot/communityportal/internal/metrics"
	"github.com/mcoot/communityportal/internal/model"
	"github.com/mcoot/communityportal/internal/session"
)

// Remote endpoints
const (
	LoginPath  = "/api/Auth/login"
	SignupPath = "/api/Auth/signup"
)

// Fallback messages when the server gives no reason
const (
	MsgLoginFailed  = "Login failed"
	MsgSignupFailed = "Signup failed"
	MsgNetworkError = "Network error"
	MsgStaleLogin   = "Your session changed while signing in. Please try again."
)

// Result is the uniform outcome of a gateway exchange
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	// FieldErrors is set when local validation rejected the input
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

// SessionStore is the part of the session store the gateway mutates
type SessionStore interface {
	Generation() uint64
	SetSessionIfCurrent(ctx context.Context, generation uint64, credential model.Credential, identity model.Identity) error
	Clear(ctx context.Context) error
}

// SignupRequest is the registration payload
type SignupRequest struct {
	Name            string `json:"name" validate:"required,min=2"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	IsSuccess bool   `json:"isSuccess"`
	Token     string `json:"token"`
	UserID    int    `json:"userId"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Message   string `json:"message"`
}

type signupResponse struct {
	IsSuccess bool   `json:"isSuccess"`
	Message   string `json:"message"`
}

// Gateway binds the remote API client to one session store
type Gateway struct {
	client   *apiclient.Client
	store    SessionStore
	validate *validator.Validate
	logger   *slog.Logger
}

// New creates a Gateway
func New(client *apiclient.Client, store SessionStore, logger *slog.Logger) *Gateway {
	return &Gateway{
		client:   client,
		store:    store,
		validate: validator.New(),
		logger:   logger.With(slog.String("component", "gateway")),
	}
}

// Login exchanges credentials for a session. The store is only touched on success.
func (g *Gateway) Login(ctx context.Context, identifier, secret string) Result {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid").Inc()
		return Result{Message: "Email and password are required"}
	}

	generation := g.store.Generation()

	var resp loginResponse
	err := g.client.Post(ctx, LoginPath, loginRequest{Email: identifier, Password: secret}, &resp)
	if err != nil {
		return g.failure("login", err, MsgLoginFailed)
	}

	if !resp.IsSuccess || resp.Token == "" {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "rejected").Inc()
		return Result{Message: firstNonEmpty(resp.Message, MsgLoginFailed)}
	}

	credential := model.Credential(resp.Token)
	identity := model.Identity{
		UserID: resp.UserID,
		Name:   resp.Name,
		Role:   resp.Role,
	}
	if hint, ok := claims.Hint(credential); ok {
		identity.Email = hint.DisplayEmail()
	}

	if err := g.store.SetSessionIfCurrent(ctx, generation, credential, identity); err != nil {
		if errors.Is(err, session.ErrStale) {
			metrics.AuthAttemptsTotal.WithLabelValues("login", "stale").Inc()
			g.logger.Warn("dropping stale login response", slog.Int("user_id", identity.UserID))
			return Result{Message: MsgStaleLogin}
		}
		metrics.AuthAttemptsTotal.WithLabelValues("login", "error").Inc()
		g.logger.Error("failed to store session", slog.Any("error", err))
		return Result{Message: MsgLoginFailed}
	}

	metrics.AuthAttemptsTotal.WithLabelValues("login", "success").Inc()
	g.logger.Info("login succeeded", slog.Int("user_id", identity.UserID))
	return Result{Success: true}
}

// Signup registers an account. It never creates a session.
func (g *Gateway) Signup(ctx context.Context, req SignupRequest) Result {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	if fieldErrors := g.validateSignup(req); len(fieldErrors) > 0 {
		metrics.AuthAttemptsTotal.WithLabelValues("signup", "invalid").Inc()
		msg := "Please correct the highlighted fields"
		if fe, ok := fieldErrors["confirmPassword"]; ok && len(fieldErrors) == 1 {
			msg = fe
		}
		return Result{Message: msg, FieldErrors: fieldErrors}
	}

	var resp signupResponse
	if err := g.client.Post(ctx, SignupPath, req, &resp); err != nil {
		return g.failure("signup", err, MsgSignupFailed)
	}

	if !resp.IsSuccess {
		metrics.AuthAttemptsTotal.WithLabelValues("signup", "rejected").Inc()
		return Result{Message: firstNonEmpty(resp.Message, MsgSignupFailed)}
	}

	metrics.AuthAttemptsTotal.WithLabelValues("signup", "success").Inc()
	return Result{Success: true, Message: resp.Message}
}

// Logout clears the session. Navigating away is the caller's job.
func (g *Gateway) Logout(ctx context.Context) error {
	return g.store.Clear(ctx)
}

func (g *Gateway) validateSignup(req SignupRequest) map[string]string {
	err := g.validate.Struct(req)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return map[string]string{"form": err.Error()}
	}

	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		out[jsonField(fe.Field())] = signupFieldMessage(fe)
	}
	return out
}

func signupFieldMessage(fe validator.FieldError) string {
	switch fe.Field() + "." + fe.Tag() {
	case "ConfirmPassword.eqfield":
		return "Passwords do not match"
	case "Email.email":
		return "Enter a valid email address"
	}
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Must be at least " + fe.Param() + " characters"
	default:
		return "Invalid value"
	}
}

// failure maps a client error to a Result: the server's reason when it sent
// one, a status description for bare HTTP errors, else the network fallback
func (g *Gateway) failure(operation string, err error, fallback string) Result {
	if msg, ok := apiclient.ServerMessage(err); ok {
		metrics.AuthAttemptsTotal.WithLabelValues(operation, "rejected").Inc()
		return Result{Message: msg}
	}

	if apiclient.IsTransport(err) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		metrics.AuthAttemptsTotal.WithLabelValues(operation, "network_error").Inc()
		g.logger.Warn(operation+" request failed", slog.Any("error", err))
		return Result{Message: MsgNetworkError}
	}

	metrics.AuthAttemptsTotal.WithLabelValues(operation, "rejected").Inc()
	g.logger.Warn(operation+" rejected", slog.Any("error", err))
	var se *apiclient.StatusError
	if errors.As(err, &se) {
		return Result{Message: se.Error()}
	}
	return Result{Message: fallback}
}

func jsonField(structField string) string {
	if structField == "" {
		return structField
	}
	return strings.ToLower(structField[:1]) + structField[1:]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
