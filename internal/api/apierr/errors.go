package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/communityportal/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeNotAuthenticated    = "NOT_AUTHENTICATED"
	CodeForbidden           = "FORBIDDEN"
	CodeLoginFailed         = "LOGIN_FAILED"
	CodeSignupFailed        = "SIGNUP_FAILED"
	CodeStaleSession        = "STALE_SESSION"
	CodeContentNotFound     = "CONTENT_NOT_FOUND"
	CodeProfileNotFound     = "PROFILE_NOT_FOUND"
	CodeUnknownCapability   = "UNKNOWN_CAPABILITY"
	CodeUnknownResource     = "UNKNOWN_RESOURCE"
	CodeRateLimited         = "RATE_LIMITED"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrNotAuthenticated):
		return &httpError{http.StatusUnauthorized, APIError{CodeNotAuthenticated, "Authentication required"}}
	case errors.Is(err, model.ErrStaleSession):
		return &httpError{http.StatusConflict, APIError{CodeStaleSession, "Session changed while the request was in flight"}}
	case errors.Is(err, model.ErrContentNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeContentNotFound, "Content not found"}}
	case errors.Is(err, model.ErrProfileNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeProfileNotFound, "Profile or user not found."}}
	case errors.Is(err, model.ErrUnknownResource):
		return &httpError{http.StatusNotFound, APIError{CodeUnknownResource, "Unknown resource"}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewNotAuthenticatedError creates an unauthenticated error
func NewNotAuthenticatedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeNotAuthenticated, "Authentication required"}}
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError(message string) error {
	return &httpError{http.StatusForbidden, APIError{CodeForbidden, message}}
}

// NewLoginFailedError carries the gateway's failure message
func NewLoginFailedError(message string) error {
	return &httpError{http.StatusUnauthorized, APIError{CodeLoginFailed, message}}
}

// NewSignupFailedError carries the gateway's failure message
func NewSignupFailedError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeSignupFailed, message}}
}

// NewConflictError creates a conflict error with the given code
func NewConflictError(code, message string) error {
	return &httpError{http.StatusConflict, APIError{code, message}}
}

// NewUnknownCapabilityError reports an access check for an unknown capability
func NewUnknownCapabilityError(name string) error {
	return &httpError{http.StatusNotFound, APIError{CodeUnknownCapability, "Unknown capability: " + name}}
}

// NewRateLimitedError creates a too-many-requests error
func NewRateLimitedError() error {
	return &httpError{http.StatusTooManyRequests, APIError{CodeRateLimited, "Too many attempts, try again later"}}
}

// NewUpstreamError reports that the remote API could not be reached
func NewUpstreamError(message string) error {
	return &httpError{http.StatusBadGateway, APIError{CodeUpstreamUnavailable, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}

// Status returns the HTTP status WriteError would use for err
func Status(err error) int {
	return toHTTPError(err).status
}
