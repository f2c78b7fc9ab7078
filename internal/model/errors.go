package model

import "errors"

// Common errors used across the application
var (
	// Client state errors
	ErrEntryNotFound = errors.New("client state entry not found")
	ErrCacheMiss     = errors.New("content not cached")

	// Session errors
	ErrStaleSession = errors.New("session changed since the request started")

	// Remote content errors
	ErrContentNotFound = errors.New("content not found")
	ErrUnknownResource = errors.New("unknown admin resource")

	// Profile errors
	ErrProfileNotFound  = errors.New("profile or user not found")
	ErrPhotoURLMissing  = errors.New("upload succeeded but server did not return a URL")
	ErrNotAuthenticated = errors.New("not authenticated")
)
