package storage

import (
	"context"

	"github.com/mcoot/communityportal/internal/model"
)

// ClientStore persists per-client key/value entries (the durable client state)
type ClientStore interface {
	// SaveEntries writes all entries for a client in one atomic operation
	SaveEntries(ctx context.Context, clientID model.ClientID, entries map[string]string) error
	// GetEntry returns model.ErrEntryNotFound when the key is absent
	GetEntry(ctx context.Context, clientID model.ClientID, key string) (string, error)
	DeleteEntries(ctx context.Context, clientID model.ClientID, keys ...string) error
}

// ContentCache holds short-lived copies of public content fetched from the remote API
type ContentCache interface {
	SaveContent(ctx context.Context, key string, data []byte) error
	// GetContent returns model.ErrCacheMiss when the key is absent or expired
	GetContent(ctx context.Context, key string) ([]byte, error)
	InvalidateContent(ctx context.Context, keys ...string) error
}

// Storage is implemented by the server-side backends
type Storage interface {
	ClientStore
	ContentCache
}

// Combine serves client state and the content cache from separate backends
func Combine(clients ClientStore, cache ContentCache) Storage {
	return combined{ClientStore: clients, ContentCache: cache}
}

type combined struct {
	ClientStore
	ContentCache
}
