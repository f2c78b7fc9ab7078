package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/communityportal/internal/dependencies/clock"
	"github.com/mcoot/communityportal/internal/model"
	"github.com/mcoot/communityportal/internal/storage"
)

// Registry hands out one Store per client, initialized from durable storage
// the first time the client is seen by this process.
type Registry struct {
	storage    storage.ClientStore
	clock      clock.Clock
	logger     *slog.Logger
	revalidate bool

	mu      sync.Mutex
	entries map[model.ClientID]*registryEntry
	onOpen  []func(*Store)
}

// registryEntry is reserved under the registry lock and initialized outside
// it. ready is closed once Initialize returned; err is set before that.
type registryEntry struct {
	store    *Store
	ready    chan struct{}
	err      error
	lastUsed time.Time
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithRevalidation makes every Get re-read durable storage for cached stores.
// Use it when several processes share the storage backend, so a logout made
// through one process is seen by the others on their next request.
func WithRevalidation() RegistryOption {
	return func(r *Registry) { r.revalidate = true }
}

// NewRegistry creates a Registry over a shared client store
func NewRegistry(store storage.ClientStore, clk clock.Clock, logger *slog.Logger, opts ...RegistryOption) *Registry {
	r := &Registry{
		storage: store,
		clock:   clk,
		logger:  logger.With(slog.String("component", "session")),
		entries: make(map[model.ClientID]*registryEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnOpen registers a hook run for every Store the registry creates,
// before the store is initialized
func (r *Registry) OnOpen(fn func(*Store)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onOpen = append(r.onOpen, fn)
}

// Get returns the Store for a client, loading it on first use. Concurrent
// first requests for one client share a single load; other clients never
// wait on it. A store whose load failed serves the current request but is
// not kept, so the next request retries.
func (r *Registry) Get(ctx context.Context, clientID model.ClientID) *Store {
	now := r.clock.Now()

	r.mu.Lock()
	if entry, ok := r.entries[clientID]; ok {
		entry.lastUsed = now
		r.mu.Unlock()
		return r.await(ctx, entry)
	}
	entry := &registryEntry{
		store:    New(clientID, r.storage, r.logger),
		ready:    make(chan struct{}),
		lastUsed: now,
	}
	r.entries[clientID] = entry
	hooks := append(([]func(*Store))(nil), r.onOpen...)
	r.mu.Unlock()

	for _, fn := range hooks {
		fn(entry.store)
	}
	_, entry.err = entry.store.Initialize(ctx)
	close(entry.ready)

	if entry.err != nil {
		r.logger.Warn("session load failed, not caching",
			slog.String("client_id", string(clientID)),
			slog.Any("error", entry.err),
		)
		r.mu.Lock()
		if r.entries[clientID] == entry {
			delete(r.entries, clientID)
		}
		r.mu.Unlock()
	}
	return entry.store
}

// await waits for another request's load of the same client
func (r *Registry) await(ctx context.Context, entry *registryEntry) *Store {
	select {
	case <-entry.ready:
	case <-ctx.Done():
		return entry.store
	}
	if entry.err == nil && r.revalidate {
		if _, err := entry.store.Refresh(ctx); err != nil {
			r.logger.Warn("session revalidation failed",
				slog.String("client_id", string(entry.store.ClientID())),
				slog.Any("error", err),
			)
		}
	}
	return entry.store
}

// Forget drops the in-memory Store for a client. Durable state is untouched,
// so the next Get rehydrates it.
func (r *Registry) Forget(clientID model.ClientID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, clientID)
}

// EvictIdle forgets stores unused for longer than maxIdle and returns how many
// were evicted
func (r *Registry) EvictIdle(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.clock.Now().Add(-maxIdle)
	evicted := 0
	for id, entry := range r.entries {
		if entry.lastUsed.Before(cutoff) {
			delete(r.entries, id)
			evicted++
		}
	}
	if evicted > 0 {
		r.logger.Info("idle sessions evicted", slog.Int("evicted", evicted))
	}
	return evicted
}

// Len returns the number of stores held in memory
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
