package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/communityportal/internal/dependencies/clock"
	"github.com/mcoot/communityportal/internal/model"
	"github.com/mcoot/communityportal/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	clients    map[model.ClientID]map[string]string
	content    map[string]cachedContent
	contentTTL time.Duration
	clock      clock.Clock
}

type cachedContent struct {
	data      []byte
	expiresAt time.Time
}

// New creates a new in-memory storage instance.
// A zero contentTTL keeps cached content forever.
func New(clk clock.Clock, contentTTL time.Duration) *Storage {
	return &Storage{
		clients:    make(map[model.ClientID]map[string]string),
		content:    make(map[string]cachedContent),
		contentTTL: contentTTL,
		clock:      clk,
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Client state operations

func (s *Storage) SaveEntries(ctx context.Context, clientID model.ClientID, entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.clients[clientID]
	if !ok {
		client = make(map[string]string, len(entries))
		s.clients[clientID] = client
	}
	for k, v := range entries {
		client[k] = v
	}
	return nil
}

func (s *Storage) GetEntry(ctx context.Context, clientID model.ClientID, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.clients[clientID][key]
	if !ok {
		return "", model.ErrEntryNotFound
	}
	return value, nil
}

func (s *Storage) DeleteEntries(ctx context.Context, clientID model.ClientID, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.clients[clientID]
	if !ok {
		return nil
	}
	for _, k := range keys {
		delete(client, k)
	}
	if len(client) == 0 {
		delete(s.clients, clientID)
	}
	return nil
}

// Content cache operations

func (s *Storage) SaveContent(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := cachedContent{data: append([]byte(nil), data...)}
	if s.contentTTL > 0 {
		entry.expiresAt = s.clock.Now().Add(s.contentTTL)
	}
	s.content[key] = entry
	return nil
}

func (s *Storage) GetContent(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.content[key]
	if !ok {
		return nil, model.ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && !s.clock.Now().Before(entry.expiresAt) {
		return nil, model.ErrCacheMiss
	}
	return entry.data, nil
}

func (s *Storage) InvalidateContent(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.content, k)
	}
	return nil
}
