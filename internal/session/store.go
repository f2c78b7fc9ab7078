// Package session holds the client state: the credential issued by the remote
// API and the identity that came with it.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/communityportal/internal/model"
	"github.com/mcoot/communityportal/internal/storage"
)

// Durable entry keys
const (
	CredentialKey = "token"
	IdentityKey   = "user"
)

// ErrStale is returned by SetSessionIfCurrent when another mutation won the race
var ErrStale = model.ErrStaleSession

// Session is an immutable snapshot of the client state
type Session struct {
	Credential model.Credential
	Identity   *model.Identity
}

// IsAuthenticated reports whether a credential is present.
// The identity plays no part: a credential without identity is still authenticated.
func (s Session) IsAuthenticated() bool {
	return s.Credential != ""
}

// Observer is notified with the new snapshot after every mutation
type Observer func(Session)

// Store is the single source of truth for one client's session
type Store struct {
	clientID model.ClientID
	storage  storage.ClientStore
	logger   *slog.Logger

	mu         sync.RWMutex
	current    Session
	generation uint64

	observersMu  sync.Mutex
	observers    map[int]Observer
	nextObserver int
}

// New creates an empty Store for a client. Call Initialize to load durable state.
func New(clientID model.ClientID, store storage.ClientStore, logger *slog.Logger) *Store {
	return &Store{
		clientID:  clientID,
		storage:   store,
		logger:    logger.With(slog.String("client_id", string(clientID))),
		observers: make(map[int]Observer),
	}
}

// ClientID returns the client this store belongs to
func (s *Store) ClientID() model.ClientID {
	return s.clientID
}

// loadTimeout bounds a durable read. Loads do not follow the request's
// cancellation: an aborted request must not leave a half-read session behind.
const loadTimeout = 5 * time.Second

// Initialize loads the credential and identity from durable storage.
// Missing or corrupt entries produce an empty session and no error. A failed
// storage read also leaves the session empty but is reported, so callers can
// avoid treating the client as signed out for good.
func (s *Store) Initialize(ctx context.Context) (Session, error) {
	loaded, err := s.load(ctx)

	s.mu.Lock()
	s.current = loaded
	s.generation++
	s.mu.Unlock()

	s.notify(loaded)
	return loaded, err
}

// Refresh re-reads durable storage and adopts its state when another process
// changed it. A local mutation made during the read wins. On a read error the
// current snapshot is kept.
func (s *Store) Refresh(ctx context.Context) (Session, error) {
	generation := s.Generation()

	loaded, err := s.load(ctx)
	if err != nil {
		return s.Session(), err
	}

	s.mu.Lock()
	if s.generation != generation || sameSession(s.current, loaded) {
		current := s.current
		s.mu.Unlock()
		return current, nil
	}
	s.current = loaded
	s.generation++
	s.mu.Unlock()

	s.logger.Info("session changed in durable storage", slog.Bool("authenticated", loaded.IsAuthenticated()))
	s.notify(loaded)
	return loaded, nil
}

func (s *Store) load(ctx context.Context) (Session, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
	defer cancel()

	token, err := s.storage.GetEntry(ctx, s.clientID, CredentialKey)
	if err != nil {
		if errors.Is(err, model.ErrEntryNotFound) {
			return Session{}, nil
		}
		s.logger.Warn("failed to read credential", slog.Any("error", err))
		return Session{}, fmt.Errorf("read credential: %w", err)
	}
	if token == "" {
		return Session{}, nil
	}

	loaded := Session{Credential: model.Credential(token)}

	raw, err := s.storage.GetEntry(ctx, s.clientID, IdentityKey)
	if err != nil {
		if errors.Is(err, model.ErrEntryNotFound) {
			return loaded, nil
		}
		s.logger.Warn("failed to read identity", slog.Any("error", err))
		return Session{}, fmt.Errorf("read identity: %w", err)
	}

	var identity model.Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		s.logger.Warn("discarding corrupt identity entry", slog.Any("error", err))
		return loaded, nil
	}
	loaded.Identity = &identity
	return loaded, nil
}

func sameSession(a, b Session) bool {
	if a.Credential != b.Credential {
		return false
	}
	if a.Identity == nil || b.Identity == nil {
		return a.Identity == b.Identity
	}
	return *a.Identity == *b.Identity
}

// Session returns the current snapshot
func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Credential returns the current credential, empty when signed out
func (s *Store) Credential() model.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Credential
}

// IsAuthenticated reports whether the current session carries a credential
func (s *Store) IsAuthenticated() bool {
	return s.Session().IsAuthenticated()
}

// Generation increases with every mutation. Capture it before a slow call and
// pass it to SetSessionIfCurrent to drop responses that arrive late.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// SetSession replaces credential and identity in memory and in durable storage.
// Memory only changes once the durable write succeeded.
func (s *Store) SetSession(ctx context.Context, credential model.Credential, identity model.Identity) error {
	return s.set(ctx, nil, credential, identity)
}

// SetSessionIfCurrent behaves like SetSession unless the store was mutated since
// generation was observed, in which case it returns ErrStale and changes nothing.
func (s *Store) SetSessionIfCurrent(ctx context.Context, generation uint64, credential model.Credential, identity model.Identity) error {
	return s.set(ctx, &generation, credential, identity)
}

func (s *Store) set(ctx context.Context, expected *uint64, credential model.Credential, identity model.Identity) error {
	if credential == "" {
		return errors.New("session: credential must not be empty")
	}

	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}

	s.mu.Lock()
	if expected != nil && *expected != s.generation {
		s.mu.Unlock()
		return ErrStale
	}

	err = s.storage.SaveEntries(ctx, s.clientID, map[string]string{
		CredentialKey: string(credential),
		IdentityKey:   string(raw),
	})
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to persist session: %w", err)
	}

	id := identity
	s.current = Session{Credential: credential, Identity: &id}
	s.generation++
	snapshot := s.current
	s.mu.Unlock()

	s.logger.Info("session set", slog.Int("user_id", identity.UserID))
	s.notify(snapshot)
	return nil
}

// Clear removes credential and identity from memory and durable storage
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	if err := s.storage.DeleteEntries(ctx, s.clientID, CredentialKey, IdentityKey); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.current = Session{}
	s.generation++
	s.mu.Unlock()

	s.logger.Info("session cleared")
	s.notify(Session{})
	return nil
}

// Subscribe registers an observer and returns a function that removes it
func (s *Store) Subscribe(fn Observer) func() {
	s.observersMu.Lock()
	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = fn
	s.observersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.observersMu.Lock()
			delete(s.observers, id)
			s.observersMu.Unlock()
		})
	}
}

// SubscriberCount returns the number of registered observers
func (s *Store) SubscriberCount() int {
	s.observersMu.Lock()
	defer s.observersMu.Unlock()
	return len(s.observers)
}

// notify runs observers outside the state lock so they may read the store
func (s *Store) notify(snapshot Session) {
	s.observersMu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.observersMu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
}
