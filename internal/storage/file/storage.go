package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mcoot/communityportal/internal/model"
	"github.com/mcoot/communityportal/internal/storage"
)

// Storage keeps each client's entries in a JSON file under a state directory.
// It suits a single server instance that must keep sessions across restarts
// without Redis.
type Storage struct {
	mu  sync.Mutex
	dir string
}

// New creates a file storage rooted at dir. The directory is created on first write.
func New(dir string) *Storage {
	return &Storage{dir: dir}
}

// Ensure Storage implements the client store interface
var _ storage.ClientStore = (*Storage)(nil)

// Dir returns the state directory
func (s *Storage) Dir() string {
	return s.dir
}

func (s *Storage) SaveEntries(ctx context.Context, clientID model.ClientID, entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read(clientID)
	if err != nil {
		return err
	}
	for k, v := range entries {
		current[k] = v
	}
	return s.write(clientID, current)
}

func (s *Storage) GetEntry(ctx context.Context, clientID model.ClientID, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read(clientID)
	if err != nil {
		return "", err
	}
	value, ok := current[key]
	if !ok {
		return "", model.ErrEntryNotFound
	}
	return value, nil
}

func (s *Storage) DeleteEntries(ctx context.Context, clientID model.ClientID, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read(clientID)
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(current, k)
	}
	if len(current) == 0 {
		if err := os.Remove(s.path(clientID)); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return s.write(clientID, current)
}

func (s *Storage) path(clientID model.ClientID) string {
	name := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(string(clientID))
	return filepath.Join(s.dir, name+".json")
}

// read returns an empty map for a missing file. An unreadable JSON document is
// treated the same way so a corrupt file never blocks a fresh login.
func (s *Storage) read(clientID model.ClientID) (map[string]string, error) {
	data, err := os.ReadFile(s.path(clientID))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}

	entries := map[string]string{}
	if err := json.Unmarshal(data, &entries); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	return entries, nil
}

// write replaces the file via rename so a crash never leaves half an entry set
func (s *Storage) write(clientID model.ClientID, entries map[string]string) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return err
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".state-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write client state: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, s.path(clientID))
}
