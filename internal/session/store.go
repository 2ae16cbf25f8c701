package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store is a durable key/value boundary for session state. Implementations
// must tolerate concurrent use.
type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) (string, bool)

	// Set writes a value.
	Set(key, value string) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(key string) error
}

// Storage keys for the three session entries.
const (
	KeyToken    = "session_token"
	KeyPlayerID = "player_id"
	KeyExpiry   = "session_expiry"
)

// fileStore persists keys as a flat JSON map in a single file.
type fileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a Store backed by a JSON file at path. The file and
// its parent directory are created on first write.
func NewFileStore(path string) Store {
	return &fileStore{path: path}
}

func (s *fileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return "", false
	}
	v, ok := m[key]
	return v, ok
}

func (s *fileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		// Unreadable state is replaced rather than preserved.
		m = map[string]string{}
	}
	m[key] = value
	return s.save(m)
}

func (s *fileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return nil
	}
	if _, ok := m[key]; !ok {
		return nil
	}
	delete(m, key)
	return s.save(m)
}

func (s *fileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse store file: %w", err)
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}

func (s *fileStore) save(m map[string]string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	return nil
}

// MemStore is an in-memory Store for tests and ephemeral sessions.
type MemStore struct {
	mu sync.Mutex
	m  map[string]string
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{m: map[string]string{}}
}

func (s *MemStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok
}

func (s *MemStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *MemStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}
