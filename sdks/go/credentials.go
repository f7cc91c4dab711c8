package taskdeck

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CredentialStore holds the client's current token pair. Implementations
// must be safe for concurrent use: the request pipeline reads tokens on
// every call and the refresh coordinator rotates them.
type CredentialStore interface {
	// Tokens returns the current pair. Absent tokens are empty strings,
	// not an error.
	Tokens() (TokenPair, error)
	// Set replaces both tokens atomically.
	Set(pair TokenPair) error
	// Clear removes both tokens. Called on logout and on unrecoverable
	// refresh failure.
	Clear() error
}

// MemoryCredentialStore keeps the token pair in process memory.
// This is the default store; tokens are lost when the process exits.
type MemoryCredentialStore struct {
	mu   sync.RWMutex
	pair TokenPair
}

// NewMemoryCredentialStore creates an empty in-memory store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

func (s *MemoryCredentialStore) Tokens() (TokenPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair, nil
}

func (s *MemoryCredentialStore) Set(pair TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
	return nil
}

func (s *MemoryCredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = TokenPair{}
	return nil
}

// FileCredentialStore persists the token pair as JSON in a file with
// 0600 permissions, so a session survives process restarts. Suitable
// for CLI tools.
type FileCredentialStore struct {
	mu   sync.Mutex
	path string
}

// NewFileCredentialStore creates a store backed by the given file.
// The parent directory is created on first write.
func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{path: path}
}

func (s *FileCredentialStore) Tokens() (TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TokenPair{}, nil
		}
		return TokenPair{}, fmt.Errorf("reading credentials: %w", err)
	}

	var pair TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return TokenPair{}, fmt.Errorf("parsing credentials: %w", err)
	}
	return pair, nil
}

func (s *FileCredentialStore) Set(pair TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	// Write-then-rename so a crash never leaves a half-written file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	return nil
}

func (s *FileCredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clearing credentials: %w", err)
	}
	return nil
}

var (
	_ CredentialStore = (*MemoryCredentialStore)(nil)
	_ CredentialStore = (*FileCredentialStore)(nil)
)
