package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/taskdeck/taskdeck/internal/domain/auth"
)

// DefaultCleanupInterval is how often expired refresh sessions are purged.
const DefaultCleanupInterval = 1 * time.Minute

// SessionStore implements auth.SessionStore with in-memory maps.
// Thread-safe for concurrent access. A background cleanup goroutine
// removes expired sessions periodically.
type SessionStore struct {
	mu          sync.RWMutex
	sessions    map[string]*auth.Session // keyed by ID
	byTokenHash map[string]string        // token hash -> session ID

	stopChan        chan struct{}
	wg              sync.WaitGroup
	cleanupInterval time.Duration
	once            sync.Once // Prevent double-close panic on Stop()
}

// NewSessionStore creates a new in-memory session store with the default
// cleanup interval.
func NewSessionStore() *SessionStore {
	return NewSessionStoreWithConfig(DefaultCleanupInterval)
}

// NewSessionStoreWithConfig creates a new in-memory session store with a
// custom cleanup interval.
func NewSessionStoreWithConfig(cleanupInterval time.Duration) *SessionStore {
	return &SessionStore{
		sessions:        make(map[string]*auth.Session),
		byTokenHash:     make(map[string]string),
		stopChan:        make(chan struct{}),
		cleanupInterval: cleanupInterval,
	}
}

// StartCleanup starts the background cleanup goroutine.
// Call Stop() to stop it gracefully.
func (s *SessionStore) StartCleanup(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.cleanup()
			}
		}
	}()
}

// cleanup removes all expired sessions from the store.
func (s *SessionStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cleaned := 0
	for id, sess := range s.sessions {
		if sess.IsExpired() {
			delete(s.byTokenHash, sess.TokenHash)
			delete(s.sessions, id)
			cleaned++
		}
	}

	if cleaned > 0 {
		slog.Debug("cleaned expired sessions", "count", cleaned)
	}
}

// Stop stops the background cleanup goroutine and waits for it to exit.
// Safe to call multiple times.
func (s *SessionStore) Stop() {
	s.once.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
}

// Create stores a new session.
func (s *SessionStore) Create(ctx context.Context, sess *auth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessCopy := *sess
	s.sessions[sess.ID] = &sessCopy
	s.byTokenHash[sess.TokenHash] = sess.ID
	return nil
}

// GetByTokenHash retrieves a session by the hash of its refresh token.
// Returns auth.ErrSessionNotFound if the session doesn't exist or is
// expired. Expired sessions are NOT deleted here; cleanup handles that.
func (s *SessionStore) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byTokenHash[tokenHash]
	if !ok {
		return nil, auth.ErrSessionNotFound
	}
	sess := s.sessions[id]
	if sess.IsExpired() {
		return nil, auth.ErrSessionNotFound
	}

	sessCopy := *sess
	return &sessCopy, nil
}

// Delete removes a session. Deleting a missing session is a no-op.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		delete(s.byTokenHash, sess.TokenHash)
		delete(s.sessions, id)
	}
	return nil
}

// DeleteByUser removes all sessions belonging to a user.
func (s *SessionStore) DeleteByUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.byTokenHash, sess.TokenHash)
			delete(s.sessions, id)
		}
	}
	return nil
}

// Size returns the number of sessions currently stored.
// Useful for testing cleanup behavior.
func (s *SessionStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Compile-time interface verification.
var _ auth.SessionStore = (*SessionStore)(nil)
