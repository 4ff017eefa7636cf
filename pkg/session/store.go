// Package session issues and tracks opaque session identifiers backed
// by an in-memory store.
//
// Identifiers come from crypto/rand, hex-encoded to a fixed length.
// Expiry is evaluated lazily on Get: an entry whose idle time exceeds
// the store TTL is treated as absent and removed. Cookie wiring (where
// the identifier travels) is the server façade's concern, not the
// store's.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"
)

// IDLength is the length of a session identifier in hex characters.
const IDLength = 32

// maxCreateRetries bounds the reject-and-retry loop on the improbable
// identifier collision before Create fails.
const maxCreateRetries = 5

// ErrIDExhausted is returned by Create when identifier generation
// collided on every retry. It fails that call only; the store stays
// usable.
var ErrIDExhausted = errors.New("session: identifier space exhausted")

// Session is one live session. The ID and CreatedAt fields are
// immutable; Values access goes through the store-guarded accessors.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       *sync.RWMutex // the owning store's lock
	lastSeen time.Time
	values   map[string]string
}

// Value returns the stored value for key.
func (s *Session) Value(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// SetValue stores a value on the session. Two concurrent writers to the
// same key race benignly; the last write wins.
func (s *Session) SetValue(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// DeleteValue removes a key from the session.
func (s *Session) DeleteValue(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Store is an in-memory session store. All operations are atomic with
// respect to each other under one RWMutex.
type Store struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]*Session
	closed   bool
	done     chan struct{}

	// now is swappable for tests.
	now func() time.Time
}

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	cleanupInterval time.Duration
	now             func() time.Time
}

// WithCleanupInterval sets how often the background sweep removes
// expired sessions. Default: 1 minute.
func WithCleanupInterval(d time.Duration) Option {
	return func(c *storeConfig) {
		c.cleanupInterval = d
	}
}

// WithClock overrides the store's time source. Tests use this to
// advance time without sleeping.
func WithClock(now func() time.Time) Option {
	return func(c *storeConfig) {
		c.now = now
	}
}

// NewStore creates a store whose sessions expire after ttl of
// inactivity.
func NewStore(ttl time.Duration, opts ...Option) *Store {
	cfg := &storeConfig{
		cleanupInterval: time.Minute,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Store{
		ttl:      ttl,
		sessions: make(map[string]*Session),
		done:     make(chan struct{}),
		now:      cfg.now,
	}
	go s.cleanupLoop(cfg.cleanupInterval)
	return s
}

// Create issues a new session with a fresh identifier. A generated
// identifier that collides with a live session is rejected and
// regenerated; after maxCreateRetries collisions Create returns
// ErrIDExhausted.
func (s *Store) Create() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 0; attempt < maxCreateRetries; attempt++ {
		id, err := generateID()
		if err != nil {
			return nil, fmt.Errorf("session: generating identifier: %w", err)
		}
		if _, taken := s.sessions[id]; taken {
			continue
		}
		now := s.now()
		sess := &Session{
			ID:        id,
			CreatedAt: now,
			mu:        &s.mu,
			lastSeen:  now,
			values:    make(map[string]string),
		}
		s.sessions[id] = sess
		return sess, nil
	}
	return nil, ErrIDExhausted
}

// Get returns the session for id, or ok=false when the identifier is
// unknown or the session has sat idle past the TTL. Expired entries are
// removed on the way out.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if s.expired(sess) {
		delete(s.sessions, id)
		return nil, false
	}
	return sess, true
}

// Touch resets the idle clock for id. Touching an unknown or expired
// session is a no-op.
func (s *Store) Touch(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || s.expired(sess) {
		return
	}
	sess.lastSeen = s.now()
}

// Destroy removes a session. Destroying an unknown session is a no-op.
func (s *Store) Destroy(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of stored sessions, counting entries that have
// expired but not yet been swept.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the background sweep. The store remains readable.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}

// expired reports idle expiry; callers hold s.mu.
func (s *Store) expired(sess *Session) bool {
	return s.ttl > 0 && s.now().Sub(sess.lastSeen) > s.ttl
}

func (s *Store) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}

func (s *Store) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
		}
	}
}

// generateID returns a fresh identifier: 16 bytes from crypto/rand,
// hex-encoded.
func generateID() (string, error) {
	b := make([]byte, IDLength/2)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
