package authsdk

import (
	"context"
	"errors"
	"sync"
)

// ErrStaleWrite reports a generation-guarded write that lost to a newer
// session change (typically a logout racing an in-flight refresh).
var ErrStaleWrite = errors.New("authsdk: stale session write")

// SessionState is a point-in-time snapshot of the stored session. The
// generation increases on every write or clear and anchors last-writer-wins
// ordering.
type SessionState struct {
	Token      string
	User       *User
	Generation uint64
}

// SessionStore owns the persisted (credential, user projection) pair. The
// two are written atomically so they never diverge. Implementations must be
// safe for concurrent use.
//
// Write with a non-nil expect applies only when the current generation still
// equals *expect and fails with ErrStaleWrite otherwise. This is how a
// refresh result that arrives after a logout — or after the caller abandoned
// the request — is prevented from resurrecting a cleared session.
type SessionStore interface {
	State(ctx context.Context) (SessionState, error)
	Write(ctx context.Context, expect *uint64, token string, user *User) error
	Clear(ctx context.Context) error
}

// MemoryStore is the in-process SessionStore. It backs tests and embedders
// that handle persistence themselves; the CLI uses the sqlite-backed store.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	user  *User
	gen   uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) State(ctx context.Context) (SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return SessionState{
		Token:      s.token,
		User:       copyUser(s.user),
		Generation: s.gen,
	}, nil
}

func (s *MemoryStore) Write(ctx context.Context, expect *uint64, token string, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expect != nil && *expect != s.gen {
		return ErrStaleWrite
	}

	s.token = token
	s.user = copyUser(user)
	s.gen++
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.user = nil
	s.gen++
	return nil
}

// copyUser keeps callers from mutating the store's copy through the snapshot.
func copyUser(u *User) *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
