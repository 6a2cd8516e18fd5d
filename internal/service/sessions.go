package service

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrSessionActive  = errors.New("a batch session is already active")
	ErrNoSession      = errors.New("no active batch session")
	ErrSessionExpired = errors.New("batch session expired")
)

// BatchSession collects files during an admin's batch upload, between
// /batch_upload and /done_batch.
type BatchSession struct {
	AdminID   int64
	Files     []FileDescriptor
	StartedAt time.Time
}

// Sessions stores in-flight batch-upload sessions keyed by admin id. Expiry
// is checked on every access (lazy) and additionally by a background sweep,
// so an expired session never accepts another file.
type Sessions struct {
	mu      sync.Mutex
	ttl     time.Duration
	byAdmin map[int64]*BatchSession
}

// NewSessions creates the session store. ttl bounds how long a session may
// stay open.
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		ttl:     ttl,
		byAdmin: make(map[int64]*BatchSession),
	}
}

// Start opens a new session for the admin. Fails when one is already open
// and not yet expired.
func (s *Sessions) Start(adminID int64) (*BatchSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.byAdmin[adminID]; ok && !s.expired(sess) {
		return nil, ErrSessionActive
	}

	sess := &BatchSession{AdminID: adminID, StartedAt: time.Now()}
	s.byAdmin[adminID] = sess
	return sess, nil
}

// Append adds a file to the admin's open session and returns the new count.
func (s *Sessions) Append(adminID int64, d FileDescriptor) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byAdmin[adminID]
	if !ok {
		return 0, ErrNoSession
	}
	if s.expired(sess) {
		delete(s.byAdmin, adminID)
		return 0, ErrSessionExpired
	}

	sess.Files = append(sess.Files, d)
	return len(sess.Files), nil
}

// Active reports whether the admin has an open, unexpired session.
func (s *Sessions) Active(adminID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byAdmin[adminID]
	if !ok {
		return false
	}
	if s.expired(sess) {
		delete(s.byAdmin, adminID)
		return false
	}
	return true
}

// Count returns how many files the admin's open session holds. Zero when no
// session is open.
func (s *Sessions) Count(adminID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byAdmin[adminID]
	if !ok || s.expired(sess) {
		return 0
	}
	return len(sess.Files)
}

// End closes and returns the admin's session. Returns ErrNoSession when
// nothing is open, ErrSessionExpired when the open session timed out.
func (s *Sessions) End(adminID int64) (*BatchSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byAdmin[adminID]
	if !ok {
		return nil, ErrNoSession
	}
	delete(s.byAdmin, adminID)
	if s.expired(sess) {
		return nil, ErrSessionExpired
	}
	return sess, nil
}

// Cancel discards the admin's session if one is open.
func (s *Sessions) Cancel(adminID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.byAdmin[adminID]
	delete(s.byAdmin, adminID)
	return ok
}

// Sweep drops expired sessions once a minute until ctx is cancelled. Lazy
// expiry already protects correctness; the sweep just bounds memory.
func (s *Sessions) Sweep(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			for id, sess := range s.byAdmin {
				if s.expired(sess) {
					delete(s.byAdmin, id)
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *Sessions) expired(sess *BatchSession) bool {
	return s.ttl > 0 && time.Since(sess.StartedAt) > s.ttl
}
