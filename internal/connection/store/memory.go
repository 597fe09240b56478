package store

import (
	"context"
	"sync"
	"time"

	"cheerconnect/internal/connection/models"
	id "cheerconnect/pkg/domain"
	"cheerconnect/pkg/platform/sentinel"
)

// pairKey is the unordered pair of endpoints. Ordering is normalized so a
// connection stored in either direction maps to the same key.
type pairKey struct {
	lo, hi id.UserID
}

func keyFor(a, b id.UserID) pairKey {
	if a.String() > b.String() {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// InMemory is a map-backed connection store for tests and local development.
type InMemory struct {
	mu    sync.RWMutex
	pairs map[pairKey]*models.Connection
}

func NewInMemory() *InMemory {
	return &InMemory{pairs: make(map[pairKey]*models.Connection)}
}

// Create inserts a connection request. At most one row may exist per
// unordered pair of users regardless of direction.
func (s *InMemory) Create(ctx context.Context, conn *models.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := keyFor(conn.SenderID, conn.ReceiverID)
	if _, ok := s.pairs[key]; ok {
		return sentinel.ErrConflict
	}
	cp := *conn
	s.pairs[key] = &cp
	return nil
}

// AcceptPending transitions the pending connection from sender to receiver
// into ACCEPTED. The direction is exact: only the receiver of a pending
// request may accept it. Returns ErrNotFound when no such pending row exists.
func (s *InMemory) AcceptPending(ctx context.Context, senderID, receiverID id.UserID, now time.Time) (*models.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, ok := s.pairs[keyFor(senderID, receiverID)]
	if !ok || conn.SenderID != senderID || conn.ReceiverID != receiverID || conn.Status != models.StatusPending {
		return nil, sentinel.ErrNotFound
	}
	conn.Accept(now)
	cp := *conn
	return &cp, nil
}

// DeletePair removes the connection between the two users, whichever
// direction it was stored in and whatever its status. Returns the deleted
// row, or ErrNotFound when no connection exists between the pair.
func (s *InMemory) DeletePair(ctx context.Context, a, b id.UserID) (*models.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := keyFor(a, b)
	conn, ok := s.pairs[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	delete(s.pairs, key)
	return conn, nil
}

// FindPair returns the connection between the two users in either direction.
func (s *InMemory) FindPair(ctx context.Context, a, b id.UserID) (*models.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conn, ok := s.pairs[keyFor(a, b)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *conn
	return &cp, nil
}
