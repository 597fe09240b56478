package service

import (
	"context"
	"sync"
	"time"

	dErrors "cheerconnect/pkg/domain-errors"
)

// Tx provides the transactional boundary for the invite-acceptance composite
// mutation. Implementations may wrap a database transaction or, in-memory, a
// coarse lock.
type Tx interface {
	RunInTx(ctx context.Context, fn func(store Store) error) error
}

// defaultTxTimeout bounds a lifecycle transaction.
const defaultTxTimeout = 5 * time.Second

// snapshotter lets a store participate in rollback by capturing and
// restoring its full state.
type snapshotter interface {
	Snapshot() (restore func())
}

// LockedTx serializes transactions over an in-memory store with a single
// mutex and rolls back via store snapshots when the callback fails, matching
// the all-or-nothing behavior of the database-backed boundary. Coarse, but
// the in-memory store only backs unit tests and local development.
type LockedTx struct {
	mu      sync.Mutex
	store   Store
	timeout time.Duration
}

// NewLockedTx wraps an in-memory store in a mutex-based transaction boundary.
func NewLockedTx(store Store) *LockedTx {
	return &LockedTx{store: store}
}

func (t *LockedTx) RunInTx(ctx context.Context, fn func(store Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	var restore func()
	if s, ok := t.store.(snapshotter); ok {
		restore = s.Snapshot()
	}
	if err := fn(t.store); err != nil {
		if restore != nil {
			restore()
		}
		return err
	}
	return nil
}
