package main

import (
	"context"
	"database/sql"
	"time"

	teamservice "cheerconnect/internal/team/service"
	teamstore "cheerconnect/internal/team/store"
	dErrors "cheerconnect/pkg/domain-errors"
)

const defaultLifecycleTxTimeout = 5 * time.Second

// lifecyclePostgresTx runs invite-acceptance work inside a database
// transaction. The callback sees a store bound to the open transaction, so
// the status update and the membership upsert commit or roll back together.
type lifecyclePostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newLifecyclePostgresTx(db *sql.DB) *lifecyclePostgresTx {
	return &lifecyclePostgresTx{db: db}
}

func (t *lifecyclePostgresTx) RunInTx(ctx context.Context, fn func(store teamservice.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultLifecycleTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(teamstore.NewPostgresTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}
