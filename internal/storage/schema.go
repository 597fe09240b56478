// Package storage carries the canonical SQL schema so integration tests and
// deployment bootstrap apply the same definitions.
package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var Schema string

// Apply executes the schema against db. Statements are idempotent
// (IF NOT EXISTS), so Apply is safe to run on every startup.
func Apply(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
