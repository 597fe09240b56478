package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"cheerconnect/internal/connection/models"
	id "cheerconnect/pkg/domain"
	"cheerconnect/pkg/platform/sentinel"
)

// querier is satisfied by both *sql.DB and *sql.Tx so the same store code
// runs inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// uniqueViolation is the Postgres error code for unique constraint failures.
const uniqueViolation = "23505"

// isUniqueViolation classifies driver errors from the pgx stdlib driver,
// which surfaces server errors as *pgconn.PgError.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Postgres persists connections in PostgreSQL.
type Postgres struct {
	q querier
}

// NewPostgres builds a store over a connection pool.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{q: db}
}

// Create inserts a connection request. The unordered pair index rejects a
// second row between the same two users regardless of direction.
func (s *Postgres) Create(ctx context.Context, conn *models.Connection) error {
	query := `
		INSERT INTO connections (id, sender_id, receiver_id, status, created_at, accepted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.q.ExecContext(ctx, query,
		uuid.UUID(conn.ID), uuid.UUID(conn.SenderID), uuid.UUID(conn.ReceiverID),
		string(conn.Status), conn.CreatedAt, conn.AcceptedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create connection: %w", err)
	}
	return nil
}

// AcceptPending transitions the pending connection from sender to receiver
// into ACCEPTED with a single conditional update. The direction is exact, so
// a row stored the other way round, an already-accepted row, and a missing
// row all come back as ErrNotFound.
func (s *Postgres) AcceptPending(ctx context.Context, senderID, receiverID id.UserID, now time.Time) (*models.Connection, error) {
	query := `
		UPDATE connections
		SET status = $1, accepted_at = $2
		WHERE sender_id = $3 AND receiver_id = $4 AND status = $5
		RETURNING id, sender_id, receiver_id, status, created_at, accepted_at
	`
	return s.scanConnection(s.q.QueryRowContext(ctx, query,
		string(models.StatusAccepted), now,
		uuid.UUID(senderID), uuid.UUID(receiverID), string(models.StatusPending),
	), "accept connection")
}

// DeletePair removes the connection between the two users with a symmetric
// predicate, whichever direction it was stored in and whatever its status.
// Returns the deleted row, or ErrNotFound when no connection exists.
func (s *Postgres) DeletePair(ctx context.Context, a, b id.UserID) (*models.Connection, error) {
	query := `
		DELETE FROM connections
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		RETURNING id, sender_id, receiver_id, status, created_at, accepted_at
	`
	return s.scanConnection(s.q.QueryRowContext(ctx, query, uuid.UUID(a), uuid.UUID(b)), "delete connection")
}

// FindPair returns the connection between the two users in either direction.
func (s *Postgres) FindPair(ctx context.Context, a, b id.UserID) (*models.Connection, error) {
	query := `
		SELECT id, sender_id, receiver_id, status, created_at, accepted_at
		FROM connections
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
	`
	return s.scanConnection(s.q.QueryRowContext(ctx, query, uuid.UUID(a), uuid.UUID(b)), "find connection")
}

func (s *Postgres) scanConnection(row *sql.Row, op string) (*models.Connection, error) {
	var (
		conn             models.Connection
		connID, sID, rID uuid.UUID
		status           string
	)
	err := row.Scan(&connID, &sID, &rID, &status, &conn.CreatedAt, &conn.AcceptedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	conn.ID = id.ConnectionID(connID)
	conn.SenderID = id.UserID(sID)
	conn.ReceiverID = id.UserID(rID)
	conn.Status = models.Status(status)
	return &conn, nil
}
