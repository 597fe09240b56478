package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"cheerconnect/internal/team/models"
	id "cheerconnect/pkg/domain"
	"cheerconnect/pkg/platform/sentinel"
)

// querier is satisfied by both *sql.DB and *sql.Tx so the same store code
// runs inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
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

// Postgres persists teams, invites, and memberships in PostgreSQL.
type Postgres struct {
	q querier
}

// NewPostgres builds a store over a connection pool.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{q: db}
}

// NewPostgresTx builds a store over an open transaction, for use inside a
// RunInTx callback.
func NewPostgresTx(tx *sql.Tx) *Postgres {
	return &Postgres{q: tx}
}

func (s *Postgres) CreateTeam(ctx context.Context, team models.Team) error {
	query := `INSERT INTO teams (id, slug, name) VALUES ($1, $2, $3)`
	_, err := s.q.ExecContext(ctx, query, uuid.UUID(team.ID), team.Slug, team.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create team: %w", err)
	}
	return nil
}

func (s *Postgres) CreateInvite(ctx context.Context, inv models.Invite) error {
	query := `
		INSERT INTO invites (id, team_id, user_id, status, role, has_permission, is_admin, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.q.ExecContext(ctx, query,
		uuid.UUID(inv.ID), uuid.UUID(inv.TeamID), uuid.UUID(inv.UserID),
		string(inv.Status), string(inv.Role), inv.HasPermission, inv.IsAdmin,
		inv.ExpiresAt, inv.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create invite: %w", err)
	}
	return nil
}

// PutMembership writes a membership row directly. Test fixtures use it to
// model users who previously left a team.
func (s *Postgres) PutMembership(ctx context.Context, m models.Membership) error {
	query := `
		INSERT INTO memberships (user_id, team_id, role, has_permission, is_admin, is_active, joined_at, left_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, team_id) DO UPDATE SET
			role = EXCLUDED.role,
			has_permission = EXCLUDED.has_permission,
			is_admin = EXCLUDED.is_admin,
			is_active = EXCLUDED.is_active,
			joined_at = EXCLUDED.joined_at,
			left_at = EXCLUDED.left_at
	`
	_, err := s.q.ExecContext(ctx, query,
		uuid.UUID(m.UserID), uuid.UUID(m.TeamID), string(m.Role),
		m.HasPermission, m.IsAdmin, m.IsActive, m.JoinedAt, m.LeftAt,
	)
	if err != nil {
		return fmt.Errorf("put membership: %w", err)
	}
	return nil
}

func (s *Postgres) FindInvite(ctx context.Context, inviteID id.InviteID) (*models.Invite, error) {
	query := `
		SELECT id, team_id, user_id, status, role, has_permission, is_admin, expires_at, created_at
		FROM invites
		WHERE id = $1
	`
	var (
		inv          models.Invite
		invID        uuid.UUID
		teamID       uuid.UUID
		userID       uuid.UUID
		status, role string
	)
	err := s.q.QueryRowContext(ctx, query, uuid.UUID(inviteID)).Scan(
		&invID, &teamID, &userID, &status, &role,
		&inv.HasPermission, &inv.IsAdmin, &inv.ExpiresAt, &inv.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find invite: %w", err)
	}
	inv.ID = id.InviteID(invID)
	inv.TeamID = id.TeamID(teamID)
	inv.UserID = id.UserID(userID)
	inv.Status = models.InviteStatus(status)
	inv.Role = models.MemberRole(role)
	return &inv, nil
}

// UpdateInviteStatus transitions an invite with a conditional update. When
// the invite has already left the expected status — including a concurrent
// accept that committed first — the update matches no rows and the current
// row is re-read to distinguish "gone" from "already transitioned".
func (s *Postgres) UpdateInviteStatus(ctx context.Context, inviteID id.InviteID, from, to models.InviteStatus) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE invites SET status = $3 WHERE id = $1 AND status = $2`,
		uuid.UUID(inviteID), string(from), string(to),
	)
	if err != nil {
		return fmt.Errorf("update invite status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update invite status: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var current string
	err = s.q.QueryRowContext(ctx, `SELECT status FROM invites WHERE id = $1`, uuid.UUID(inviteID)).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update invite status: %w", err)
	}
	return sentinel.ErrInvalidState
}

// UpsertMembership creates the (user, team) row or updates it in place. The
// unique pair constraint makes this safe under concurrent accepts; xmax is
// nonzero only for rows rewritten by the conflict branch, which tells a
// first join from a reactivation.
func (s *Postgres) UpsertMembership(ctx context.Context, m models.Membership) (bool, error) {
	query := `
		INSERT INTO memberships (user_id, team_id, role, has_permission, is_admin, is_active, joined_at, left_at)
		VALUES ($1, $2, $3, $4, $5, true, $6, NULL)
		ON CONFLICT (user_id, team_id) DO UPDATE SET
			role = EXCLUDED.role,
			has_permission = EXCLUDED.has_permission,
			is_admin = EXCLUDED.is_admin,
			is_active = true,
			joined_at = EXCLUDED.joined_at,
			left_at = NULL
		RETURNING (xmax <> 0)
	`
	var reactivated bool
	err := s.q.QueryRowContext(ctx, query,
		uuid.UUID(m.UserID), uuid.UUID(m.TeamID), string(m.Role),
		m.HasPermission, m.IsAdmin, m.JoinedAt,
	).Scan(&reactivated)
	if err != nil {
		return false, fmt.Errorf("upsert membership: %w", err)
	}
	return reactivated, nil
}

func (s *Postgres) FindMembership(ctx context.Context, userID id.UserID, teamID id.TeamID) (*models.Membership, error) {
	query := `
		SELECT user_id, team_id, role, has_permission, is_admin, is_active, joined_at, left_at
		FROM memberships
		WHERE user_id = $1 AND team_id = $2
	`
	var (
		m        models.Membership
		uID, tID uuid.UUID
		role     string
	)
	err := s.q.QueryRowContext(ctx, query, uuid.UUID(userID), uuid.UUID(teamID)).Scan(
		&uID, &tID, &role, &m.HasPermission, &m.IsAdmin, &m.IsActive, &m.JoinedAt, &m.LeftAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find membership: %w", err)
	}
	m.UserID = id.UserID(uID)
	m.TeamID = id.TeamID(tID)
	m.Role = models.MemberRole(role)
	return &m, nil
}

func (s *Postgres) FindTeam(ctx context.Context, teamID id.TeamID) (*models.Team, error) {
	return s.findTeam(ctx, `SELECT id, slug, name FROM teams WHERE id = $1`, uuid.UUID(teamID))
}

func (s *Postgres) FindTeamBySlug(ctx context.Context, slug string) (*models.Team, error) {
	return s.findTeam(ctx, `SELECT id, slug, name FROM teams WHERE slug = $1`, slug)
}

func (s *Postgres) findTeam(ctx context.Context, query string, arg any) (*models.Team, error) {
	var (
		team   models.Team
		teamID uuid.UUID
	)
	err := s.q.QueryRowContext(ctx, query, arg).Scan(&teamID, &team.Slug, &team.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find team: %w", err)
	}
	team.ID = id.TeamID(teamID)
	return &team, nil
}

func (s *Postgres) ListActiveMembers(ctx context.Context, teamID id.TeamID) ([]models.Member, error) {
	query := `
		SELECT user_id, role, has_permission, is_admin, joined_at
		FROM memberships
		WHERE team_id = $1 AND is_active
		ORDER BY is_admin DESC, has_permission DESC, joined_at ASC
	`
	rows, err := s.q.QueryContext(ctx, query, uuid.UUID(teamID))
	if err != nil {
		return nil, fmt.Errorf("list active members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var (
			m      models.Member
			userID uuid.UUID
			role   string
		)
		if err := rows.Scan(&userID, &role, &m.HasPermission, &m.IsAdmin, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.UserID = id.UserID(userID)
		m.Role = models.MemberRole(role)
		members = append(members, m)
	}
	return members, rows.Err()
}
