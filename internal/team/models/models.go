package models

import (
	"time"

	id "cheerconnect/pkg/domain"
	dErrors "cheerconnect/pkg/domain-errors"
)

// Team is referenced by memberships and invites. Team administration lives
// outside this service; only id, slug, and name matter here.
type Team struct {
	ID   id.TeamID `json:"id"`
	Slug string    `json:"slug"`
	Name string    `json:"name"`
}

// MemberRole enumerates a member's standing within a team.
type MemberRole string

const (
	RoleOwner  MemberRole = "OWNER"
	RoleAdmin  MemberRole = "ADMIN"
	RoleCoach  MemberRole = "COACH"
	RoleMember MemberRole = "MEMBER"
)

// Valid reports whether r is a known role.
func (r MemberRole) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleCoach, RoleMember:
		return true
	}
	return false
}

// Membership is the durable record of a user's standing within a team.
//
// Invariants:
//   - at most one Membership row per (UserID, TeamID) pair
//   - reactivation reuses the existing row rather than inserting a second
//     one, so historical references to the row stay valid
//   - never hard-deleted by the lifecycle engine; leaving a team clears
//     IsActive and sets LeftAt
type Membership struct {
	UserID        id.UserID  `json:"user_id"`
	TeamID        id.TeamID  `json:"team_id"`
	Role          MemberRole `json:"role"`
	HasPermission bool       `json:"has_permission"`
	IsAdmin       bool       `json:"is_admin"`
	IsActive      bool       `json:"is_active"`
	JoinedAt      time.Time  `json:"joined_at"`
	LeftAt        *time.Time `json:"left_at,omitempty"`
}

// ApplyGrant overwrites the membership with the privileges carried by an
// accepted invite. Used both for first joins and reactivations.
func (m *Membership) ApplyGrant(inv *Invite, now time.Time) {
	m.Role = inv.Role
	m.HasPermission = inv.HasPermission
	m.IsAdmin = inv.IsAdmin
	m.IsActive = true
	m.JoinedAt = now
	m.LeftAt = nil
}

// Deactivate records the member leaving the team. The row stays behind so a
// later invite can reactivate it.
func (m *Membership) Deactivate(now time.Time) {
	m.IsActive = false
	m.LeftAt = &now
}

// InviteStatus enumerates the invite state machine.
//
// Transitions are one-way: PENDING → {ACCEPTED, REJECTED, EXPIRED}. The
// three non-pending states are terminal.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "PENDING"
	InviteStatusAccepted InviteStatus = "ACCEPTED"
	InviteStatusRejected InviteStatus = "REJECTED"
	InviteStatusExpired  InviteStatus = "EXPIRED"
)

// IsTerminal reports whether no further transition is possible.
func (s InviteStatus) IsTerminal() bool { return s != InviteStatusPending }

// Invite is a pending offer of team membership carrying the role and
// permission flags to grant on acceptance.
type Invite struct {
	ID            id.InviteID  `json:"id"`
	TeamID        id.TeamID    `json:"team_id"`
	UserID        id.UserID    `json:"user_id"`
	Status        InviteStatus `json:"status"`
	Role          MemberRole   `json:"role"`
	HasPermission bool         `json:"has_permission"`
	IsAdmin       bool         `json:"is_admin"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// IsExpired reports whether the invite's expiry has passed. A nil ExpiresAt
// never expires.
func (i *Invite) IsExpired(now time.Time) bool {
	return i.ExpiresAt != nil && now.After(*i.ExpiresAt)
}

// CanRespond checks the capability guard: only the exact target user may
// accept or reject, regardless of any team role the caller holds.
func (i *Invite) CanRespond(caller id.UserID) error {
	if i.UserID != caller {
		return dErrors.New(dErrors.CodeForbidden, "invite is addressed to another user")
	}
	return nil
}

// CanTransition checks that the invite is still open.
func (i *Invite) CanTransition() error {
	if i.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeInvalidState, "invite is not pending")
	}
	return nil
}

// Member is one row of a team's active member listing.
type Member struct {
	UserID        id.UserID  `json:"user_id"`
	Role          MemberRole `json:"role"`
	HasPermission bool       `json:"has_permission"`
	IsAdmin       bool       `json:"is_admin"`
	JoinedAt      time.Time  `json:"joined_at"`
}

// MemberList is the active member roster plus the caller's derived
// permissions. Both booleans default to false for anonymous callers and
// callers without an active membership.
type MemberList struct {
	Team                Team     `json:"team"`
	Members             []Member `json:"members"`
	CallerIsAdmin       bool     `json:"caller_is_admin"`
	CallerHasPermission bool     `json:"caller_has_permission"`
}

// DeriveCaller fills the caller booleans from the already-fetched member
// list; no second query is needed.
func (l *MemberList) DeriveCaller(caller id.UserID) {
	l.CallerIsAdmin = false
	l.CallerHasPermission = false
	if caller.IsNil() {
		return
	}
	for _, m := range l.Members {
		if m.UserID == caller {
			l.CallerIsAdmin = m.IsAdmin
			l.CallerHasPermission = m.HasPermission
			return
		}
	}
}
