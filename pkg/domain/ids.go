// Package domain provides typed identifiers shared across the service.
//
// Each entity gets its own uuid-backed type so the compiler rejects
// cross-entity assignment (passing a TeamID where a UserID is expected).
package domain

import (
	"github.com/google/uuid"

	dErrors "cheerconnect/pkg/domain-errors"
)

type (
	// UserID identifies a user. Users are owned by the identity subsystem;
	// this service only references them.
	UserID uuid.UUID

	// TeamID identifies a team.
	TeamID uuid.UUID

	// InviteID identifies a team-membership invite.
	InviteID uuid.UUID

	// ConnectionID identifies a social connection row.
	ConnectionID uuid.UUID
)

func (id UserID) String() string       { return uuid.UUID(id).String() }
func (id TeamID) String() string       { return uuid.UUID(id).String() }
func (id InviteID) String() string     { return uuid.UUID(id).String() }
func (id ConnectionID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id TeamID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id InviteID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ConnectionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// IDs cross the wire as their canonical string form, not as byte arrays.
func (id UserID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id TeamID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id InviteID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id ConnectionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *TeamID) UnmarshalText(b []byte) error {
	parsed, err := ParseTeamID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *InviteID) UnmarshalText(b []byte) error {
	parsed, err := ParseInviteID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ConnectionID) UnmarshalText(b []byte) error {
	parsed, err := ParseConnectionID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewTeamID returns a fresh random TeamID.
func NewTeamID() TeamID { return TeamID(uuid.New()) }

// NewInviteID returns a fresh random InviteID.
func NewInviteID() InviteID { return InviteID(uuid.New()) }

// NewConnectionID returns a fresh random ConnectionID.
func NewConnectionID() ConnectionID { return ConnectionID(uuid.New()) }

// ParseUserID parses and validates a user ID at a trust boundary.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user ID")
	return UserID(u), err
}

// ParseTeamID parses and validates a team ID at a trust boundary.
func ParseTeamID(s string) (TeamID, error) {
	u, err := parseUUID(s, "team ID")
	return TeamID(u), err
}

// ParseInviteID parses and validates an invite ID at a trust boundary.
func ParseInviteID(s string) (InviteID, error) {
	u, err := parseUUID(s, "invite ID")
	return InviteID(u), err
}

// ParseConnectionID parses and validates a connection ID at a trust boundary.
func ParseConnectionID(s string) (ConnectionID, error) {
	u, err := parseUUID(s, "connection ID")
	return ConnectionID(u), err
}

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs.
func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" must not be the nil UUID")
	}
	return u, nil
}
