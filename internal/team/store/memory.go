package store

import (
	"context"
	"maps"
	"sort"
	"sync"

	"cheerconnect/internal/team/models"
	id "cheerconnect/pkg/domain"
	"cheerconnect/pkg/platform/sentinel"
)

type pairKey struct {
	userID id.UserID
	teamID id.TeamID
}

// InMemory keeps teams, invites, and memberships in maps. Used by unit tests
// and local development; production uses the Postgres store.
type InMemory struct {
	mu          sync.RWMutex
	teams       map[id.TeamID]models.Team
	teamsBySlug map[string]id.TeamID
	invites     map[id.InviteID]models.Invite
	memberships map[pairKey]models.Membership
}

func NewInMemory() *InMemory {
	return &InMemory{
		teams:       make(map[id.TeamID]models.Team),
		teamsBySlug: make(map[string]id.TeamID),
		invites:     make(map[id.InviteID]models.Invite),
		memberships: make(map[pairKey]models.Membership),
	}
}

// Snapshot captures the current state and returns a function that restores
// it. The transaction boundary calls it so a failure partway through a
// composite mutation does not leave half the writes behind.
func (s *InMemory) Snapshot() (restore func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	teams := maps.Clone(s.teams)
	teamsBySlug := maps.Clone(s.teamsBySlug)
	invites := maps.Clone(s.invites)
	memberships := maps.Clone(s.memberships)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.teams = teams
		s.teamsBySlug = teamsBySlug
		s.invites = invites
		s.memberships = memberships
	}
}

// CreateTeam seeds a team. Team administration routes live outside this
// service; this exists for tests and local fixtures.
func (s *InMemory) CreateTeam(_ context.Context, team models.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.teamsBySlug[team.Slug]; exists {
		return sentinel.ErrConflict
	}
	s.teams[team.ID] = team
	s.teamsBySlug[team.Slug] = team.ID
	return nil
}

// CreateInvite seeds an invite (sent by a team admin through an external
// route).
func (s *InMemory) CreateInvite(_ context.Context, inv models.Invite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.invites[inv.ID]; exists {
		return sentinel.ErrConflict
	}
	s.invites[inv.ID] = inv
	return nil
}

// PutMembership writes a membership row directly, bypassing the upsert.
// Test fixtures use it to model users who previously left a team.
func (s *InMemory) PutMembership(_ context.Context, m models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships[pairKey{m.UserID, m.TeamID}] = m
	return nil
}

func (s *InMemory) FindInvite(_ context.Context, inviteID id.InviteID) (*models.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invites[inviteID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &inv, nil
}

// UpdateInviteStatus transitions an invite from one status to another. It
// fails with ErrInvalidState when the invite is no longer in the expected
// status, which is what serializes concurrent accept attempts.
func (s *InMemory) UpdateInviteStatus(_ context.Context, inviteID id.InviteID, from, to models.InviteStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invites[inviteID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if inv.Status != from {
		return sentinel.ErrInvalidState
	}
	inv.Status = to
	s.invites[inviteID] = inv
	return nil
}

// UpsertMembership creates the (user, team) row or updates it in place,
// preserving the one-row-per-pair invariant. Returns true when an existing
// row was reactivated.
func (s *InMemory) UpsertMembership(_ context.Context, m models.Membership) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{m.UserID, m.TeamID}
	_, existed := s.memberships[key]
	s.memberships[key] = m
	return existed, nil
}

func (s *InMemory) FindMembership(_ context.Context, userID id.UserID, teamID id.TeamID) (*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.memberships[pairKey{userID, teamID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &m, nil
}

func (s *InMemory) FindTeam(_ context.Context, teamID id.TeamID) (*models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	team, ok := s.teams[teamID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &team, nil
}

func (s *InMemory) FindTeamBySlug(_ context.Context, slug string) (*models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	teamID, ok := s.teamsBySlug[slug]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	team := s.teams[teamID]
	return &team, nil
}

// ListActiveMembers returns the active roster ordered by (isAdmin desc,
// hasPermission desc, joinedAt asc): admins first, then permissioned
// non-admins, then rank-and-file by seniority.
func (s *InMemory) ListActiveMembers(_ context.Context, teamID id.TeamID) ([]models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var members []models.Member
	for _, m := range s.memberships {
		if m.TeamID != teamID || !m.IsActive {
			continue
		}
		members = append(members, models.Member{
			UserID:        m.UserID,
			Role:          m.Role,
			HasPermission: m.HasPermission,
			IsAdmin:       m.IsAdmin,
			JoinedAt:      m.JoinedAt,
		})
	}
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].IsAdmin != members[j].IsAdmin {
			return members[i].IsAdmin
		}
		if members[i].HasPermission != members[j].HasPermission {
			return members[i].HasPermission
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	return members, nil
}
