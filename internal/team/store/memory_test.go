package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cheerconnect/internal/team/models"
	id "cheerconnect/pkg/domain"
	"cheerconnect/pkg/platform/sentinel"
)

type TeamStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestTeamStoreSuite(t *testing.T) {
	suite.Run(t, new(TeamStoreSuite))
}

func (s *TeamStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *TeamStoreSuite) newTeam(slug string) models.Team {
	return models.Team{ID: id.NewTeamID(), Slug: slug, Name: "Team " + slug}
}

func (s *TeamStoreSuite) newInvite(teamID id.TeamID, userID id.UserID) models.Invite {
	return models.Invite{
		ID:        id.NewInviteID(),
		TeamID:    teamID,
		UserID:    userID,
		Status:    models.InviteStatusPending,
		Role:      models.RoleMember,
		CreatedAt: time.Now(),
	}
}

func (s *TeamStoreSuite) TestTeamLookups() {
	s.Run("finds team by ID and slug", func() {
		team := s.newTeam("flip-squad")
		s.Require().NoError(s.store.CreateTeam(s.ctx, team))

		found, err := s.store.FindTeam(s.ctx, team.ID)
		s.Require().NoError(err)
		s.Equal(team.Name, found.Name)

		found, err = s.store.FindTeamBySlug(s.ctx, "flip-squad")
		s.Require().NoError(err)
		s.Equal(team.ID, found.ID)
	})

	s.Run("returns ErrNotFound for unknown team", func() {
		_, err := s.store.FindTeam(s.ctx, id.NewTeamID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)

		_, err = s.store.FindTeamBySlug(s.ctx, "missing")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate slug", func() {
		s.Require().NoError(s.store.CreateTeam(s.ctx, s.newTeam("dup")))
		err := s.store.CreateTeam(s.ctx, s.newTeam("dup"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})
}

func (s *TeamStoreSuite) TestInviteTransitions() {
	team := s.newTeam("stunt-crew")
	s.Require().NoError(s.store.CreateTeam(s.ctx, team))
	inv := s.newInvite(team.ID, id.NewUserID())
	s.Require().NoError(s.store.CreateInvite(s.ctx, inv))

	s.Run("conditional update succeeds from expected status", func() {
		err := s.store.UpdateInviteStatus(s.ctx, inv.ID, models.InviteStatusPending, models.InviteStatusAccepted)
		s.Require().NoError(err)

		found, err := s.store.FindInvite(s.ctx, inv.ID)
		s.Require().NoError(err)
		s.Equal(models.InviteStatusAccepted, found.Status)
	})

	s.Run("conditional update fails once status moved", func() {
		err := s.store.UpdateInviteStatus(s.ctx, inv.ID, models.InviteStatusPending, models.InviteStatusRejected)
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("unknown invite returns ErrNotFound", func() {
		err := s.store.UpdateInviteStatus(s.ctx, id.NewInviteID(), models.InviteStatusPending, models.InviteStatusAccepted)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *TeamStoreSuite) TestMembershipUpsert() {
	team := s.newTeam("cheer-elite")
	s.Require().NoError(s.store.CreateTeam(s.ctx, team))
	userID := id.NewUserID()
	now := time.Now()

	s.Run("first upsert inserts", func() {
		reactivated, err := s.store.UpsertMembership(s.ctx, models.Membership{
			UserID: userID, TeamID: team.ID, Role: models.RoleMember,
			IsActive: true, JoinedAt: now,
		})
		s.Require().NoError(err)
		s.False(reactivated)
	})

	s.Run("second upsert updates in place", func() {
		reactivated, err := s.store.UpsertMembership(s.ctx, models.Membership{
			UserID: userID, TeamID: team.ID, Role: models.RoleCoach,
			HasPermission: true, IsActive: true, JoinedAt: now.Add(time.Hour),
		})
		s.Require().NoError(err)
		s.True(reactivated)

		m, err := s.store.FindMembership(s.ctx, userID, team.ID)
		s.Require().NoError(err)
		s.Equal(models.RoleCoach, m.Role)
		s.True(m.HasPermission)

		members, err := s.store.ListActiveMembers(s.ctx, team.ID)
		s.Require().NoError(err)
		s.Len(members, 1)
	})
}

func (s *TeamStoreSuite) TestListActiveMembersOrdering() {
	team := s.newTeam("order-check")
	s.Require().NoError(s.store.CreateTeam(s.ctx, team))

	t0 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	admin := id.NewUserID()
	permissioned := id.NewUserID()
	senior := id.NewUserID()
	junior := id.NewUserID()

	s.Require().NoError(s.store.PutMembership(s.ctx, models.Membership{
		UserID: junior, TeamID: team.ID, Role: models.RoleMember, IsActive: true, JoinedAt: t0.Add(3 * time.Hour),
	}))
	s.Require().NoError(s.store.PutMembership(s.ctx, models.Membership{
		UserID: senior, TeamID: team.ID, Role: models.RoleMember, IsActive: true, JoinedAt: t0,
	}))
	s.Require().NoError(s.store.PutMembership(s.ctx, models.Membership{
		UserID: admin, TeamID: team.ID, Role: models.RoleAdmin, IsAdmin: true, IsActive: true, JoinedAt: t0.Add(2 * time.Hour),
	}))
	s.Require().NoError(s.store.PutMembership(s.ctx, models.Membership{
		UserID: permissioned, TeamID: team.ID, Role: models.RoleCoach, HasPermission: true, IsActive: true, JoinedAt: t0.Add(time.Hour),
	}))

	members, err := s.store.ListActiveMembers(s.ctx, team.ID)
	s.Require().NoError(err)
	s.Require().Len(members, 4)
	s.Equal(admin, members[0].UserID)
	s.Equal(permissioned, members[1].UserID)
	s.Equal(senior, members[2].UserID)
	s.Equal(junior, members[3].UserID)
}
