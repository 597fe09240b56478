//go:build integration

package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cheerconnect/internal/team/models"
	id "cheerconnect/pkg/domain"
	"cheerconnect/pkg/platform/sentinel"
	"cheerconnect/pkg/testutil/containers"
)

type PostgresTeamStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Postgres
	ctx   context.Context
	team  models.Team
}

func TestPostgresTeamStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresTeamStoreSuite))
}

func (s *PostgresTeamStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = NewPostgres(s.pg.DB)
	s.ctx = context.Background()
}

func (s *PostgresTeamStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "memberships", "invites", "teams"))

	s.team = models.Team{ID: id.NewTeamID(), Slug: "stunt-squad", Name: "Stunt Squad"}
	s.Require().NoError(s.store.CreateTeam(s.ctx, s.team))
}

func (s *PostgresTeamStoreSuite) newInvite(userID id.UserID) models.Invite {
	inv := models.Invite{
		ID:        id.NewInviteID(),
		TeamID:    s.team.ID,
		UserID:    userID,
		Status:    models.InviteStatusPending,
		Role:      models.RoleMember,
		CreatedAt: time.Now().UTC(),
	}
	s.Require().NoError(s.store.CreateInvite(s.ctx, inv))
	return inv
}

func (s *PostgresTeamStoreSuite) TestDuplicateSlugConflicts() {
	dup := models.Team{ID: id.NewTeamID(), Slug: "stunt-squad", Name: "Other"}
	s.ErrorIs(s.store.CreateTeam(s.ctx, dup), sentinel.ErrConflict)
}

func (s *PostgresTeamStoreSuite) TestFindTeamBySlug() {
	team, err := s.store.FindTeamBySlug(s.ctx, "stunt-squad")
	s.Require().NoError(err)
	s.Equal(s.team.ID, team.ID)

	_, err = s.store.FindTeamBySlug(s.ctx, "no-such-team")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresTeamStoreSuite) TestInviteConditionalTransition() {
	inv := s.newInvite(id.NewUserID())

	s.Require().NoError(s.store.UpdateInviteStatus(s.ctx, inv.ID, models.InviteStatusPending, models.InviteStatusAccepted))

	stored, err := s.store.FindInvite(s.ctx, inv.ID)
	s.Require().NoError(err)
	s.Equal(models.InviteStatusAccepted, stored.Status)

	err = s.store.UpdateInviteStatus(s.ctx, inv.ID, models.InviteStatusPending, models.InviteStatusRejected)
	s.ErrorIs(err, sentinel.ErrInvalidState)

	err = s.store.UpdateInviteStatus(s.ctx, id.NewInviteID(), models.InviteStatusPending, models.InviteStatusAccepted)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresTeamStoreSuite) TestConcurrentInviteTransition() {
	inv := s.newInvite(id.NewUserID())

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.store.UpdateInviteStatus(s.ctx, inv.ID, models.InviteStatusPending, models.InviteStatusAccepted)
		}()
	}
	wg.Wait()
	close(results)

	var won, lost int
	for err := range results {
		switch {
		case err == nil:
			won++
		default:
			s.ErrorIs(err, sentinel.ErrInvalidState)
			lost++
		}
	}
	s.Equal(1, won)
	s.Equal(workers-1, lost)
}

func (s *PostgresTeamStoreSuite) TestUpsertMembershipInsertThenReactivate() {
	userID := id.NewUserID()
	joined := time.Now().UTC()

	reactivated, err := s.store.UpsertMembership(s.ctx, models.Membership{
		UserID: userID, TeamID: s.team.ID, Role: models.RoleMember, JoinedAt: joined,
	})
	s.Require().NoError(err)
	s.False(reactivated)

	// Leave, then rejoin with new flags.
	m, err := s.store.FindMembership(s.ctx, userID, s.team.ID)
	s.Require().NoError(err)
	m.Deactivate(time.Now().UTC())
	s.Require().NoError(s.store.PutMembership(s.ctx, *m))

	reactivated, err = s.store.UpsertMembership(s.ctx, models.Membership{
		UserID: userID, TeamID: s.team.ID, Role: models.RoleCoach,
		HasPermission: true, JoinedAt: time.Now().UTC(),
	})
	s.Require().NoError(err)
	s.True(reactivated)

	stored, err := s.store.FindMembership(s.ctx, userID, s.team.ID)
	s.Require().NoError(err)
	s.Equal(models.RoleCoach, stored.Role)
	s.True(stored.HasPermission)
	s.True(stored.IsActive)
	s.Nil(stored.LeftAt)

	members, err := s.store.ListActiveMembers(s.ctx, s.team.ID)
	s.Require().NoError(err)
	s.Len(members, 1)
}

func (s *PostgresTeamStoreSuite) TestConcurrentUpsertMembership() {
	userID := id.NewUserID()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.UpsertMembership(s.ctx, models.Membership{
				UserID: userID, TeamID: s.team.ID, Role: models.RoleMember, JoinedAt: time.Now().UTC(),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		s.NoError(err)
	}

	members, err := s.store.ListActiveMembers(s.ctx, s.team.ID)
	s.Require().NoError(err)
	s.Len(members, 1)
}

func (s *PostgresTeamStoreSuite) TestListActiveMembersOrdering() {
	base := time.Now().UTC()
	rows := []models.Membership{
		{UserID: id.NewUserID(), TeamID: s.team.ID, Role: models.RoleMember, IsActive: true, JoinedAt: base},
		{UserID: id.NewUserID(), TeamID: s.team.ID, Role: models.RoleCoach, HasPermission: true, IsActive: true, JoinedAt: base.Add(time.Hour)},
		{UserID: id.NewUserID(), TeamID: s.team.ID, Role: models.RoleAdmin, IsAdmin: true, IsActive: true, JoinedAt: base.Add(2 * time.Hour)},
		{UserID: id.NewUserID(), TeamID: s.team.ID, Role: models.RoleMember, IsActive: false, JoinedAt: base.Add(-time.Hour)},
	}
	for _, m := range rows {
		s.Require().NoError(s.store.PutMembership(s.ctx, m))
	}

	members, err := s.store.ListActiveMembers(s.ctx, s.team.ID)
	s.Require().NoError(err)
	s.Require().Len(members, 3)
	s.True(members[0].IsAdmin)
	s.True(members[1].HasPermission)
	s.False(members[2].IsAdmin)
	s.False(members[2].HasPermission)
}
