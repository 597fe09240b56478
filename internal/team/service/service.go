// Package service implements the team-membership side of the lifecycle
// engine: invite acceptance and rejection, membership reactivation, and the
// member listing with caller permission derivation.
//
// The engine holds no state between calls. Every operation re-reads
// persisted state before acting; transactional atomicity plus the unique
// (user, team) membership constraint is the sole correctness mechanism
// under concurrent requests.
package service

import (
	"context"
	"errors"

	"cheerconnect/internal/platform/metrics"
	"cheerconnect/internal/team/models"
	id "cheerconnect/pkg/domain"
	dErrors "cheerconnect/pkg/domain-errors"
	"cheerconnect/pkg/platform/audit"
	"cheerconnect/pkg/platform/sentinel"
	"cheerconnect/pkg/requestcontext"
)

// Store is the persistence surface the lifecycle engine needs. Outside a
// transaction only the read methods are used; mutations happen inside
// Tx.RunInTx.
type Store interface {
	FindInvite(ctx context.Context, inviteID id.InviteID) (*models.Invite, error)
	UpdateInviteStatus(ctx context.Context, inviteID id.InviteID, from, to models.InviteStatus) error
	UpsertMembership(ctx context.Context, m models.Membership) (reactivated bool, err error)
	FindTeam(ctx context.Context, teamID id.TeamID) (*models.Team, error)
	FindTeamBySlug(ctx context.Context, slug string) (*models.Team, error)
	ListActiveMembers(ctx context.Context, teamID id.TeamID) ([]models.Member, error)
}

// Service transitions invites between states and mutates membership rows
// accordingly.
type Service struct {
	store   Store
	tx      Tx
	metrics *metrics.Metrics
	audit   audit.Emitter
}

func New(store Store, tx Tx, m *metrics.Metrics, emitter audit.Emitter) *Service {
	if emitter == nil {
		emitter = audit.NopEmitter{}
	}
	return &Service{store: store, tx: tx, metrics: m, audit: emitter}
}

// AcceptInvite applies the accept transition for the caller's invite and
// upserts the corresponding membership. The status update and the upsert
// commit atomically: a visible ACCEPTED invite with no active membership
// would let a user believe they joined a team when they did not.
//
// A past-expiry invite transitions to EXPIRED instead (persisted, so later
// calls fail with InvalidState) and the caller gets an Expired error.
func (s *Service) AcceptInvite(ctx context.Context, inviteID id.InviteID, caller id.UserID) (*models.Team, error) {
	if caller.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	now := requestcontext.Now(ctx)
	var (
		team        *models.Team
		reactivated bool
		expired     bool
	)
	err := s.tx.RunInTx(ctx, func(store Store) error {
		inv, err := store.FindInvite(ctx, inviteID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "invite not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load invite")
		}
		if err := inv.CanRespond(caller); err != nil {
			return err
		}
		if err := inv.CanTransition(); err != nil {
			return err
		}

		if inv.IsExpired(now) {
			if err := store.UpdateInviteStatus(ctx, inviteID, models.InviteStatusPending, models.InviteStatusExpired); err != nil {
				return translateTransition(err)
			}
			// Return nil so the EXPIRED write commits; the caller-facing
			// Expired error is raised after the transaction.
			expired = true
			return nil
		}

		if err := store.UpdateInviteStatus(ctx, inviteID, models.InviteStatusPending, models.InviteStatusAccepted); err != nil {
			return translateTransition(err)
		}

		membership := models.Membership{UserID: inv.UserID, TeamID: inv.TeamID}
		membership.ApplyGrant(inv, now)
		reactivated, err = store.UpsertMembership(ctx, membership)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to upsert membership")
		}

		team, err = store.FindTeam(ctx, inv.TeamID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load team")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		if s.metrics != nil {
			s.metrics.InvitesExpired.Inc()
		}
		s.emit(ctx, audit.ActionInviteExpired, caller, "invite:"+inviteID.String())
		return nil, dErrors.New(dErrors.CodeExpired, "invite has expired")
	}

	if s.metrics != nil {
		s.metrics.InvitesAccepted.Inc()
	}
	s.emit(ctx, audit.ActionInviteAccepted, caller, "team:"+team.ID.String())
	if reactivated {
		s.emit(ctx, audit.ActionMembershipReactivated, caller, "team:"+team.ID.String())
	}
	return team, nil
}

// RejectInvite applies the reject transition. No membership effect.
func (s *Service) RejectInvite(ctx context.Context, inviteID id.InviteID, caller id.UserID) error {
	if caller.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	err := s.tx.RunInTx(ctx, func(store Store) error {
		inv, err := store.FindInvite(ctx, inviteID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "invite not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load invite")
		}
		if err := inv.CanRespond(caller); err != nil {
			return err
		}
		if err := inv.CanTransition(); err != nil {
			return err
		}
		if err := store.UpdateInviteStatus(ctx, inviteID, models.InviteStatusPending, models.InviteStatusRejected); err != nil {
			return translateTransition(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.InvitesRejected.Inc()
	}
	s.emit(ctx, audit.ActionInviteRejected, caller, "invite:"+inviteID.String())
	return nil
}

// ListMembers returns a team's active roster ordered admins-first, plus the
// caller's derived isAdmin/hasPermission booleans. Anonymous callers get
// both false. The derivation scans the fetched list; no second query.
func (s *Service) ListMembers(ctx context.Context, teamSlug string, caller id.UserID) (*models.MemberList, error) {
	team, err := s.store.FindTeamBySlug(ctx, teamSlug)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "team not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load team")
	}

	members, err := s.store.ListActiveMembers(ctx, team.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list members")
	}

	list := &models.MemberList{Team: *team, Members: members}
	list.DeriveCaller(caller)
	return list, nil
}

// translateTransition maps store sentinel errors from a conditional status
// update into domain errors. ErrInvalidState here means a concurrent call
// committed its transition first.
func translateTransition(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "invite not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeInvalidState, "invite is not pending")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update invite")
	}
}

func (s *Service) emit(ctx context.Context, action audit.Action, caller id.UserID, subject string) {
	s.audit.Emit(audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Action:    action,
		UserID:    caller,
		Subject:   subject,
		RequestID: requestcontext.RequestID(ctx),
		Device:    requestcontext.Device(ctx),
	})
}
