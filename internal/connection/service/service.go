// Package service implements the connection side of the lifecycle engine:
// accepting a pending request and removing an edge from either side.
//
// Missing rows and rows the caller is not a party to fail identically with
// NotFound, so a caller cannot probe for other users' pending requests.
package service

import (
	"context"
	"errors"
	"time"

	"cheerconnect/internal/connection/models"
	"cheerconnect/internal/platform/metrics"
	id "cheerconnect/pkg/domain"
	dErrors "cheerconnect/pkg/domain-errors"
	"cheerconnect/pkg/platform/audit"
	"cheerconnect/pkg/platform/sentinel"
	"cheerconnect/pkg/requestcontext"
)

// Store is the persistence surface the connection engine needs. Both
// mutations are single conditional statements, so no transaction boundary
// wraps them.
type Store interface {
	AcceptPending(ctx context.Context, senderID, receiverID id.UserID, now time.Time) (*models.Connection, error)
	DeletePair(ctx context.Context, a, b id.UserID) (*models.Connection, error)
}

// Service transitions connections between states.
type Service struct {
	store   Store
	metrics *metrics.Metrics
	audit   audit.Emitter
}

func New(store Store, m *metrics.Metrics, emitter audit.Emitter) *Service {
	if emitter == nil {
		emitter = audit.NopEmitter{}
	}
	return &Service{store: store, metrics: m, audit: emitter}
}

// AcceptConnection accepts the pending request the given user sent to the
// caller. The caller must be the receiver; any other arrangement, including
// a request pending in the opposite direction, reports NotFound.
func (s *Service) AcceptConnection(ctx context.Context, senderID, caller id.UserID) (*models.Connection, error) {
	if caller.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if senderID == caller {
		return nil, dErrors.New(dErrors.CodeNotFound, "connection request not found")
	}

	conn, err := s.store.AcceptPending(ctx, senderID, caller, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "connection request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to accept connection")
	}

	if s.metrics != nil {
		s.metrics.ConnectionsAccepted.Inc()
	}
	s.emit(ctx, audit.ActionConnectionAccepted, caller, "user:"+senderID.String())
	return conn, nil
}

// RemoveConnection deletes the edge between the caller and the given user,
// whichever side sent it and whether or not it was accepted. Removing an
// accepted connection and cancelling a pending request are the same
// operation.
func (s *Service) RemoveConnection(ctx context.Context, otherID, caller id.UserID) error {
	if caller.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if otherID == caller {
		return dErrors.New(dErrors.CodeNotFound, "connection not found")
	}

	if _, err := s.store.DeletePair(ctx, caller, otherID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "connection not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove connection")
	}

	if s.metrics != nil {
		s.metrics.ConnectionsRemoved.Inc()
	}
	s.emit(ctx, audit.ActionConnectionRemoved, caller, "user:"+otherID.String())
	return nil
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
