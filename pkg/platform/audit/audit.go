// Package audit captures lifecycle events emitted from domain logic.
//
// Events are transport-agnostic so stores and sinks can fan out; the
// notification subsystem consumes them downstream.
package audit

import (
	"context"
	"time"

	id "cheerconnect/pkg/domain"
)

// Action names a lifecycle event.
type Action string

const (
	ActionInviteAccepted        Action = "invite_accepted"
	ActionInviteRejected        Action = "invite_rejected"
	ActionInviteExpired         Action = "invite_expired"
	ActionMembershipReactivated Action = "membership_reactivated"
	ActionConnectionAccepted    Action = "connection_accepted"
	ActionConnectionRemoved     Action = "connection_removed"
)

// Event is emitted from domain logic to capture key actions.
type Event struct {
	Timestamp time.Time
	Action    Action
	// UserID is the acting user.
	UserID id.UserID
	// Subject identifies the entity acted upon (invite, team, or the other
	// user of a connection).
	Subject string
	// RequestID correlates the event with the HTTP request that caused it.
	RequestID string
	// Device is the acting client's device summary, when known.
	Device string
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}

// Emitter publishes events without blocking domain logic.
type Emitter interface {
	Emit(event Event)
}

// ChannelEmitter sends events onto a buffered channel consumed by a Worker.
// Emit drops the event when the buffer is full rather than stalling a
// lifecycle transaction.
type ChannelEmitter struct {
	ch chan Event
}

// NewChannelEmitter returns an emitter with the given buffer size and the
// channel a Worker should consume.
func NewChannelEmitter(buffer int) (*ChannelEmitter, <-chan Event) {
	ch := make(chan Event, buffer)
	return &ChannelEmitter{ch: ch}, ch
}

func (e *ChannelEmitter) Emit(event Event) {
	select {
	case e.ch <- event:
	default:
	}
}

// NopEmitter discards events. Useful in tests that don't assert on audit.
type NopEmitter struct{}

func (NopEmitter) Emit(Event) {}
