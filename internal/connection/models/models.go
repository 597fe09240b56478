package models

import (
	"time"

	id "cheerconnect/pkg/domain"
)

// Status is the lifecycle state of a connection between two users.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
)

// Connection is a friendship edge between two users. SenderID initiated the
// request; ReceiverID is the user who must accept it. Once accepted the edge
// is symmetric: either side may remove it.
type Connection struct {
	ID         id.ConnectionID `json:"id"`
	SenderID   id.UserID       `json:"sender_id"`
	ReceiverID id.UserID       `json:"receiver_id"`
	Status     Status          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	AcceptedAt *time.Time      `json:"accepted_at,omitempty"`
}

// Accept marks a pending connection as accepted at the given time.
func (c *Connection) Accept(now time.Time) {
	c.Status = StatusAccepted
	c.AcceptedAt = &now
}
