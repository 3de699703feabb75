package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction identifies a booking state transition in the audit log
type AuditAction string

const (
	AuditActionCreated      AuditAction = "booking.created"
	AuditActionConfirmed    AuditAction = "booking.confirmed"
	AuditActionCancelled    AuditAction = "booking.cancelled"
	AuditActionCheckedIn    AuditAction = "booking.checked_in"
	AuditActionCheckedOut   AuditAction = "booking.checked_out"
	AuditActionDepositPaid  AuditAction = "booking.deposit_paid"
	AuditActionForceCancel  AuditAction = "booking.force_cancelled"
	AuditActionAutoExpired  AuditAction = "booking.deposit_expired"
)

// BookingAuditLog is one append-only entry per state transition. Written in
// the same transaction as the transition it records.
type BookingAuditLog struct {
	ID        string         `json:"id"`
	BookingID string         `json:"booking_id"`
	ActorID   string         `json:"actor_id"`
	Action    AuditAction    `json:"action"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewAuditLog creates an audit entry for a booking transition
func NewAuditLog(bookingID, actorID string, action AuditAction, metadata map[string]any) *BookingAuditLog {
	return &BookingAuditLog{
		ID:        uuid.New().String(),
		BookingID: bookingID,
		ActorID:   actorID,
		Action:    action,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
}
