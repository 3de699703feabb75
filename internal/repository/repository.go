package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/codeWith-akshay/hotel-booking-sub000/internal/domain"
)

// RoomCategoryRepository defines read access to room category master data
type RoomCategoryRepository interface {
	// GetByID retrieves a room category by ID
	GetByID(ctx context.Context, id string) (*domain.RoomCategory, error)

	// ListActive retrieves all active room categories
	ListActive(ctx context.Context) ([]*domain.RoomCategory, error)
}

// InventoryRepository is the inventory lock manager. The Tx-suffixed methods
// operate inside a caller-owned transaction and perform no locking of their
// own beyond what is stated; callers must follow the ascending-date lock
// discipline.
type InventoryRepository interface {
	// EnsureRowsTx creates missing inventory rows for the given dates, seeded
	// from the category capacity. Uses ON CONFLICT DO NOTHING so concurrent
	// seeding is safe.
	EnsureRowsTx(ctx context.Context, tx pgx.Tx, roomCategoryID string, dates []time.Time, totalRooms int) error

	// LockRangeTx acquires row locks on every date in ascending order and
	// returns per-date availability, also ascending.
	LockRangeTx(ctx context.Context, tx pgx.Tx, roomCategoryID string, dates []time.Time) ([]domain.DateAvailability, error)

	// DecrementLockedTx subtracts rooms from every date row. The caller must
	// already hold the row locks in this transaction.
	DecrementLockedTx(ctx context.Context, tx pgx.Tx, roomCategoryID string, dates []time.Time, rooms int) error

	// RestoreLockedTx adds rooms back to every date row, clamped at the
	// category capacity. The caller must already hold the row locks.
	RestoreLockedTx(ctx context.Context, tx pgx.Tx, roomCategoryID string, dates []time.Time, rooms int) error

	// GetAvailability reads the availability calendar for [from, to) without
	// taking locks. Missing rows are reported at full capacity.
	GetAvailability(ctx context.Context, roomCategoryID string, from, to time.Time) ([]domain.DateAvailability, error)
}

// BookingRepository defines read access and worker queries for bookings
type BookingRepository interface {
	// GetByID retrieves a booking by ID
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// ListByUser retrieves a user's bookings, newest first
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Booking, error)

	// ListDepositExpired retrieves provisional bookings whose deposit window
	// elapsed without payment
	ListDepositExpired(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Booking, error)
}

// IdempotencyRepository defines access to the idempotency key store
type IdempotencyRepository interface {
	// Find looks up a key without locking. Returns
	// domain.ErrIdempotencyKeyNotFound on a miss.
	Find(ctx context.Context, key string) (*domain.IdempotencyKey, error)
}

// SpecialDayRuleRepository defines access to the special day ruleset
type SpecialDayRuleRepository interface {
	// ListForRange retrieves active rules whose date falls in [from, to) and
	// that apply to the category (category-specific or category-wide)
	ListForRange(ctx context.Context, roomCategoryID string, from, to time.Time) ([]domain.SpecialDayRule, error)

	// GetByID retrieves a rule by ID
	GetByID(ctx context.Context, id string) (*domain.SpecialDayRule, error)

	// List retrieves all rules, newest date first
	List(ctx context.Context, limit, offset int) ([]domain.SpecialDayRule, error)

	// Create persists a new rule
	Create(ctx context.Context, rule *domain.SpecialDayRule) error

	// Update replaces a rule's mutable fields
	Update(ctx context.Context, rule *domain.SpecialDayRule) error

	// Delete removes a rule
	Delete(ctx context.Context, id string) error
}

// AuditLogRepository defines access to the append-only booking audit log
type AuditLogRepository interface {
	// ListByBooking retrieves a booking's audit trail, oldest first
	ListByBooking(ctx context.Context, bookingID string) ([]*domain.BookingAuditLog, error)
}

// CreateReservationParams carries everything the reservation transaction
// needs. The booking must already be priced and validated.
type CreateReservationParams struct {
	Booking        *domain.Booking
	IdempotencyKey string
	Fingerprint    string
	TotalRooms     int
	ActorID        string
}

// ReservationStore executes the multi-row transactional workflows. Every
// method runs one transaction that commits fully or rolls back fully.
type ReservationStore interface {
	// CreateReservation runs the reserve transaction: ensure rows, lock the
	// range ascending, check sufficiency, decrement, insert the booking, the
	// idempotency key and the audit entry. A lost idempotency race returns
	// domain.ErrIdempotencyKeyExists after rollback.
	CreateReservation(ctx context.Context, params *CreateReservationParams) error

	// ConfirmBooking locks the booking row, re-validates availability and
	// blocked-date rules inside the transaction, then transitions
	// provisional to confirmed.
	ConfirmBooking(ctx context.Context, bookingID, actorID string) (*domain.Booking, error)

	// CancelBooking locks the booking row, transitions it to cancelled and
	// restores the held inventory exactly once.
	CancelBooking(ctx context.Context, bookingID, actorID, reason string) (*domain.Booking, error)

	// CheckInBooking transitions confirmed to checked in
	CheckInBooking(ctx context.Context, bookingID, actorID string) (*domain.Booking, error)

	// CheckOutBooking transitions checked in to checked out
	CheckOutBooking(ctx context.Context, bookingID, actorID string) (*domain.Booking, error)

	// RecordDeposit records an offline deposit payment against a provisional
	// booking. The amount must match exactly.
	RecordDeposit(ctx context.Context, bookingID, actorID string, amount int64) (*domain.Booking, error)
}
