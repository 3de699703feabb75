package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/codeWith-akshay/hotel-booking-sub000/internal/domain"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/telemetry"
)

// TxConfig bounds the reservation transactions. LockTimeout caps the wait to
// even start on a contended row; StatementTimeout caps the total duration of
// any statement in the transaction. Both must be finite so a stuck client
// cannot starve a row indefinitely.
type TxConfig struct {
	LockTimeout      time.Duration
	StatementTimeout time.Duration
}

// DefaultTxConfig returns default transaction bounds
func DefaultTxConfig() *TxConfig {
	return &TxConfig{
		LockTimeout:      3 * time.Second,
		StatementTimeout: 10 * time.Second,
	}
}

// TransactionalReservationRepository implements ReservationStore by composing
// the per-table repositories inside single PostgreSQL transactions. Every
// inventory mutation happens under row locks acquired in ascending date
// order; no code path touches inventory outside this discipline.
type TransactionalReservationRepository struct {
	pool            *pgxpool.Pool
	inventoryRepo   *PostgresInventoryRepository
	bookingRepo     *PostgresBookingRepository
	idempotencyRepo *PostgresIdempotencyRepository
	auditRepo       *PostgresAuditRepository
	ruleRepo        *PostgresSpecialDayRepository
	config          *TxConfig
}

// NewTransactionalReservationRepository creates a new TransactionalReservationRepository
func NewTransactionalReservationRepository(
	pool *pgxpool.Pool,
	inventoryRepo *PostgresInventoryRepository,
	bookingRepo *PostgresBookingRepository,
	idempotencyRepo *PostgresIdempotencyRepository,
	auditRepo *PostgresAuditRepository,
	ruleRepo *PostgresSpecialDayRepository,
	config *TxConfig,
) *TransactionalReservationRepository {
	if config == nil {
		config = DefaultTxConfig()
	}
	return &TransactionalReservationRepository{
		pool:            pool,
		inventoryRepo:   inventoryRepo,
		bookingRepo:     bookingRepo,
		idempotencyRepo: idempotencyRepo,
		auditRepo:       auditRepo,
		ruleRepo:        ruleRepo,
		config:          config,
	}
}

var _ ReservationStore = (*TransactionalReservationRepository)(nil)

// begin opens a transaction with bounded lock wait and statement duration.
// SET LOCAL scopes both to this transaction only.
func (r *TransactionalReservationRepository) begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, mapConflict("begin", fmt.Errorf("failed to begin transaction: %w", err))
	}

	timeouts := fmt.Sprintf(
		"SET LOCAL lock_timeout = '%dms'; SET LOCAL statement_timeout = '%dms'",
		r.config.LockTimeout.Milliseconds(),
		r.config.StatementTimeout.Milliseconds(),
	)
	if _, err := tx.Exec(ctx, timeouts); err != nil {
		_ = tx.Rollback(ctx)
		return nil, mapConflict("begin", fmt.Errorf("failed to set transaction timeouts: %w", err))
	}

	return tx, nil
}

// CreateReservation runs the reserve transaction. Sequence: ensure inventory
// rows exist, lock the range in ascending date order, verify sufficiency on
// every night, decrement, insert booking plus idempotency key plus audit
// entry, commit. Any failure rolls back the whole transaction; no partial
// decrement can survive.
func (r *TransactionalReservationRepository) CreateReservation(ctx context.Context, params *CreateReservationParams) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.tx.reservation.create")
	defer span.End()

	booking := params.Booking
	span.SetAttributes(
		attribute.String("booking_id", booking.ID),
		attribute.String("room_category_id", booking.RoomCategoryID),
		attribute.Int("rooms_booked", booking.RoomsBooked),
	)

	nights := booking.Nights()

	tx, err := r.begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer tx.Rollback(ctx)

	if err := r.inventoryRepo.EnsureRowsTx(ctx, tx, booking.RoomCategoryID, nights, params.TotalRooms); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	availability, err := r.inventoryRepo.LockRangeTx(ctx, tx, booking.RoomCategoryID, nights)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	// Sufficiency is evaluated under lock; the first failing date becomes
	// the user-facing error payload.
	for _, a := range availability {
		if !a.Sufficient(booking.RoomsBooked) {
			err := &domain.InsufficientInventoryError{
				RoomCategoryID: booking.RoomCategoryID,
				Date:           a.Date,
				Available:      a.RoomsRemaining,
				Requested:      booking.RoomsBooked,
			}
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	if err := r.inventoryRepo.DecrementLockedTx(ctx, tx, booking.RoomCategoryID, nights, booking.RoomsBooked); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := r.bookingRepo.createTx(ctx, tx, booking); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return mapConflict("booking create", err)
	}

	record := &domain.IdempotencyKey{
		Key:         params.IdempotencyKey,
		BookingID:   booking.ID,
		Fingerprint: params.Fingerprint,
		CreatedAt:   time.Now(),
	}
	if err := r.idempotencyRepo.createTx(ctx, tx, record); err != nil {
		// A lost race on the key unique constraint; the caller re-queries
		// the winner after our rollback.
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	audit := domain.NewAuditLog(booking.ID, params.ActorID, domain.AuditActionCreated, map[string]any{
		"rooms_booked": booking.RoomsBooked,
		"total_price":  booking.TotalPrice,
		"status":       booking.Status.String(),
	})
	if err := r.auditRepo.createTx(ctx, tx, audit); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return mapConflict("reservation commit", fmt.Errorf("failed to commit reservation: %w", err))
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// ConfirmBooking locks the booking row, re-validates the held inventory (the
// second look after time has passed since the provisional hold), re-checks
// blocked-date rules inside the same transaction and transitions to
// confirmed. No decrement happens here; inventory was taken at creation.
func (r *TransactionalReservationRepository) ConfirmBooking(ctx context.Context, bookingID, actorID string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.tx.reservation.confirm")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", bookingID))

	tx, err := r.begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer tx.Rollback(ctx)

	booking, err := r.bookingRepo.getForUpdateTx(ctx, tx, bookingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := booking.Confirm(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// The hold must still be backed by real rows within capacity bounds.
	availability, err := r.inventoryRepo.LockRangeTx(ctx, tx, booking.RoomCategoryID, booking.Nights())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	for _, a := range availability {
		if a.RoomsRemaining < 0 || a.RoomsRemaining > a.TotalRooms {
			err := fmt.Errorf("inventory invariant violated on %s: %d of %d remaining",
				a.Date.Format(domain.DateLayout), a.RoomsRemaining, a.TotalRooms)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	// A rule activated since the provisional hold must still veto the stay.
	// Reading inside this transaction, after the booking row lock, keeps the
	// check and the status change in one atomic step.
	rules, err := r.ruleRepo.listForRangeTx(ctx, tx, booking.RoomCategoryID, booking.StartDate, booking.EndDate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if blockErr := domain.FirstBlockedNight(rules, booking); blockErr != nil {
		span.SetStatus(codes.Error, blockErr.Error())
		return nil, blockErr
	}

	if err := r.bookingRepo.updateTx(ctx, tx, booking); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	audit := domain.NewAuditLog(booking.ID, actorID, domain.AuditActionConfirmed, nil)
	if err := r.auditRepo.createTx(ctx, tx, audit); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, mapConflict("confirm commit", fmt.Errorf("failed to commit confirm: %w", err))
	}

	span.SetStatus(codes.Ok, "")
	return booking, nil
}

// CancelBooking locks the booking row, transitions it to cancelled and
// restores the held inventory under the same row locks used to decrement it.
// Re-cancelling rejects before any restore, so inventory can never be
// restored twice.
func (r *TransactionalReservationRepository) CancelBooking(ctx context.Context, bookingID, actorID, reason string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.tx.reservation.cancel")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", bookingID))

	tx, err := r.begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer tx.Rollback(ctx)

	booking, err := r.bookingRepo.getForUpdateTx(ctx, tx, bookingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	holdsInventory := booking.Status.HoldsInventory()

	if err := booking.Cancel(reason); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if holdsInventory {
		nights := booking.Nights()
		if _, err := r.inventoryRepo.LockRangeTx(ctx, tx, booking.RoomCategoryID, nights); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if err := r.inventoryRepo.RestoreLockedTx(ctx, tx, booking.RoomCategoryID, nights, booking.RoomsBooked); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	if err := r.bookingRepo.updateTx(ctx, tx, booking); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	audit := domain.NewAuditLog(booking.ID, actorID, domain.AuditActionCancelled, map[string]any{
		"reason":             reason,
		"inventory_restored": holdsInventory,
	})
	if err := r.auditRepo.createTx(ctx, tx, audit); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, mapConflict("cancel commit", fmt.Errorf("failed to commit cancel: %w", err))
	}

	span.SetStatus(codes.Ok, "")
	return booking, nil
}

// CheckInBooking transitions confirmed to checked in. No inventory effect.
func (r *TransactionalReservationRepository) CheckInBooking(ctx context.Context, bookingID, actorID string) (*domain.Booking, error) {
	return r.transition(ctx, "repo.tx.reservation.check_in", bookingID, actorID, domain.AuditActionCheckedIn,
		func(b *domain.Booking) error { return b.CheckIn(time.Now()) })
}

// CheckOutBooking transitions checked in to checked out. The stay's dates are
// in the past; future inventory is unaffected.
func (r *TransactionalReservationRepository) CheckOutBooking(ctx context.Context, bookingID, actorID string) (*domain.Booking, error) {
	return r.transition(ctx, "repo.tx.reservation.check_out", bookingID, actorID, domain.AuditActionCheckedOut,
		func(b *domain.Booking) error { return b.CheckOut() })
}

// RecordDeposit records an offline deposit payment. The amount must match
// the stored deposit exactly, in minor units.
func (r *TransactionalReservationRepository) RecordDeposit(ctx context.Context, bookingID, actorID string, amount int64) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.tx.reservation.record_deposit")
	defer span.End()

	span.SetAttributes(
		attribute.String("booking_id", bookingID),
		attribute.Int64("amount", amount),
	)

	tx, err := r.begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer tx.Rollback(ctx)

	booking, err := r.bookingRepo.getForUpdateTx(ctx, tx, bookingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := booking.MarkDepositPaid(amount); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := r.bookingRepo.updateTx(ctx, tx, booking); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	audit := domain.NewAuditLog(booking.ID, actorID, domain.AuditActionDepositPaid, map[string]any{
		"amount": amount,
	})
	if err := r.auditRepo.createTx(ctx, tx, audit); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, mapConflict("deposit commit", fmt.Errorf("failed to commit deposit: %w", err))
	}

	span.SetStatus(codes.Ok, "")
	return booking, nil
}

// transition runs a lock-mutate-audit-commit cycle for transitions with no
// inventory effect
func (r *TransactionalReservationRepository) transition(ctx context.Context, spanName, bookingID, actorID string, action domain.AuditAction, mutate func(*domain.Booking) error) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", bookingID))

	tx, err := r.begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer tx.Rollback(ctx)

	booking, err := r.bookingRepo.getForUpdateTx(ctx, tx, bookingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := mutate(booking); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := r.bookingRepo.updateTx(ctx, tx, booking); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	audit := domain.NewAuditLog(booking.ID, actorID, action, nil)
	if err := r.auditRepo.createTx(ctx, tx, audit); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, mapConflict("transition commit", fmt.Errorf("failed to commit transition: %w", err))
	}

	span.SetStatus(codes.Ok, "")
	return booking, nil
}
