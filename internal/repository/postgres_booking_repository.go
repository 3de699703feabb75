package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/codeWith-akshay/hotel-booking-sub000/internal/domain"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/telemetry"
)

const bookingColumns = `
	id, user_id, room_category_id, start_date, end_date, rooms_booked,
	status, total_price, deposit_amount, is_deposit_paid, status_reason,
	created_at, updated_at
`

// PostgresBookingRepository implements BookingRepository using PostgreSQL with pgxpool
type PostgresBookingRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresBookingRepository creates a new PostgresBookingRepository
func NewPostgresBookingRepository(pool *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{pool: pool}
}

var _ BookingRepository = (*PostgresBookingRepository)(nil)

// GetByID retrieves a booking by its ID
func (r *PostgresBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", id))

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrBookingNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return booking, nil
}

// ListByUser retrieves a user's bookings, newest first
func (r *PostgresBookingRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.list_by_user")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings, err := collectBookings(rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return bookings, nil
}

// ListDepositExpired retrieves provisional bookings created before the cutoff
// that still have an unpaid deposit. Fed to the expiry worker.
func (r *PostgresBookingRepository) ListDepositExpired(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.list_deposit_expired")
	defer span.End()

	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = $1
		  AND deposit_amount IS NOT NULL
		  AND NOT is_deposit_paid
		  AND created_at < $2
		ORDER BY created_at
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, domain.BookingStatusProvisional.String(), cutoff, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list deposit-expired bookings: %w", err)
	}
	defer rows.Close()

	bookings, err := collectBookings(rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return bookings, nil
}

// createTx inserts a booking inside a caller-owned transaction
func (r *PostgresBookingRepository) createTx(ctx context.Context, tx pgx.Tx, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (
			id, user_id, room_category_id, start_date, end_date, rooms_booked,
			status, total_price, deposit_amount, is_deposit_paid, status_reason,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13
		)
	`

	_, err := tx.Exec(ctx, query,
		booking.ID,
		booking.UserID,
		booking.RoomCategoryID,
		booking.StartDate,
		booking.EndDate,
		booking.RoomsBooked,
		booking.Status.String(),
		booking.TotalPrice,
		booking.DepositAmount,
		booking.IsDepositPaid,
		nullString(booking.StatusReason),
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

// getForUpdateTx locks the booking row for the rest of the transaction
func (r *PostgresBookingRepository) getForUpdateTx(ctx context.Context, tx pgx.Tx, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`

	booking, err := scanBooking(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, mapConflict("booking lock", fmt.Errorf("failed to lock booking: %w", err))
	}
	return booking, nil
}

// updateTx writes a booking's mutable fields inside a caller-owned transaction
func (r *PostgresBookingRepository) updateTx(ctx context.Context, tx pgx.Tx, booking *domain.Booking) error {
	query := `
		UPDATE bookings
		SET status = $2, status_reason = $3, is_deposit_paid = $4, updated_at = $5
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query,
		booking.ID,
		booking.Status.String(),
		nullString(booking.StatusReason),
		booking.IsDepositPaid,
		booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanBooking scans one booking row
func scanBooking(row rowScanner) (*domain.Booking, error) {
	booking := &domain.Booking{}
	var (
		status       string
		statusReason *string
	)

	err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.RoomCategoryID,
		&booking.StartDate,
		&booking.EndDate,
		&booking.RoomsBooked,
		&status,
		&booking.TotalPrice,
		&booking.DepositAmount,
		&booking.IsDepositPaid,
		&statusReason,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.Status = domain.BookingStatus(status)
	booking.StartDate = domain.NormalizeDate(booking.StartDate)
	booking.EndDate = domain.NormalizeDate(booking.EndDate)
	if statusReason != nil {
		booking.StatusReason = *statusReason
	}

	return booking, nil
}

// collectBookings scans all rows from a booking query
func collectBookings(rows pgx.Rows) ([]*domain.Booking, error) {
	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bookings: %w", err)
	}
	return bookings, nil
}

// nullString converts an empty string to nil for nullable columns
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
