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

// PostgresInventoryRepository implements InventoryRepository using PostgreSQL
// row locks. Mutual exclusion lives entirely in the database so it holds
// across server processes.
type PostgresInventoryRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresInventoryRepository creates a new PostgresInventoryRepository
func NewPostgresInventoryRepository(pool *pgxpool.Pool) *PostgresInventoryRepository {
	return &PostgresInventoryRepository{pool: pool}
}

var _ InventoryRepository = (*PostgresInventoryRepository)(nil)

// EnsureRowsTx creates missing inventory rows for the given dates, seeded at
// full capacity. ON CONFLICT DO NOTHING makes concurrent seeding a no-op, so
// lazy creation and the background seeder can coexist.
func (r *PostgresInventoryRepository) EnsureRowsTx(ctx context.Context, tx pgx.Tx, roomCategoryID string, dates []time.Time, totalRooms int) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.ensure_rows")
	defer span.End()

	span.SetAttributes(
		attribute.String("room_category_id", roomCategoryID),
		attribute.Int("dates", len(dates)),
	)

	query := `
		INSERT INTO room_inventory (room_category_id, date, total_rooms, rooms_remaining, created_at, updated_at)
		SELECT $1, d, $3, $3, NOW(), NOW()
		FROM unnest($2::date[]) AS d
		ON CONFLICT (room_category_id, date) DO NOTHING
	`

	_, err := tx.Exec(ctx, query, roomCategoryID, toDateStrings(dates), totalRooms)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return mapConflict("inventory ensure", fmt.Errorf("failed to ensure inventory rows: %w", err))
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// LockRangeTx locks every date row in ascending date order and returns the
// availability snapshot under lock. All callers lock in the same order, so
// overlapping ranges serialize on their first shared date instead of
// deadlocking.
func (r *PostgresInventoryRepository) LockRangeTx(ctx context.Context, tx pgx.Tx, roomCategoryID string, dates []time.Time) ([]domain.DateAvailability, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.lock_range")
	defer span.End()

	span.SetAttributes(
		attribute.String("room_category_id", roomCategoryID),
		attribute.Int("dates", len(dates)),
	)

	query := `
		SELECT date, rooms_remaining, total_rooms
		FROM room_inventory
		WHERE room_category_id = $1 AND date = ANY($2::date[])
		ORDER BY date
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, roomCategoryID, toDateStrings(dates))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, mapConflict("inventory lock", fmt.Errorf("failed to lock inventory range: %w", err))
	}
	defer rows.Close()

	availability := make([]domain.DateAvailability, 0, len(dates))
	for rows.Next() {
		var a domain.DateAvailability
		if err := rows.Scan(&a.Date, &a.RoomsRemaining, &a.TotalRooms); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan inventory row: %w", err)
		}
		a.Date = domain.NormalizeDate(a.Date)
		availability = append(availability, a)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, mapConflict("inventory lock", fmt.Errorf("failed to read inventory rows: %w", err))
	}

	if len(availability) != len(dates) {
		// Rows must exist before locking; EnsureRowsTx was skipped
		span.SetStatus(codes.Error, "missing inventory rows")
		return nil, domain.ErrInventoryNotFound
	}

	span.SetStatus(codes.Ok, "")
	return availability, nil
}

// DecrementLockedTx subtracts rooms from every date row. It performs no
// locking of its own; the caller must hold the row locks from LockRangeTx in
// this same transaction.
func (r *PostgresInventoryRepository) DecrementLockedTx(ctx context.Context, tx pgx.Tx, roomCategoryID string, dates []time.Time, rooms int) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.decrement")
	defer span.End()

	span.SetAttributes(
		attribute.String("room_category_id", roomCategoryID),
		attribute.Int("dates", len(dates)),
		attribute.Int("rooms", rooms),
	)

	query := `
		UPDATE room_inventory
		SET rooms_remaining = rooms_remaining - $3, updated_at = NOW()
		WHERE room_category_id = $1 AND date = ANY($2::date[])
	`

	tag, err := tx.Exec(ctx, query, roomCategoryID, toDateStrings(dates), rooms)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return mapConflict("inventory decrement", fmt.Errorf("failed to decrement inventory: %w", err))
	}

	if int(tag.RowsAffected()) != len(dates) {
		span.SetStatus(codes.Error, "row count mismatch")
		return fmt.Errorf("inventory decrement touched %d of %d rows", tag.RowsAffected(), len(dates))
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// RestoreLockedTx adds rooms back to every date row, clamped at capacity so a
// double restore can never push rooms_remaining past total_rooms. The caller
// must hold the row locks.
func (r *PostgresInventoryRepository) RestoreLockedTx(ctx context.Context, tx pgx.Tx, roomCategoryID string, dates []time.Time, rooms int) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.restore")
	defer span.End()

	span.SetAttributes(
		attribute.String("room_category_id", roomCategoryID),
		attribute.Int("dates", len(dates)),
		attribute.Int("rooms", rooms),
	)

	query := `
		UPDATE room_inventory
		SET rooms_remaining = LEAST(total_rooms, rooms_remaining + $3), updated_at = NOW()
		WHERE room_category_id = $1 AND date = ANY($2::date[])
	`

	tag, err := tx.Exec(ctx, query, roomCategoryID, toDateStrings(dates), rooms)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return mapConflict("inventory restore", fmt.Errorf("failed to restore inventory: %w", err))
	}

	if int(tag.RowsAffected()) != len(dates) {
		span.SetStatus(codes.Error, "row count mismatch")
		return fmt.Errorf("inventory restore touched %d of %d rows", tag.RowsAffected(), len(dates))
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetAvailability reads the calendar for [from, to) without locks. Dates with
// no row yet are reported at full capacity.
func (r *PostgresInventoryRepository) GetAvailability(ctx context.Context, roomCategoryID string, from, to time.Time) ([]domain.DateAvailability, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.get_availability")
	defer span.End()

	span.SetAttributes(attribute.String("room_category_id", roomCategoryID))

	dates := domain.NightsBetween(from, to)
	if len(dates) == 0 {
		return nil, domain.ErrInvalidDateRange
	}

	query := `
		SELECT d::date, COALESCE(i.rooms_remaining, c.total_rooms), c.total_rooms
		FROM room_categories c
		CROSS JOIN unnest($2::date[]) AS d
		LEFT JOIN room_inventory i ON i.room_category_id = c.id AND i.date = d
		WHERE c.id = $1
		ORDER BY d
	`

	rows, err := r.pool.Query(ctx, query, roomCategoryID, toDateStrings(dates))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to query availability: %w", err)
	}
	defer rows.Close()

	availability := make([]domain.DateAvailability, 0, len(dates))
	for rows.Next() {
		var a domain.DateAvailability
		if err := rows.Scan(&a.Date, &a.RoomsRemaining, &a.TotalRooms); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan availability row: %w", err)
		}
		a.Date = domain.NormalizeDate(a.Date)
		availability = append(availability, a)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to read availability rows: %w", err)
	}

	if len(availability) == 0 {
		span.SetStatus(codes.Error, "not found")
		return nil, domain.ErrRoomCategoryNotFound
	}

	span.SetStatus(codes.Ok, "")
	return availability, nil
}

// toDateStrings renders dates for a ::date[] parameter
func toDateStrings(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(domain.DateLayout)
	}
	return out
}
