package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/codeWith-akshay/hotel-booking-sub000/internal/domain"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/telemetry"
)

// PostgresIdempotencyRepository implements IdempotencyRepository using PostgreSQL
type PostgresIdempotencyRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresIdempotencyRepository creates a new PostgresIdempotencyRepository
func NewPostgresIdempotencyRepository(pool *pgxpool.Pool) *PostgresIdempotencyRepository {
	return &PostgresIdempotencyRepository{pool: pool}
}

var _ IdempotencyRepository = (*PostgresIdempotencyRepository)(nil)

// Find looks up an idempotency key. Read-only and lock-free, so the
// pre-check runs before any contended work begins.
func (r *PostgresIdempotencyRepository) Find(ctx context.Context, key string) (*domain.IdempotencyKey, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.idempotency.find")
	defer span.End()

	span.SetAttributes(attribute.String("idempotency_key", key))

	query := `
		SELECT key, booking_id, fingerprint, created_at
		FROM idempotency_keys
		WHERE key = $1
	`

	record := &domain.IdempotencyKey{}
	err := r.pool.QueryRow(ctx, query, key).Scan(
		&record.Key,
		&record.BookingID,
		&record.Fingerprint,
		&record.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "miss")
			return nil, domain.ErrIdempotencyKeyNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to find idempotency key: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return record, nil
}

// createTx inserts the key inside the same transaction that creates the
// booking. A unique violation means another request won the race; the caller
// rolls back, re-queries and replays the winner's booking.
func (r *PostgresIdempotencyRepository) createTx(ctx context.Context, tx pgx.Tx, record *domain.IdempotencyKey) error {
	query := `
		INSERT INTO idempotency_keys (key, booking_id, fingerprint, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := tx.Exec(ctx, query, record.Key, record.BookingID, record.Fingerprint, record.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrIdempotencyKeyExists
		}
		return fmt.Errorf("failed to create idempotency key: %w", err)
	}

	return nil
}
