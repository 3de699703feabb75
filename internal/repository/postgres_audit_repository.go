package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/codeWith-akshay/hotel-booking-sub000/internal/domain"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/telemetry"
)

// PostgresAuditRepository implements AuditLogRepository using PostgreSQL.
// The table is append-only; there is no update or delete path.
type PostgresAuditRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAuditRepository creates a new PostgresAuditRepository
func NewPostgresAuditRepository(pool *pgxpool.Pool) *PostgresAuditRepository {
	return &PostgresAuditRepository{pool: pool}
}

var _ AuditLogRepository = (*PostgresAuditRepository)(nil)

// ListByBooking retrieves a booking's audit trail, oldest first
func (r *PostgresAuditRepository) ListByBooking(ctx context.Context, bookingID string) ([]*domain.BookingAuditLog, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.audit.list_by_booking")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", bookingID))

	query := `
		SELECT id, booking_id, actor_id, action, metadata, created_at
		FROM booking_audit_logs
		WHERE booking_id = $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, bookingID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	var entries []*domain.BookingAuditLog
	for rows.Next() {
		entry := &domain.BookingAuditLog{}
		var action string
		var metadata []byte
		if err := rows.Scan(&entry.ID, &entry.BookingID, &entry.ActorID, &action, &metadata, &entry.CreatedAt); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		entry.Action = domain.AuditAction(action)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, fmt.Errorf("failed to decode audit metadata: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to read audit logs: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return entries, nil
}

// createTx appends one audit entry inside a caller-owned transaction
func (r *PostgresAuditRepository) createTx(ctx context.Context, tx pgx.Tx, entry *domain.BookingAuditLog) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode audit metadata: %w", err)
	}

	query := `
		INSERT INTO booking_audit_logs (id, booking_id, actor_id, action, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = tx.Exec(ctx, query, entry.ID, entry.BookingID, entry.ActorID, string(entry.Action), metadata, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	return nil
}
