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

// PostgresRoomCategoryRepository implements RoomCategoryRepository using PostgreSQL
type PostgresRoomCategoryRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRoomCategoryRepository creates a new PostgresRoomCategoryRepository
func NewPostgresRoomCategoryRepository(pool *pgxpool.Pool) *PostgresRoomCategoryRepository {
	return &PostgresRoomCategoryRepository{pool: pool}
}

var _ RoomCategoryRepository = (*PostgresRoomCategoryRepository)(nil)

// GetByID retrieves a room category by its ID
func (r *PostgresRoomCategoryRepository) GetByID(ctx context.Context, id string) (*domain.RoomCategory, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.room_category.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("room_category_id", id))

	query := `
		SELECT id, name, total_rooms, price_per_night, currency, active, created_at, updated_at
		FROM room_categories
		WHERE id = $1
	`

	category := &domain.RoomCategory{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.TotalRooms,
		&category.PricePerNight,
		&category.Currency,
		&category.Active,
		&category.CreatedAt,
		&category.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrRoomCategoryNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get room category: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return category, nil
}

// ListActive retrieves all active room categories
func (r *PostgresRoomCategoryRepository) ListActive(ctx context.Context) ([]*domain.RoomCategory, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.room_category.list_active")
	defer span.End()

	query := `
		SELECT id, name, total_rooms, price_per_night, currency, active, created_at, updated_at
		FROM room_categories
		WHERE active
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list room categories: %w", err)
	}
	defer rows.Close()

	var categories []*domain.RoomCategory
	for rows.Next() {
		category := &domain.RoomCategory{}
		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.TotalRooms,
			&category.PricePerNight,
			&category.Currency,
			&category.Active,
			&category.CreatedAt,
			&category.UpdatedAt,
		); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan room category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to read room categories: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return categories, nil
}
