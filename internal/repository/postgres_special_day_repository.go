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

const specialDayColumns = `
	id, date, room_category_id, rule_type, rate_type, rate_value, reason,
	active, created_at, updated_at
`

// PostgresSpecialDayRepository implements SpecialDayRuleRepository using PostgreSQL
type PostgresSpecialDayRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSpecialDayRepository creates a new PostgresSpecialDayRepository
func NewPostgresSpecialDayRepository(pool *pgxpool.Pool) *PostgresSpecialDayRepository {
	return &PostgresSpecialDayRepository{pool: pool}
}

var _ SpecialDayRuleRepository = (*PostgresSpecialDayRepository)(nil)

// ListForRange retrieves active rules in [from, to) that apply to the
// category, either category-specific or category-wide.
func (r *PostgresSpecialDayRepository) ListForRange(ctx context.Context, roomCategoryID string, from, to time.Time) ([]domain.SpecialDayRule, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.special_day.list_for_range")
	defer span.End()

	span.SetAttributes(attribute.String("room_category_id", roomCategoryID))

	query := `
		SELECT ` + specialDayColumns + `
		FROM special_day_rules
		WHERE active
		  AND date >= $2 AND date < $3
		  AND (room_category_id IS NULL OR room_category_id = $1)
		ORDER BY date
	`

	rows, err := r.pool.Query(ctx, query, roomCategoryID, domain.NormalizeDate(from), domain.NormalizeDate(to))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list special day rules: %w", err)
	}
	defer rows.Close()

	rules, err := collectRules(rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return rules, nil
}

// listForRangeTx is ListForRange running on a caller-owned transaction, so
// the rule snapshot is taken inside that transaction rather than before it.
func (r *PostgresSpecialDayRepository) listForRangeTx(ctx context.Context, tx pgx.Tx, roomCategoryID string, from, to time.Time) ([]domain.SpecialDayRule, error) {
	query := `
		SELECT ` + specialDayColumns + `
		FROM special_day_rules
		WHERE active
		  AND date >= $2 AND date < $3
		  AND (room_category_id IS NULL OR room_category_id = $1)
		ORDER BY date
	`

	rows, err := tx.Query(ctx, query, roomCategoryID, domain.NormalizeDate(from), domain.NormalizeDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list special day rules: %w", err)
	}
	defer rows.Close()

	return collectRules(rows)
}

// GetByID retrieves a rule by its ID
func (r *PostgresSpecialDayRepository) GetByID(ctx context.Context, id string) (*domain.SpecialDayRule, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.special_day.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("rule_id", id))

	query := `SELECT ` + specialDayColumns + ` FROM special_day_rules WHERE id = $1`

	rule, err := scanRule(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrSpecialDayRuleNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get special day rule: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return rule, nil
}

// List retrieves rules ordered by date descending
func (r *PostgresSpecialDayRepository) List(ctx context.Context, limit, offset int) ([]domain.SpecialDayRule, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.special_day.list")
	defer span.End()

	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + specialDayColumns + `
		FROM special_day_rules
		ORDER BY date DESC, created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list special day rules: %w", err)
	}
	defer rows.Close()

	rules, err := collectRules(rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return rules, nil
}

// Create persists a new rule
func (r *PostgresSpecialDayRepository) Create(ctx context.Context, rule *domain.SpecialDayRule) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.special_day.create")
	defer span.End()

	span.SetAttributes(attribute.String("rule_id", rule.ID))

	query := `
		INSERT INTO special_day_rules (
			id, date, room_category_id, rule_type, rate_type, rate_value,
			reason, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		rule.ID,
		rule.Date,
		rule.RoomCategoryID,
		string(rule.RuleType),
		nullString(string(rule.RateType)),
		rule.RateValue,
		nullString(rule.Reason),
		rule.Active,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create special day rule: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Update replaces a rule's mutable fields
func (r *PostgresSpecialDayRepository) Update(ctx context.Context, rule *domain.SpecialDayRule) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.special_day.update")
	defer span.End()

	span.SetAttributes(attribute.String("rule_id", rule.ID))

	query := `
		UPDATE special_day_rules
		SET date = $2, room_category_id = $3, rule_type = $4, rate_type = $5,
		    rate_value = $6, reason = $7, active = $8, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		rule.ID,
		rule.Date,
		rule.RoomCategoryID,
		string(rule.RuleType),
		nullString(string(rule.RateType)),
		rule.RateValue,
		nullString(rule.Reason),
		rule.Active,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to update special day rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrSpecialDayRuleNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Delete removes a rule
func (r *PostgresSpecialDayRepository) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.special_day.delete")
	defer span.End()

	span.SetAttributes(attribute.String("rule_id", id))

	tag, err := r.pool.Exec(ctx, `DELETE FROM special_day_rules WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to delete special day rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrSpecialDayRuleNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// scanRule scans one rule row
func scanRule(row rowScanner) (*domain.SpecialDayRule, error) {
	rule := &domain.SpecialDayRule{}
	var (
		ruleType string
		rateType *string
		reason   *string
	)

	err := row.Scan(
		&rule.ID,
		&rule.Date,
		&rule.RoomCategoryID,
		&ruleType,
		&rateType,
		&rule.RateValue,
		&reason,
		&rule.Active,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.Date = domain.NormalizeDate(rule.Date)
	rule.RuleType = domain.SpecialDayRuleType(ruleType)
	if rateType != nil {
		rule.RateType = domain.SpecialDayRateType(*rateType)
	}
	if reason != nil {
		rule.Reason = *reason
	}

	return rule, nil
}

// collectRules scans all rows from a rule query
func collectRules(rows pgx.Rows) ([]domain.SpecialDayRule, error) {
	var rules []domain.SpecialDayRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan special day rule: %w", err)
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read special day rules: %w", err)
	}
	return rules, nil
}
