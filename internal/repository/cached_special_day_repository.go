package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/codeWith-akshay/hotel-booking-sub000/internal/domain"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/redis"
)

const (
	// Cache key prefixes
	ruleRangeKeyPrefix  = "special_day:range:"
	ruleDetailKeyPrefix = "special_day:detail:"

	// Short TTL so admin edits propagate quickly even without invalidation
	ruleCacheTTL = 2 * time.Minute
)

// CachedSpecialDayRepository wraps SpecialDayRuleRepository with Redis
// caching. Range lookups sit on the pricing hot path of every reservation;
// the underlying rules change rarely and only through the admin API, which
// invalidates on write.
type CachedSpecialDayRepository struct {
	repo  SpecialDayRuleRepository
	cache *redis.Client
}

// NewCachedSpecialDayRepository creates a new CachedSpecialDayRepository
func NewCachedSpecialDayRepository(repo SpecialDayRuleRepository, cache *redis.Client) *CachedSpecialDayRepository {
	return &CachedSpecialDayRepository{
		repo:  repo,
		cache: cache,
	}
}

var _ SpecialDayRuleRepository = (*CachedSpecialDayRepository)(nil)

// ListForRange retrieves applicable rules for a category and date range with caching
func (r *CachedSpecialDayRepository) ListForRange(ctx context.Context, roomCategoryID string, from, to time.Time) ([]domain.SpecialDayRule, error) {
	cacheKey := fmt.Sprintf("%s%s:%s:%s",
		ruleRangeKeyPrefix,
		roomCategoryID,
		domain.NormalizeDate(from).Format(domain.DateLayout),
		domain.NormalizeDate(to).Format(domain.DateLayout),
	)

	cached, err := r.cache.Get(ctx, cacheKey).Result()
	if err == nil && cached != "" {
		var rules []domain.SpecialDayRule
		if err := json.Unmarshal([]byte(cached), &rules); err == nil {
			return rules, nil
		}
	}

	rules, err := r.repo.ListForRange(ctx, roomCategoryID, from, to)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(rules); err == nil {
		r.cache.Set(ctx, cacheKey, string(data), ruleCacheTTL)
	}

	return rules, nil
}

// GetByID retrieves a rule by ID with caching
func (r *CachedSpecialDayRepository) GetByID(ctx context.Context, id string) (*domain.SpecialDayRule, error) {
	cacheKey := ruleDetailKeyPrefix + id

	cached, err := r.cache.Get(ctx, cacheKey).Result()
	if err == nil && cached != "" {
		var rule domain.SpecialDayRule
		if err := json.Unmarshal([]byte(cached), &rule); err == nil {
			return &rule, nil
		}
	}

	rule, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(rule); err == nil {
		r.cache.Set(ctx, cacheKey, string(data), ruleCacheTTL)
	}

	return rule, nil
}

// List passes through; admin listings are rare and paginated
func (r *CachedSpecialDayRepository) List(ctx context.Context, limit, offset int) ([]domain.SpecialDayRule, error) {
	return r.repo.List(ctx, limit, offset)
}

// Create persists a new rule and invalidates range caches
func (r *CachedSpecialDayRepository) Create(ctx context.Context, rule *domain.SpecialDayRule) error {
	if err := r.repo.Create(ctx, rule); err != nil {
		return err
	}
	r.invalidateRangeCaches(ctx)
	return nil
}

// Update replaces a rule and invalidates its caches
func (r *CachedSpecialDayRepository) Update(ctx context.Context, rule *domain.SpecialDayRule) error {
	if err := r.repo.Update(ctx, rule); err != nil {
		return err
	}
	r.cache.Del(ctx, ruleDetailKeyPrefix+rule.ID)
	r.invalidateRangeCaches(ctx)
	return nil
}

// Delete removes a rule and invalidates its caches
func (r *CachedSpecialDayRepository) Delete(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}
	r.cache.Del(ctx, ruleDetailKeyPrefix+id)
	r.invalidateRangeCaches(ctx)
	return nil
}

// invalidateRangeCaches drops all range caches. SCAN instead of KEYS so the
// walk never blocks Redis.
func (r *CachedSpecialDayRepository) invalidateRangeCaches(ctx context.Context) {
	iter := r.cache.Client().Scan(ctx, 0, ruleRangeKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		r.cache.Del(ctx, iter.Val())
	}
}
