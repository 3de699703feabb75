package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/codeWith-akshay/hotel-booking-sub000/internal/domain"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/dto"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/repository"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/telemetry"
)

// SpecialDayService defines the admin interface for special day rules
type SpecialDayService interface {
	// CreateRule creates a new special day rule
	CreateRule(ctx context.Context, actor Actor, req *dto.CreateSpecialDayRuleRequest) (*dto.SpecialDayRuleResponse, error)

	// UpdateRule replaces a rule's fields
	UpdateRule(ctx context.Context, actor Actor, ruleID string, req *dto.UpdateSpecialDayRuleRequest) (*dto.SpecialDayRuleResponse, error)

	// DeleteRule removes a rule
	DeleteRule(ctx context.Context, actor Actor, ruleID string) error

	// GetRule retrieves a rule by ID
	GetRule(ctx context.Context, actor Actor, ruleID string) (*dto.SpecialDayRuleResponse, error)

	// ListRules retrieves rules, newest date first
	ListRules(ctx context.Context, actor Actor, limit, offset int) ([]*dto.SpecialDayRuleResponse, error)
}

// specialDayService implements SpecialDayService
type specialDayService struct {
	ruleRepo     repository.SpecialDayRuleRepository
	categoryRepo repository.RoomCategoryRepository
}

// NewSpecialDayService creates a new special day service
func NewSpecialDayService(ruleRepo repository.SpecialDayRuleRepository, categoryRepo repository.RoomCategoryRepository) SpecialDayService {
	return &specialDayService{
		ruleRepo:     ruleRepo,
		categoryRepo: categoryRepo,
	}
}

// CreateRule creates a new special day rule. Rules take effect for new
// reservations only; existing bookings keep the price they were quoted.
func (s *specialDayService) CreateRule(ctx context.Context, actor Actor, req *dto.CreateSpecialDayRuleRequest) (*dto.SpecialDayRuleResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.special_day.create")
	defer span.End()

	if !actor.Staff {
		span.SetStatus(codes.Error, "not staff")
		return nil, domain.ErrUnauthorized
	}
	if req == nil {
		span.SetStatus(codes.Error, "invalid rule")
		return nil, domain.ErrInvalidSpecialDayRule
	}

	date, err := domain.ParseDate(req.Date)
	if err != nil {
		span.SetStatus(codes.Error, "invalid date")
		return nil, domain.ErrInvalidSpecialDayRule
	}

	if err := s.checkCategory(ctx, req.RoomCategoryID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	rule, err := domain.NewSpecialDayRule(
		date,
		req.RoomCategoryID,
		domain.SpecialDayRuleType(req.RuleType),
		domain.SpecialDayRateType(req.RateType),
		req.RateValue,
		req.Reason,
	)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if req.Active != nil {
		rule.Active = *req.Active
	}

	span.SetAttributes(
		attribute.String("rule_id", rule.ID),
		attribute.String("rule_type", string(rule.RuleType)),
		attribute.String("date", req.Date),
	)

	if err := s.ruleRepo.Create(ctx, rule); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.RuleFromDomain(rule), nil
}

// UpdateRule replaces a rule's fields
func (s *specialDayService) UpdateRule(ctx context.Context, actor Actor, ruleID string, req *dto.UpdateSpecialDayRuleRequest) (*dto.SpecialDayRuleResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.special_day.update")
	defer span.End()

	span.SetAttributes(attribute.String("rule_id", ruleID))

	if !actor.Staff {
		span.SetStatus(codes.Error, "not staff")
		return nil, domain.ErrUnauthorized
	}
	if req == nil {
		span.SetStatus(codes.Error, "invalid rule")
		return nil, domain.ErrInvalidSpecialDayRule
	}

	rule, err := s.ruleRepo.GetByID(ctx, ruleID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	date, err := domain.ParseDate(req.Date)
	if err != nil {
		span.SetStatus(codes.Error, "invalid date")
		return nil, domain.ErrInvalidSpecialDayRule
	}

	if err := s.checkCategory(ctx, req.RoomCategoryID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	rule.Date = domain.NormalizeDate(date)
	rule.RoomCategoryID = req.RoomCategoryID
	rule.RuleType = domain.SpecialDayRuleType(req.RuleType)
	rule.RateType = domain.SpecialDayRateType(req.RateType)
	rule.RateValue = req.RateValue
	rule.Reason = req.Reason
	if req.Active != nil {
		rule.Active = *req.Active
	}

	if err := rule.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.ruleRepo.Update(ctx, rule); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.RuleFromDomain(rule), nil
}

// DeleteRule removes a rule
func (s *specialDayService) DeleteRule(ctx context.Context, actor Actor, ruleID string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.special_day.delete")
	defer span.End()

	span.SetAttributes(attribute.String("rule_id", ruleID))

	if !actor.Staff {
		span.SetStatus(codes.Error, "not staff")
		return domain.ErrUnauthorized
	}

	if err := s.ruleRepo.Delete(ctx, ruleID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetRule retrieves a rule by ID
func (s *specialDayService) GetRule(ctx context.Context, actor Actor, ruleID string) (*dto.SpecialDayRuleResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.special_day.get")
	defer span.End()

	span.SetAttributes(attribute.String("rule_id", ruleID))

	if !actor.Staff {
		span.SetStatus(codes.Error, "not staff")
		return nil, domain.ErrUnauthorized
	}

	rule, err := s.ruleRepo.GetByID(ctx, ruleID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.RuleFromDomain(rule), nil
}

// ListRules retrieves rules, newest date first
func (s *specialDayService) ListRules(ctx context.Context, actor Actor, limit, offset int) ([]*dto.SpecialDayRuleResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.special_day.list")
	defer span.End()

	if !actor.Staff {
		span.SetStatus(codes.Error, "not staff")
		return nil, domain.ErrUnauthorized
	}

	rules, err := s.ruleRepo.List(ctx, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	responses := make([]*dto.SpecialDayRuleResponse, len(rules))
	for i := range rules {
		responses[i] = dto.RuleFromDomain(&rules[i])
	}

	span.SetAttributes(attribute.Int("count", len(responses)))
	span.SetStatus(codes.Ok, "")
	return responses, nil
}

// checkCategory verifies a category-scoped rule references a real category
func (s *specialDayService) checkCategory(ctx context.Context, roomCategoryID *string) error {
	if roomCategoryID == nil {
		return nil
	}
	if *roomCategoryID == "" {
		return domain.ErrInvalidRoomCategoryID
	}
	_, err := s.categoryRepo.GetByID(ctx, *roomCategoryID)
	return err
}
