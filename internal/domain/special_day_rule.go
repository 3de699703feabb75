package domain

import (
	"time"

	"github.com/google/uuid"
)

// SpecialDayRuleType distinguishes rate overrides from hard blocks
type SpecialDayRuleType string

const (
	RuleTypeRateOverride SpecialDayRuleType = "rate_override"
	RuleTypeBlocked      SpecialDayRuleType = "blocked"
)

// IsValid checks if the rule type is valid
func (t SpecialDayRuleType) IsValid() bool {
	return t == RuleTypeRateOverride || t == RuleTypeBlocked
}

// SpecialDayRateType controls how a rate_override rule adjusts the base rate
type SpecialDayRateType string

const (
	// RateTypeFlat replaces the nightly rate with RateValue (minor units)
	RateTypeFlat SpecialDayRateType = "flat"
	// RateTypePercent adjusts the base rate by RateValue percent, signed
	RateTypePercent SpecialDayRateType = "percent"
)

// IsValid checks if the rate type is valid
func (t SpecialDayRateType) IsValid() bool {
	return t == RateTypeFlat || t == RateTypePercent
}

// SpecialDayRule is an admin-defined override for one calendar date. A nil
// RoomCategoryID applies the rule to every category; a room-specific rule
// takes precedence over a category-wide one on the same date.
type SpecialDayRule struct {
	ID             string             `json:"id"`
	Date           time.Time          `json:"date"`
	RoomCategoryID *string            `json:"room_category_id,omitempty"`
	RuleType       SpecialDayRuleType `json:"rule_type"`
	RateType       SpecialDayRateType `json:"rate_type,omitempty"`
	RateValue      int64              `json:"rate_value,omitempty"`
	Reason         string             `json:"reason,omitempty"`
	Active         bool               `json:"active"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// NewSpecialDayRule creates a validated special day rule
func NewSpecialDayRule(date time.Time, roomCategoryID *string, ruleType SpecialDayRuleType, rateType SpecialDayRateType, rateValue int64, reason string) (*SpecialDayRule, error) {
	r := &SpecialDayRule{
		ID:             uuid.New().String(),
		Date:           NormalizeDate(date),
		RoomCategoryID: roomCategoryID,
		RuleType:       ruleType,
		RateType:       rateType,
		RateValue:      rateValue,
		Reason:         reason,
		Active:         true,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	return r, nil
}

// Validate checks the rule's field invariants
func (r *SpecialDayRule) Validate() error {
	if !r.RuleType.IsValid() {
		return ErrInvalidSpecialDayRule
	}
	if r.RuleType == RuleTypeRateOverride {
		if !r.RateType.IsValid() {
			return ErrInvalidSpecialDayRule
		}
		if r.RateType == RateTypeFlat && r.RateValue < 0 {
			return ErrInvalidSpecialDayRule
		}
	}
	if r.RoomCategoryID != nil && *r.RoomCategoryID == "" {
		return ErrInvalidRoomCategoryID
	}
	return nil
}

// AppliesTo reports whether the rule covers the given category on its date
func (r *SpecialDayRule) AppliesTo(roomCategoryID string) bool {
	if !r.Active {
		return false
	}
	return r.RoomCategoryID == nil || *r.RoomCategoryID == roomCategoryID
}

// IsCategorySpecific reports whether the rule targets a single category
func (r *SpecialDayRule) IsCategorySpecific() bool {
	return r.RoomCategoryID != nil
}

// FirstBlockedNight returns a BlockedDateError for the earliest night of the
// booking covered by an active blocked rule, or nil when none applies.
func FirstBlockedNight(rules []SpecialDayRule, b *Booking) error {
	for _, night := range b.Nights() {
		for i := range rules {
			r := &rules[i]
			if r.RuleType == RuleTypeBlocked && SameDate(r.Date, night) && r.AppliesTo(b.RoomCategoryID) {
				return &BlockedDateError{Date: night, Reason: r.Reason}
			}
		}
	}
	return nil
}
