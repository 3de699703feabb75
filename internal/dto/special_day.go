package dto

import (
	"time"

	"github.com/codeWith-akshay/hotel-booking-sub000/internal/domain"
)

// CreateSpecialDayRuleRequest represents a request to create a special day rule
type CreateSpecialDayRuleRequest struct {
	Date           string  `json:"date" binding:"required"`
	RoomCategoryID *string `json:"room_category_id,omitempty"`
	RuleType       string  `json:"rule_type" binding:"required,oneof=rate_override blocked"`
	RateType       string  `json:"rate_type,omitempty"`
	RateValue      int64   `json:"rate_value,omitempty"`
	Reason         string  `json:"reason,omitempty"`
	Active         *bool   `json:"active,omitempty"`
}

// UpdateSpecialDayRuleRequest represents a request to update a special day rule
type UpdateSpecialDayRuleRequest struct {
	Date           string  `json:"date" binding:"required"`
	RoomCategoryID *string `json:"room_category_id,omitempty"`
	RuleType       string  `json:"rule_type" binding:"required,oneof=rate_override blocked"`
	RateType       string  `json:"rate_type,omitempty"`
	RateValue      int64   `json:"rate_value,omitempty"`
	Reason         string  `json:"reason,omitempty"`
	Active         *bool   `json:"active,omitempty"`
}

// SpecialDayRuleResponse represents a special day rule in API responses
type SpecialDayRuleResponse struct {
	ID             string    `json:"id"`
	Date           string    `json:"date"`
	RoomCategoryID *string   `json:"room_category_id,omitempty"`
	RuleType       string    `json:"rule_type"`
	RateType       string    `json:"rate_type,omitempty"`
	RateValue      int64     `json:"rate_value,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RuleFromDomain converts a domain SpecialDayRule to a SpecialDayRuleResponse
func RuleFromDomain(r *domain.SpecialDayRule) *SpecialDayRuleResponse {
	return &SpecialDayRuleResponse{
		ID:             r.ID,
		Date:           r.Date.Format(domain.DateLayout),
		RoomCategoryID: r.RoomCategoryID,
		RuleType:       string(r.RuleType),
		RateType:       string(r.RateType),
		RateValue:      r.RateValue,
		Reason:         r.Reason,
		Active:         r.Active,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
