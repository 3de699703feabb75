package pricing

import (
	"time"

	"github.com/codeWith-akshay/hotel-booking-sub000/internal/domain"
)

// Policy contains the group-booking deposit policy
type Policy struct {
	// GroupMinRooms is the room count at which a booking becomes a group
	// booking and requires a deposit
	GroupMinRooms int
	// DepositPercent is the deposit as a percentage of the total price
	DepositPercent int64
}

// DefaultPolicy returns the default deposit policy
func DefaultPolicy() *Policy {
	return &Policy{
		GroupMinRooms:  10,
		DepositPercent: 20,
	}
}

// NightlyRate is one night's resolved price in minor units, per room
type NightlyRate struct {
	Date   time.Time `json:"date"`
	Rate   int64     `json:"rate"`
	RuleID string    `json:"rule_id,omitempty"`
}

// Quote is the result of pricing a reservation request. Pricing always
// completes even when the range is blocked, so the caller can report why.
type Quote struct {
	TotalPrice      int64         `json:"total_price"`
	Currency        string        `json:"currency"`
	Nights          []NightlyRate `json:"nights"`
	RequiresDeposit bool          `json:"requires_deposit"`
	DepositAmount   int64         `json:"deposit_amount"`
	Blocked         bool          `json:"blocked"`
	BlockedDate     time.Time     `json:"blocked_date,omitempty"`
	BlockedReason   string        `json:"blocked_reason,omitempty"`
}

// Compute prices a reservation over the half-open range [startDate, endDate).
// Pure function of its inputs and the rules snapshot; it takes no locks and
// performs no I/O, so it runs before the contended critical section.
func Compute(category *domain.RoomCategory, startDate, endDate time.Time, roomsBooked int, rules []domain.SpecialDayRule, policy *Policy) (*Quote, error) {
	if policy == nil {
		policy = DefaultPolicy()
	}

	nights := domain.NightsBetween(startDate, endDate)
	if len(nights) == 0 {
		return nil, domain.ErrInvalidDateRange
	}
	if roomsBooked < 1 {
		return nil, domain.ErrInvalidRoomsBooked
	}

	quote := &Quote{
		Currency: category.Currency,
		Nights:   make([]NightlyRate, 0, len(nights)),
	}

	var total int64
	for _, night := range nights {
		if !quote.Blocked {
			if rule := matchRule(rules, night, category.ID, domain.RuleTypeBlocked); rule != nil {
				quote.Blocked = true
				quote.BlockedDate = night
				quote.BlockedReason = rule.Reason
			}
		}

		rate := category.PricePerNight
		ruleID := ""
		if rule := matchRule(rules, night, category.ID, domain.RuleTypeRateOverride); rule != nil {
			rate = applyRate(category.PricePerNight, rule)
			ruleID = rule.ID
		}

		quote.Nights = append(quote.Nights, NightlyRate{Date: night, Rate: rate, RuleID: ruleID})
		total += rate * int64(roomsBooked)
	}

	quote.TotalPrice = total

	if roomsBooked >= policy.GroupMinRooms {
		quote.RequiresDeposit = true
		quote.DepositAmount = divRound(total*policy.DepositPercent, 100)
	}

	return quote, nil
}

// matchRule selects the rule of the given type matching one night. A rule
// scoped to the category wins over a category-wide rule on the same date.
func matchRule(rules []domain.SpecialDayRule, night time.Time, roomCategoryID string, ruleType domain.SpecialDayRuleType) *domain.SpecialDayRule {
	var match *domain.SpecialDayRule
	for i := range rules {
		r := &rules[i]
		if r.RuleType != ruleType || !domain.SameDate(r.Date, night) || !r.AppliesTo(roomCategoryID) {
			continue
		}
		if r.IsCategorySpecific() {
			return r
		}
		if match == nil {
			match = r
		}
	}
	return match
}

// applyRate resolves a rate_override rule against the base nightly rate
func applyRate(base int64, rule *domain.SpecialDayRule) int64 {
	switch rule.RateType {
	case domain.RateTypeFlat:
		return rule.RateValue
	case domain.RateTypePercent:
		adjusted := divRound(base*(100+rule.RateValue), 100)
		if adjusted < 0 {
			return 0
		}
		return adjusted
	default:
		return base
	}
}

// divRound divides n by d rounding to the nearest integer, ties away from
// zero. d must be positive.
func divRound(n, d int64) int64 {
	q := n / d
	r := n % d
	if r < 0 {
		r = -r
	}
	if 2*r >= d {
		if n < 0 {
			return q - 1
		}
		return q + 1
	}
	return q
}
