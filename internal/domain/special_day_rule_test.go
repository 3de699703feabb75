package domain

import (
	"errors"
	"testing"
	"time"
)

func blockRule(id, date string, categoryID *string) SpecialDayRule {
	d, _ := time.Parse(DateLayout, date)
	return SpecialDayRule{
		ID:             id,
		Date:           d,
		RoomCategoryID: categoryID,
		RuleType:       RuleTypeBlocked,
		Reason:         "maintenance",
		Active:         true,
	}
}

func TestFirstBlockedNight(t *testing.T) {
	otherCategory := "cat-other"
	booking := &Booking{
		RoomCategoryID: "cat-001",
		StartDate:      mustDate(t, "2031-05-01"),
		EndDate:        mustDate(t, "2031-05-04"),
	}

	tests := []struct {
		name        string
		rules       []SpecialDayRule
		wantBlocked string
	}{
		{
			name: "category-wide block on a stay night",
			rules: []SpecialDayRule{
				blockRule("rule-1", "2031-05-02", nil),
			},
			wantBlocked: "2031-05-02",
		},
		{
			name: "earliest blocked night wins",
			rules: []SpecialDayRule{
				blockRule("rule-1", "2031-05-03", nil),
				blockRule("rule-2", "2031-05-01", nil),
			},
			wantBlocked: "2031-05-01",
		},
		{
			name: "block on checkout day does not apply",
			rules: []SpecialDayRule{
				blockRule("rule-1", "2031-05-04", nil),
			},
		},
		{
			name: "block scoped to another category does not apply",
			rules: []SpecialDayRule{
				blockRule("rule-1", "2031-05-02", &otherCategory),
			},
		},
		{
			name: "inactive block does not apply",
			rules: []SpecialDayRule{
				func() SpecialDayRule {
					r := blockRule("rule-1", "2031-05-02", nil)
					r.Active = false
					return r
				}(),
			},
		},
		{
			name: "rate override never blocks",
			rules: []SpecialDayRule{
				func() SpecialDayRule {
					r := blockRule("rule-1", "2031-05-02", nil)
					r.RuleType = RuleTypeRateOverride
					r.RateType = RateTypePercent
					r.RateValue = 50
					return r
				}(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FirstBlockedNight(tt.rules, booking)

			if tt.wantBlocked == "" {
				if err != nil {
					t.Errorf("FirstBlockedNight() = %v, want nil", err)
				}
				return
			}

			var blocked *BlockedDateError
			if !errors.As(err, &blocked) {
				t.Fatalf("FirstBlockedNight() = %v, want BlockedDateError", err)
			}
			if got := blocked.Date.Format(DateLayout); got != tt.wantBlocked {
				t.Errorf("blocked date = %s, want %s", got, tt.wantBlocked)
			}
		})
	}
}
