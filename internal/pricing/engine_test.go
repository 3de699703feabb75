package pricing

import (
	"errors"
	"testing"
	"time"

	"github.com/codeWith-akshay/hotel-booking-sub000/internal/domain"
)

func date(s string) time.Time {
	t, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func strPtr(s string) *string {
	return &s
}

func testCategory() *domain.RoomCategory {
	return &domain.RoomCategory{
		ID:            "cat-deluxe",
		Name:          "Deluxe",
		TotalRooms:    20,
		PricePerNight: 150000, // 1500.00 in minor units
		Currency:      "USD",
		Active:        true,
	}
}

func TestCompute_BaseRate(t *testing.T) {
	quote, err := Compute(testCategory(), date("2025-06-01"), date("2025-06-04"), 2, nil, nil)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if len(quote.Nights) != 3 {
		t.Fatalf("expected 3 nights, got %d", len(quote.Nights))
	}
	if want := int64(150000 * 3 * 2); quote.TotalPrice != want {
		t.Errorf("TotalPrice = %d, want %d", quote.TotalPrice, want)
	}
	if quote.RequiresDeposit {
		t.Error("expected no deposit for 2 rooms")
	}
	if quote.Blocked {
		t.Error("expected range not blocked")
	}
}

func TestCompute_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		rooms   int
		wantErr error
	}{
		{"end before start", "2025-06-04", "2025-06-01", 1, domain.ErrInvalidDateRange},
		{"same day", "2025-06-01", "2025-06-01", 1, domain.ErrInvalidDateRange},
		{"zero rooms", "2025-06-01", "2025-06-02", 0, domain.ErrInvalidRoomsBooked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(testCategory(), date(tt.start), date(tt.end), tt.rooms, nil, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Compute() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCompute_RateOverrides(t *testing.T) {
	cat := testCategory()

	tests := []struct {
		name      string
		rules     []domain.SpecialDayRule
		wantTotal int64
	}{
		{
			name: "flat override replaces base rate",
			rules: []domain.SpecialDayRule{
				{ID: "r1", Date: date("2025-06-01"), RuleType: domain.RuleTypeRateOverride,
					RateType: domain.RateTypeFlat, RateValue: 200000, Active: true},
			},
			wantTotal: 200000 + 150000,
		},
		{
			name: "percent surcharge",
			rules: []domain.SpecialDayRule{
				{ID: "r1", Date: date("2025-06-01"), RuleType: domain.RuleTypeRateOverride,
					RateType: domain.RateTypePercent, RateValue: 50, Active: true},
			},
			wantTotal: 225000 + 150000,
		},
		{
			name: "percent discount",
			rules: []domain.SpecialDayRule{
				{ID: "r1", Date: date("2025-06-02"), RuleType: domain.RuleTypeRateOverride,
					RateType: domain.RateTypePercent, RateValue: -10, Active: true},
			},
			wantTotal: 150000 + 135000,
		},
		{
			name: "room-specific rule beats category-wide rule",
			rules: []domain.SpecialDayRule{
				{ID: "wide", Date: date("2025-06-01"), RuleType: domain.RuleTypeRateOverride,
					RateType: domain.RateTypeFlat, RateValue: 999999, Active: true},
				{ID: "specific", Date: date("2025-06-01"), RoomCategoryID: strPtr("cat-deluxe"),
					RuleType: domain.RuleTypeRateOverride, RateType: domain.RateTypeFlat,
					RateValue: 180000, Active: true},
			},
			wantTotal: 180000 + 150000,
		},
		{
			name: "rule for another category is ignored",
			rules: []domain.SpecialDayRule{
				{ID: "other", Date: date("2025-06-01"), RoomCategoryID: strPtr("cat-suite"),
					RuleType: domain.RuleTypeRateOverride, RateType: domain.RateTypeFlat,
					RateValue: 999999, Active: true},
			},
			wantTotal: 150000 + 150000,
		},
		{
			name: "inactive rule is ignored",
			rules: []domain.SpecialDayRule{
				{ID: "r1", Date: date("2025-06-01"), RuleType: domain.RuleTypeRateOverride,
					RateType: domain.RateTypeFlat, RateValue: 999999, Active: false},
			},
			wantTotal: 150000 + 150000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := Compute(cat, date("2025-06-01"), date("2025-06-03"), 1, tt.rules, nil)
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			if quote.TotalPrice != tt.wantTotal {
				t.Errorf("TotalPrice = %d, want %d", quote.TotalPrice, tt.wantTotal)
			}
		})
	}
}

func TestCompute_BlockedDate(t *testing.T) {
	rules := []domain.SpecialDayRule{
		{ID: "xmas", Date: date("2025-12-25"), RuleType: domain.RuleTypeBlocked,
			Reason: "closed for holiday", Active: true},
	}

	quote, err := Compute(testCategory(), date("2025-12-24"), date("2025-12-27"), 1, rules, nil)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if !quote.Blocked {
		t.Fatal("expected range to be blocked")
	}
	if !domain.SameDate(quote.BlockedDate, date("2025-12-25")) {
		t.Errorf("BlockedDate = %v, want 2025-12-25", quote.BlockedDate)
	}
	if quote.BlockedReason != "closed for holiday" {
		t.Errorf("BlockedReason = %q, want %q", quote.BlockedReason, "closed for holiday")
	}
	// Pricing still completes so the caller can show the full picture
	if quote.TotalPrice == 0 {
		t.Error("expected pricing to complete despite block")
	}
}

func TestCompute_GroupDeposit(t *testing.T) {
	quote, err := Compute(testCategory(), date("2025-06-01"), date("2025-06-03"), 10, nil, nil)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if !quote.RequiresDeposit {
		t.Fatal("expected deposit for 10 rooms")
	}
	// total = 150000 * 2 nights * 10 rooms = 3,000,000; 20% = 600,000
	if want := int64(600000); quote.DepositAmount != want {
		t.Errorf("DepositAmount = %d, want %d", quote.DepositAmount, want)
	}

	below, err := Compute(testCategory(), date("2025-06-01"), date("2025-06-03"), 9, nil, nil)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if below.RequiresDeposit {
		t.Error("expected no deposit below the group threshold")
	}
}

func TestCompute_Deterministic(t *testing.T) {
	rules := []domain.SpecialDayRule{
		{ID: "r1", Date: date("2025-06-01"), RuleType: domain.RuleTypeRateOverride,
			RateType: domain.RateTypePercent, RateValue: 15, Active: true},
	}

	first, err := Compute(testCategory(), date("2025-06-01"), date("2025-06-05"), 3, rules, nil)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	second, err := Compute(testCategory(), date("2025-06-01"), date("2025-06-05"), 3, rules, nil)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if first.TotalPrice != second.TotalPrice {
		t.Errorf("TotalPrice differs between identical calls: %d vs %d", first.TotalPrice, second.TotalPrice)
	}
	if first.DepositAmount != second.DepositAmount {
		t.Errorf("DepositAmount differs between identical calls: %d vs %d", first.DepositAmount, second.DepositAmount)
	}
}

func TestDivRound(t *testing.T) {
	tests := []struct {
		n, d, want int64
	}{
		{100, 3, 33},
		{200, 3, 67},
		{5, 2, 3},    // tie rounds away from zero
		{-5, 2, -3},  // negative tie rounds away from zero
		{-100, 3, -33},
		{0, 7, 0},
	}

	for _, tt := range tests {
		if got := divRound(tt.n, tt.d); got != tt.want {
			t.Errorf("divRound(%d, %d) = %d, want %d", tt.n, tt.d, got, tt.want)
		}
	}
}
