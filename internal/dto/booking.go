package dto

import (
	"time"

	"github.com/codeWith-akshay/hotel-booking-sub000/internal/domain"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/pricing"
)

// ReserveRoomsRequest represents a request to reserve rooms
type ReserveRoomsRequest struct {
	RoomCategoryID string `json:"room_category_id" binding:"required"`
	StartDate      string `json:"start_date" binding:"required"`
	EndDate        string `json:"end_date" binding:"required"`
	RoomsBooked    int    `json:"rooms_booked" binding:"required,min=1"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// ReserveRoomsResponse represents the result of a reservation request.
// IsFromCache is true when an idempotent replay returned an earlier booking.
// IdempotencyKey is the key the reservation was recorded under, derived
// server-side when the client did not supply one; retrying with it is safe.
type ReserveRoomsResponse struct {
	Booking        *BookingResponse `json:"booking"`
	IdempotencyKey string           `json:"idempotency_key"`
	IsFromCache    bool             `json:"is_from_cache"`
}

// CancelBookingRequest represents a request to cancel a booking
type CancelBookingRequest struct {
	Reason string `json:"reason,omitempty"`
}

// RecordDepositRequest represents an offline deposit payment report
type RecordDepositRequest struct {
	Amount int64 `json:"amount" binding:"required,min=1"`
}

// QuoteRequest represents a price quote request
type QuoteRequest struct {
	RoomCategoryID string `json:"room_category_id" binding:"required"`
	StartDate      string `json:"start_date" binding:"required"`
	EndDate        string `json:"end_date" binding:"required"`
	RoomsBooked    int    `json:"rooms_booked" binding:"required,min=1"`
}

// NightlyRateResponse represents one night's resolved rate
type NightlyRateResponse struct {
	Date   string `json:"date"`
	Rate   int64  `json:"rate"`
	RuleID string `json:"rule_id,omitempty"`
}

// QuoteResponse represents a price quote in API responses
type QuoteResponse struct {
	TotalPrice      int64                 `json:"total_price"`
	Currency        string                `json:"currency"`
	Nights          []NightlyRateResponse `json:"nights"`
	RequiresDeposit bool                  `json:"requires_deposit"`
	DepositAmount   int64                 `json:"deposit_amount,omitempty"`
}

// BookingResponse represents a booking in API responses
type BookingResponse struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	RoomCategoryID string    `json:"room_category_id"`
	StartDate      string    `json:"start_date"`
	EndDate        string    `json:"end_date"`
	RoomsBooked    int       `json:"rooms_booked"`
	Status         string    `json:"status"`
	TotalPrice     int64     `json:"total_price"`
	DepositAmount  *int64    `json:"deposit_amount,omitempty"`
	IsDepositPaid  bool      `json:"is_deposit_paid"`
	StatusReason   string    `json:"status_reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PaginatedBookingsResponse represents a page of bookings
type PaginatedBookingsResponse struct {
	Data     []*BookingResponse `json:"data"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// DateAvailabilityResponse represents one date in the availability calendar
type DateAvailabilityResponse struct {
	Date           string `json:"date"`
	RoomsRemaining int    `json:"rooms_remaining"`
	TotalRooms     int    `json:"total_rooms"`
}

// AvailabilityResponse represents the availability calendar for a category
type AvailabilityResponse struct {
	RoomCategoryID string                     `json:"room_category_id"`
	Dates          []DateAvailabilityResponse `json:"dates"`
}

// AuditLogResponse represents one audit trail entry
type AuditLogResponse struct {
	ID        string         `json:"id"`
	BookingID string         `json:"booking_id"`
	ActorID   string         `json:"actor_id"`
	Action    string         `json:"action"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// FromDomain converts a domain Booking to a BookingResponse
func FromDomain(b *domain.Booking) *BookingResponse {
	return &BookingResponse{
		ID:             b.ID,
		UserID:         b.UserID,
		RoomCategoryID: b.RoomCategoryID,
		StartDate:      b.StartDate.Format(domain.DateLayout),
		EndDate:        b.EndDate.Format(domain.DateLayout),
		RoomsBooked:    b.RoomsBooked,
		Status:         b.Status.String(),
		TotalPrice:     b.TotalPrice,
		DepositAmount:  b.DepositAmount,
		IsDepositPaid:  b.IsDepositPaid,
		StatusReason:   b.StatusReason,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

// QuoteFromPricing converts a pricing Quote to a QuoteResponse
func QuoteFromPricing(q *pricing.Quote) *QuoteResponse {
	resp := &QuoteResponse{
		TotalPrice:      q.TotalPrice,
		Currency:        q.Currency,
		Nights:          make([]NightlyRateResponse, 0, len(q.Nights)),
		RequiresDeposit: q.RequiresDeposit,
		DepositAmount:   q.DepositAmount,
	}
	for _, n := range q.Nights {
		resp.Nights = append(resp.Nights, NightlyRateResponse{
			Date:   n.Date.Format(domain.DateLayout),
			Rate:   n.Rate,
			RuleID: n.RuleID,
		})
	}
	return resp
}

// AvailabilityFromDomain converts a calendar slice to an AvailabilityResponse
func AvailabilityFromDomain(roomCategoryID string, calendar []domain.DateAvailability) *AvailabilityResponse {
	resp := &AvailabilityResponse{
		RoomCategoryID: roomCategoryID,
		Dates:          make([]DateAvailabilityResponse, 0, len(calendar)),
	}
	for _, d := range calendar {
		resp.Dates = append(resp.Dates, DateAvailabilityResponse{
			Date:           d.Date.Format(domain.DateLayout),
			RoomsRemaining: d.RoomsRemaining,
			TotalRooms:     d.TotalRooms,
		})
	}
	return resp
}

// AuditLogFromDomain converts a domain audit entry to an AuditLogResponse
func AuditLogFromDomain(e *domain.BookingAuditLog) *AuditLogResponse {
	return &AuditLogResponse{
		ID:        e.ID,
		BookingID: e.BookingID,
		ActorID:   e.ActorID,
		Action:    string(e.Action),
		Metadata:  e.Metadata,
		CreatedAt: e.CreatedAt,
	}
}
