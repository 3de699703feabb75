package domain

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusProvisional BookingStatus = "provisional"
	BookingStatusConfirmed   BookingStatus = "confirmed"
	BookingStatusCancelled   BookingStatus = "cancelled"
	BookingStatusCheckedIn   BookingStatus = "checked_in"
	BookingStatusCheckedOut  BookingStatus = "checked_out"
)

// IsValid checks if the booking status is valid
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusProvisional, BookingStatusConfirmed, BookingStatusCancelled,
		BookingStatusCheckedIn, BookingStatusCheckedOut:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCheckedOut
}

// String returns the string representation of the status
func (s BookingStatus) String() string {
	return string(s)
}

// HoldsInventory reports whether a booking in this status currently holds
// decremented inventory. Inventory is decremented at creation and restored
// only on cancellation, so every non-cancelled state holds it until checkout.
func (s BookingStatus) HoldsInventory() bool {
	return s == BookingStatusProvisional || s == BookingStatusConfirmed
}

// Booking represents one reservation of rooms in a category over a date range.
// EndDate is the checkout date, exclusive of the last night.
type Booking struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	RoomCategoryID string        `json:"room_category_id"`
	StartDate      time.Time     `json:"start_date"`
	EndDate        time.Time     `json:"end_date"`
	RoomsBooked    int           `json:"rooms_booked"`
	Status         BookingStatus `json:"status"`
	TotalPrice     int64         `json:"total_price"`
	DepositAmount  *int64        `json:"deposit_amount,omitempty"`
	IsDepositPaid  bool          `json:"is_deposit_paid"`
	StatusReason   string        `json:"status_reason,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// NewBooking creates a new booking in the status implied by its deposit
// requirements. Inventory for the range is decremented by the caller in the
// same transaction that persists the booking.
func NewBooking(userID, roomCategoryID string, startDate, endDate time.Time, roomsBooked int, totalPrice int64, depositAmount *int64) (*Booking, error) {
	b := &Booking{
		ID:             uuid.New().String(),
		UserID:         userID,
		RoomCategoryID: roomCategoryID,
		StartDate:      NormalizeDate(startDate),
		EndDate:        NormalizeDate(endDate),
		RoomsBooked:    roomsBooked,
		Status:         BookingStatusConfirmed,
		TotalPrice:     totalPrice,
		DepositAmount:  depositAmount,
		IsDepositPaid:  false,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if depositAmount != nil && *depositAmount > 0 {
		b.Status = BookingStatusProvisional
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}

	return b, nil
}

// Validate checks the booking's field invariants
func (b *Booking) Validate() error {
	if b.UserID == "" {
		return ErrInvalidUserID
	}
	if b.RoomCategoryID == "" {
		return ErrInvalidRoomCategoryID
	}
	if !b.StartDate.Before(b.EndDate) {
		return ErrInvalidDateRange
	}
	if len(NightsBetween(b.StartDate, b.EndDate)) > MaxStayNights {
		return ErrDateRangeTooLong
	}
	if b.RoomsBooked < 1 {
		return ErrInvalidRoomsBooked
	}
	if b.TotalPrice < 0 {
		return ErrInvalidAmount
	}
	if !b.Status.IsValid() {
		return ErrInvalidBookingStatus
	}
	return nil
}

// Nights returns the nights covered by this booking, ascending.
func (b *Booking) Nights() []time.Time {
	return NightsBetween(b.StartDate, b.EndDate)
}

// RequiresDeposit reports whether a deposit gate applies to this booking
func (b *Booking) RequiresDeposit() bool {
	return b.DepositAmount != nil && *b.DepositAmount > 0
}

// CanConfirm checks if the booking can transition to confirmed
func (b *Booking) CanConfirm() bool {
	if b.Status != BookingStatusProvisional {
		return false
	}
	if b.RequiresDeposit() && !b.IsDepositPaid {
		return false
	}
	return true
}

// CanCancel checks if the booking can transition to cancelled
func (b *Booking) CanCancel() bool {
	return b.Status == BookingStatusProvisional || b.Status == BookingStatusConfirmed
}

// CanCheckIn checks if the booking can transition to checked in
func (b *Booking) CanCheckIn(now time.Time) bool {
	return b.Status == BookingStatusConfirmed && !NormalizeDate(now).Before(b.StartDate)
}

// CanCheckOut checks if the booking can transition to checked out
func (b *Booking) CanCheckOut() bool {
	return b.Status == BookingStatusCheckedIn
}

// Confirm transitions the booking to confirmed status
func (b *Booking) Confirm() error {
	switch b.Status {
	case BookingStatusConfirmed:
		return ErrAlreadyConfirmed
	case BookingStatusCancelled:
		return ErrAlreadyCancelled
	case BookingStatusProvisional:
	default:
		return ErrInvalidTransition
	}
	if b.RequiresDeposit() && !b.IsDepositPaid {
		return ErrDepositNotPaid
	}

	b.Status = BookingStatusConfirmed
	b.UpdatedAt = time.Now()
	return nil
}

// Cancel transitions the booking to cancelled status. Re-cancelling an
// already-cancelled booking is rejected, never a double restore.
func (b *Booking) Cancel(reason string) error {
	switch b.Status {
	case BookingStatusCancelled:
		return ErrAlreadyCancelled
	case BookingStatusCheckedIn, BookingStatusCheckedOut:
		return ErrInvalidTransition
	}

	b.Status = BookingStatusCancelled
	b.StatusReason = reason
	b.UpdatedAt = time.Now()
	return nil
}

// CheckIn transitions the booking to checked in status
func (b *Booking) CheckIn(now time.Time) error {
	if b.Status == BookingStatusCancelled {
		return ErrAlreadyCancelled
	}
	if b.Status != BookingStatusConfirmed {
		return ErrInvalidTransition
	}
	if NormalizeDate(now).Before(b.StartDate) {
		return ErrCheckInTooEarly
	}

	b.Status = BookingStatusCheckedIn
	b.UpdatedAt = time.Now()
	return nil
}

// CheckOut transitions the booking to checked out status
func (b *Booking) CheckOut() error {
	if b.Status != BookingStatusCheckedIn {
		return ErrInvalidTransition
	}

	b.Status = BookingStatusCheckedOut
	b.UpdatedAt = time.Now()
	return nil
}

// MarkDepositPaid records an offline deposit payment. The paid amount must
// match the stored deposit amount exactly, in minor units.
func (b *Booking) MarkDepositPaid(amount int64) error {
	if !b.RequiresDeposit() {
		return ErrDepositNotRequired
	}
	if b.IsDepositPaid {
		return ErrDepositAlreadyPaid
	}
	if b.Status != BookingStatusProvisional {
		return ErrInvalidTransition
	}
	if amount != *b.DepositAmount {
		return ErrDepositAmountMismatch
	}

	b.IsDepositPaid = true
	b.UpdatedAt = time.Now()
	return nil
}
