package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors
var (
	// Booking errors
	ErrBookingNotFound       = errors.New("booking not found")
	ErrBookingAlreadyExists  = errors.New("booking already exists")
	ErrInvalidBookingStatus  = errors.New("invalid booking status")
	ErrInvalidTransition     = errors.New("invalid booking status transition")
	ErrAlreadyCancelled      = errors.New("booking already cancelled")
	ErrAlreadyConfirmed      = errors.New("booking already confirmed")
	ErrDepositNotPaid        = errors.New("deposit has not been paid")
	ErrDepositAlreadyPaid    = errors.New("deposit already paid")
	ErrDepositNotRequired    = errors.New("booking does not require a deposit")
	ErrDepositAmountMismatch = errors.New("deposit amount does not match")
	ErrCheckInTooEarly       = errors.New("check-in date has not been reached")

	// Room category errors
	ErrRoomCategoryNotFound = errors.New("room category not found")
	ErrRoomCategoryInactive = errors.New("room category is not active")

	// Inventory errors
	ErrInsufficientInventory = errors.New("insufficient room inventory")
	ErrInventoryNotFound     = errors.New("inventory record not found")

	// Special day errors
	ErrBlockedDate            = errors.New("date range contains a blocked date")
	ErrSpecialDayRuleNotFound = errors.New("special day rule not found")
	ErrInvalidSpecialDayRule  = errors.New("invalid special day rule")

	// Idempotency errors
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
	ErrIdempotencyKeyExists   = errors.New("idempotency key already exists")
	ErrIdempotencyMismatch    = errors.New("idempotency key reused with different request")

	// Concurrency errors
	ErrConcurrencyConflict = errors.New("concurrent update conflict, retry later")

	// Validation errors
	ErrInvalidUserID         = errors.New("invalid user id")
	ErrInvalidBookingID      = errors.New("invalid booking id")
	ErrInvalidRoomCategoryID = errors.New("invalid room category id")
	ErrInvalidDateRange      = errors.New("start date must be before end date")
	ErrInvalidRoomsBooked    = errors.New("rooms booked must be at least one")
	ErrDateRangeTooLong      = errors.New("date range exceeds maximum stay length")
	ErrInvalidAmount         = errors.New("amount must be positive")

	// Authorization errors
	ErrUnauthorized = errors.New("caller is not allowed to perform this action")
)

// InsufficientInventoryError reports the first date in a requested range that
// cannot satisfy the request, with the actual remaining count for that date.
type InsufficientInventoryError struct {
	RoomCategoryID string
	Date           time.Time
	Available      int
	Requested      int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for %s on %s: %d remaining, %d requested",
		e.RoomCategoryID, e.Date.Format(DateLayout), e.Available, e.Requested)
}

func (e *InsufficientInventoryError) Unwrap() error {
	return ErrInsufficientInventory
}

// BlockedDateError reports the first blocked date in a requested range together
// with the human-readable reason from the matching rule.
type BlockedDateError struct {
	Date   time.Time
	Reason string
}

func (e *BlockedDateError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("date %s is blocked for booking", e.Date.Format(DateLayout))
	}
	return fmt.Sprintf("date %s is blocked for booking: %s", e.Date.Format(DateLayout), e.Reason)
}

func (e *BlockedDateError) Unwrap() error {
	return ErrBlockedDate
}

// IdempotencyMismatchError reports reuse of an explicit idempotency key with a
// request whose fingerprint differs from the original.
type IdempotencyMismatchError struct {
	Key string
}

func (e *IdempotencyMismatchError) Error() string {
	return fmt.Sprintf("idempotency key %q reused with different request parameters", e.Key)
}

func (e *IdempotencyMismatchError) Unwrap() error {
	return ErrIdempotencyMismatch
}

// ConcurrencyConflictError wraps lock timeouts, statement timeouts and
// serialization failures. Safe for the caller to retry with backoff.
type ConcurrencyConflictError struct {
	Op    string
	Cause error
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("concurrency conflict during %s: %v", e.Op, e.Cause)
}

func (e *ConcurrencyConflictError) Unwrap() error {
	return ErrConcurrencyConflict
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrRoomCategoryNotFound) ||
		errors.Is(err, ErrInventoryNotFound) ||
		errors.Is(err, ErrSpecialDayRuleNotFound) ||
		errors.Is(err, ErrIdempotencyKeyNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidUserID) ||
		errors.Is(err, ErrInvalidBookingID) ||
		errors.Is(err, ErrInvalidRoomCategoryID) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrInvalidRoomsBooked) ||
		errors.Is(err, ErrDateRangeTooLong) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidSpecialDayRule) ||
		errors.Is(err, ErrInvalidBookingStatus)
}

// IsConflictError checks if the error is a business conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrInsufficientInventory) ||
		errors.Is(err, ErrBlockedDate) ||
		errors.Is(err, ErrBookingAlreadyExists) ||
		errors.Is(err, ErrAlreadyCancelled) ||
		errors.Is(err, ErrAlreadyConfirmed) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrDepositNotPaid) ||
		errors.Is(err, ErrDepositAlreadyPaid) ||
		errors.Is(err, ErrDepositNotRequired) ||
		errors.Is(err, ErrDepositAmountMismatch) ||
		errors.Is(err, ErrCheckInTooEarly) ||
		errors.Is(err, ErrRoomCategoryInactive)
}

// IsRetryableError checks if the caller may retry the operation with backoff
func IsRetryableError(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// IsUnauthorizedError checks if the error is an authorization error
func IsUnauthorizedError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
