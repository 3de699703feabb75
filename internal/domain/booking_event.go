package domain

import "time"

// BookingEventType identifies the kind of booking event published to Kafka
type BookingEventType string

const (
	BookingEventCreated        BookingEventType = "booking.created"
	BookingEventConfirmed      BookingEventType = "booking.confirmed"
	BookingEventCancelled      BookingEventType = "booking.cancelled"
	BookingEventCheckedIn      BookingEventType = "booking.checked_in"
	BookingEventCheckedOut     BookingEventType = "booking.checked_out"
	BookingEventDepositPaid    BookingEventType = "booking.deposit_paid"
	BookingEventDepositExpired BookingEventType = "booking.deposit_expired"
)

// BookingEvent is the payload published for downstream consumers (invoice
// generation, notification delivery). Delivery is fire-and-forget from the
// reservation engine's perspective.
type BookingEvent struct {
	EventID        string           `json:"event_id"`
	EventType      BookingEventType `json:"event_type"`
	BookingID      string           `json:"booking_id"`
	UserID         string           `json:"user_id"`
	RoomCategoryID string           `json:"room_category_id"`
	StartDate      string           `json:"start_date"`
	EndDate        string           `json:"end_date"`
	RoomsBooked    int              `json:"rooms_booked"`
	Status         BookingStatus    `json:"status"`
	TotalPrice     int64            `json:"total_price"`
	Timestamp      time.Time        `json:"timestamp"`
}

// NewBookingEvent creates an event from a booking snapshot
func NewBookingEvent(eventType BookingEventType, booking *Booking, eventID string) *BookingEvent {
	return &BookingEvent{
		EventID:        eventID,
		EventType:      eventType,
		BookingID:      booking.ID,
		UserID:         booking.UserID,
		RoomCategoryID: booking.RoomCategoryID,
		StartDate:      booking.StartDate.Format(DateLayout),
		EndDate:        booking.EndDate.Format(DateLayout),
		RoomsBooked:    booking.RoomsBooked,
		Status:         booking.Status,
		TotalPrice:     booking.TotalPrice,
		Timestamp:      time.Now(),
	}
}

// Key returns the Kafka partition key so all events for one booking stay in
// order on the same partition.
func (e *BookingEvent) Key() string {
	return e.BookingID
}
