package domain

import "time"

// RoomCategory is a bookable room type with a total room count and a base
// nightly rate in minor currency units.
type RoomCategory struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	TotalRooms    int       `json:"total_rooms"`
	PricePerNight int64     `json:"price_per_night"`
	Currency      string    `json:"currency"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// InventoryRecord is the remaining-rooms counter for one room category on one
// calendar date. A missing row is equivalent to RoomsRemaining == TotalRooms.
type InventoryRecord struct {
	RoomCategoryID string    `json:"room_category_id"`
	Date           time.Time `json:"date"`
	TotalRooms     int       `json:"total_rooms"`
	RoomsRemaining int       `json:"rooms_remaining"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DateAvailability is one date's entry in a lock or calendar result
type DateAvailability struct {
	Date           time.Time `json:"date"`
	RoomsRemaining int       `json:"rooms_remaining"`
	TotalRooms     int       `json:"total_rooms"`
}

// Sufficient reports whether the date can satisfy the requested room count
func (a DateAvailability) Sufficient(roomsRequested int) bool {
	return a.RoomsRemaining >= roomsRequested
}
