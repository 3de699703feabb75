package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// IdempotencyKey maps a request fingerprint (or client-supplied key) to the
// booking it produced. Created in the same transaction as the booking row and
// never mutated afterwards.
type IdempotencyKey struct {
	Key         string    `json:"key"`
	BookingID   string    `json:"booking_id"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
}

// RequestFingerprint hashes the semantically meaningful fields of a
// reservation request. Identical logical requests always produce the same
// fingerprint, so a key reused with different parameters is detectable.
func RequestFingerprint(userID, roomCategoryID string, startDate, endDate time.Time, roomsBooked int) string {
	payload := fmt.Sprintf("%s|%s|%s|%s|%d",
		userID,
		roomCategoryID,
		NormalizeDate(startDate).Format(DateLayout),
		NormalizeDate(endDate).Format(DateLayout),
		roomsBooked,
	)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// DeriveIdempotencyKey builds a deterministic key for callers that did not
// supply one, so network-level retries of the same logical request collapse to
// one booking without client cooperation.
func DeriveIdempotencyKey(userID, roomCategoryID string, startDate, endDate time.Time, roomsBooked int) string {
	return "auto-" + RequestFingerprint(userID, roomCategoryID, startDate, endDate, roomsBooked)
}
