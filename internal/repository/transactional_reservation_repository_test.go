package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/codeWith-akshay/hotel-booking-sub000/internal/database"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/domain"
)

func skipIfNoIntegration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func setupTestDB(t *testing.T) *database.PostgresDB {
	ctx := context.Background()

	cfg := &database.PostgresConfig{
		Host:            getEnv("POSTGRES_HOST", "localhost"),
		Port:            5432,
		User:            getEnv("POSTGRES_USER", "postgres"),
		Password:        getEnv("POSTGRES_PASSWORD", ""),
		Database:        getEnv("POSTGRES_DB", "hotel_booking_test"),
		SSLMode:         "disable",
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 1 * time.Minute,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   1 * time.Second,
	}

	db, err := database.NewPostgres(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS room_categories (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			total_rooms INT NOT NULL CHECK (total_rooms > 0),
			price_per_night BIGINT NOT NULL CHECK (price_per_night >= 0),
			currency VARCHAR(3) NOT NULL DEFAULT 'USD',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS room_inventory (
			room_category_id VARCHAR(36) NOT NULL REFERENCES room_categories(id),
			date DATE NOT NULL,
			total_rooms INT NOT NULL,
			rooms_remaining INT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			PRIMARY KEY (room_category_id, date),
			CHECK (rooms_remaining >= 0 AND rooms_remaining <= total_rooms)
		)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			room_category_id VARCHAR(36) NOT NULL REFERENCES room_categories(id),
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			rooms_booked INT NOT NULL CHECK (rooms_booked >= 1),
			status VARCHAR(20) NOT NULL DEFAULT 'provisional',
			total_price BIGINT NOT NULL CHECK (total_price >= 0),
			deposit_amount BIGINT,
			is_deposit_paid BOOLEAN NOT NULL DEFAULT FALSE,
			status_reason TEXT,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			CHECK (start_date < end_date)
		)`,
		`CREATE TABLE IF NOT EXISTS idempotency_keys (
			key VARCHAR(255) PRIMARY KEY,
			booking_id VARCHAR(36) NOT NULL REFERENCES bookings(id),
			fingerprint VARCHAR(64) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS special_day_rules (
			id VARCHAR(36) PRIMARY KEY,
			date DATE NOT NULL,
			room_category_id VARCHAR(36) REFERENCES room_categories(id),
			rule_type VARCHAR(20) NOT NULL,
			rate_type VARCHAR(20),
			rate_value BIGINT NOT NULL DEFAULT 0,
			reason TEXT,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS booking_audit_logs (
			id VARCHAR(36) PRIMARY KEY,
			booking_id VARCHAR(36) NOT NULL REFERENCES bookings(id),
			actor_id VARCHAR(36) NOT NULL,
			action VARCHAR(50) NOT NULL,
			metadata JSONB DEFAULT '{}',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Pool().Exec(ctx, stmt); err != nil {
			t.Fatalf("Failed to create schema: %v", err)
		}
	}

	return db
}

// newTestStore seeds a fresh category and returns the store plus its ID
func newTestStore(t *testing.T, db *database.PostgresDB, totalRooms int) (*TransactionalReservationRepository, string) {
	ctx := context.Background()
	categoryID := "test-cat-" + uuid.New().String()

	_, err := db.Pool().Exec(ctx,
		`INSERT INTO room_categories (id, name, total_rooms, price_per_night, currency)
		 VALUES ($1, $2, $3, $4, 'THB')`,
		categoryID, "Integration Deluxe", totalRooms, int64(100000),
	)
	if err != nil {
		t.Fatalf("Failed to seed category: %v", err)
	}

	t.Cleanup(func() {
		cleanupCtx := context.Background()
		_, _ = db.Pool().Exec(cleanupCtx, `DELETE FROM booking_audit_logs WHERE booking_id IN (SELECT id FROM bookings WHERE room_category_id = $1)`, categoryID)
		_, _ = db.Pool().Exec(cleanupCtx, `DELETE FROM idempotency_keys WHERE booking_id IN (SELECT id FROM bookings WHERE room_category_id = $1)`, categoryID)
		_, _ = db.Pool().Exec(cleanupCtx, `DELETE FROM bookings WHERE room_category_id = $1`, categoryID)
		_, _ = db.Pool().Exec(cleanupCtx, `DELETE FROM special_day_rules WHERE room_category_id = $1`, categoryID)
		_, _ = db.Pool().Exec(cleanupCtx, `DELETE FROM room_inventory WHERE room_category_id = $1`, categoryID)
		_, _ = db.Pool().Exec(cleanupCtx, `DELETE FROM room_categories WHERE id = $1`, categoryID)
	})

	store := NewTransactionalReservationRepository(
		db.Pool(),
		NewPostgresInventoryRepository(db.Pool()),
		NewPostgresBookingRepository(db.Pool()),
		NewPostgresIdempotencyRepository(db.Pool()),
		NewPostgresAuditRepository(db.Pool()),
		NewPostgresSpecialDayRepository(db.Pool()),
		nil,
	)
	return store, categoryID
}

func testDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%s): %v", s, err)
	}
	return d
}

func newIntegrationBooking(t *testing.T, categoryID string, rooms int, deposit *int64) *domain.Booking {
	t.Helper()
	b, err := domain.NewBooking(
		"test-user-001",
		categoryID,
		testDate(t, "2032-03-10"),
		testDate(t, "2032-03-13"),
		rooms,
		int64(rooms)*3*100000,
		deposit,
	)
	if err != nil {
		t.Fatalf("NewBooking: %v", err)
	}
	return b
}

func remainingOn(t *testing.T, db *database.PostgresDB, categoryID, date string) int {
	t.Helper()
	var remaining int
	err := db.Pool().QueryRow(context.Background(),
		`SELECT rooms_remaining FROM room_inventory WHERE room_category_id = $1 AND date = $2`,
		categoryID, date,
	).Scan(&remaining)
	if err != nil {
		t.Fatalf("read inventory: %v", err)
	}
	return remaining
}

func TestTransactionalReservationRepository_CreateReservation(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()

	store, categoryID := newTestStore(t, db, 10)
	ctx := context.Background()

	booking := newIntegrationBooking(t, categoryID, 2, nil)
	err := store.CreateReservation(ctx, &CreateReservationParams{
		Booking:        booking,
		IdempotencyKey: "test-key-" + uuid.New().String(),
		Fingerprint:    "fp-1",
		TotalRooms:     10,
		ActorID:        booking.UserID,
	})
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}

	// Every night in [start, end) decremented, nothing outside
	for _, date := range []string{"2032-03-10", "2032-03-11", "2032-03-12"} {
		if got := remainingOn(t, db, categoryID, date); got != 8 {
			t.Errorf("remaining on %s = %d, want 8", date, got)
		}
	}

	bookingRepo := NewPostgresBookingRepository(db.Pool())
	stored, err := bookingRepo.GetByID(ctx, booking.ID)
	if err != nil {
		t.Fatalf("GetByID after create: %v", err)
	}
	if stored.Status != domain.BookingStatusConfirmed {
		t.Errorf("status = %s, want confirmed", stored.Status)
	}

	auditRepo := NewPostgresAuditRepository(db.Pool())
	trail, err := auditRepo.ListByBooking(ctx, booking.ID)
	if err != nil {
		t.Fatalf("ListByBooking: %v", err)
	}
	if len(trail) != 1 || trail[0].Action != domain.AuditActionCreated {
		t.Errorf("audit trail = %+v, want one created entry", trail)
	}
}

func TestTransactionalReservationRepository_InsufficientInventoryRollsBack(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()

	store, categoryID := newTestStore(t, db, 3)
	ctx := context.Background()

	first := newIntegrationBooking(t, categoryID, 2, nil)
	if err := store.CreateReservation(ctx, &CreateReservationParams{
		Booking:        first,
		IdempotencyKey: "test-key-" + uuid.New().String(),
		Fingerprint:    "fp-1",
		TotalRooms:     3,
		ActorID:        first.UserID,
	}); err != nil {
		t.Fatalf("first CreateReservation: %v", err)
	}

	second := newIntegrationBooking(t, categoryID, 2, nil)
	err := store.CreateReservation(ctx, &CreateReservationParams{
		Booking:        second,
		IdempotencyKey: "test-key-" + uuid.New().String(),
		Fingerprint:    "fp-2",
		TotalRooms:     3,
		ActorID:        second.UserID,
	})
	if !errors.Is(err, domain.ErrInsufficientInventory) {
		t.Fatalf("second CreateReservation error = %v, want insufficient inventory", err)
	}

	var invErr *domain.InsufficientInventoryError
	if !errors.As(err, &invErr) {
		t.Fatal("error does not carry per-date detail")
	}
	if invErr.Available != 1 {
		t.Errorf("Available = %d, want 1", invErr.Available)
	}

	// Nothing from the failed attempt persisted
	if got := remainingOn(t, db, categoryID, "2032-03-10"); got != 1 {
		t.Errorf("remaining after rollback = %d, want 1", got)
	}
	bookingRepo := NewPostgresBookingRepository(db.Pool())
	if _, err := bookingRepo.GetByID(ctx, second.ID); !errors.Is(err, domain.ErrBookingNotFound) {
		t.Errorf("failed booking lookup error = %v, want not found", err)
	}
}

func TestTransactionalReservationRepository_IdempotencyRace(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()

	store, categoryID := newTestStore(t, db, 10)
	ctx := context.Background()
	key := "test-key-" + uuid.New().String()

	winner := newIntegrationBooking(t, categoryID, 1, nil)
	if err := store.CreateReservation(ctx, &CreateReservationParams{
		Booking:        winner,
		IdempotencyKey: key,
		Fingerprint:    "fp-1",
		TotalRooms:     10,
		ActorID:        winner.UserID,
	}); err != nil {
		t.Fatalf("winner CreateReservation: %v", err)
	}

	loser := newIntegrationBooking(t, categoryID, 1, nil)
	err := store.CreateReservation(ctx, &CreateReservationParams{
		Booking:        loser,
		IdempotencyKey: key,
		Fingerprint:    "fp-1",
		TotalRooms:     10,
		ActorID:        loser.UserID,
	})
	if !errors.Is(err, domain.ErrIdempotencyKeyExists) {
		t.Fatalf("duplicate key error = %v, want %v", err, domain.ErrIdempotencyKeyExists)
	}

	// The losing transaction rolled back its decrement
	if got := remainingOn(t, db, categoryID, "2032-03-10"); got != 9 {
		t.Errorf("remaining after race = %d, want 9", got)
	}
}

func TestTransactionalReservationRepository_CancelRestoresOnce(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()

	store, categoryID := newTestStore(t, db, 10)
	ctx := context.Background()

	booking := newIntegrationBooking(t, categoryID, 3, nil)
	if err := store.CreateReservation(ctx, &CreateReservationParams{
		Booking:        booking,
		IdempotencyKey: "test-key-" + uuid.New().String(),
		Fingerprint:    "fp-1",
		TotalRooms:     10,
		ActorID:        booking.UserID,
	}); err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}

	cancelled, err := store.CancelBooking(ctx, booking.ID, booking.UserID, "change of plans")
	if err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}
	if cancelled.Status != domain.BookingStatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
	if got := remainingOn(t, db, categoryID, "2032-03-11"); got != 10 {
		t.Errorf("remaining after cancel = %d, want 10", got)
	}

	// Second cancel must not restore again
	if _, err := store.CancelBooking(ctx, booking.ID, booking.UserID, "again"); !errors.Is(err, domain.ErrAlreadyCancelled) {
		t.Fatalf("second cancel error = %v, want %v", err, domain.ErrAlreadyCancelled)
	}
	if got := remainingOn(t, db, categoryID, "2032-03-11"); got != 10 {
		t.Errorf("remaining after double cancel = %d, want 10", got)
	}
}

func TestTransactionalReservationRepository_DepositThenConfirm(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()

	store, categoryID := newTestStore(t, db, 20)
	ctx := context.Background()

	deposit := int64(180000)
	booking := newIntegrationBooking(t, categoryID, 6, &deposit)
	if err := store.CreateReservation(ctx, &CreateReservationParams{
		Booking:        booking,
		IdempotencyKey: "test-key-" + uuid.New().String(),
		Fingerprint:    "fp-1",
		TotalRooms:     20,
		ActorID:        booking.UserID,
	}); err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}

	// Confirm before deposit payment is rejected
	if _, err := store.ConfirmBooking(ctx, booking.ID, booking.UserID); !errors.Is(err, domain.ErrDepositNotPaid) {
		t.Fatalf("confirm before deposit error = %v, want %v", err, domain.ErrDepositNotPaid)
	}

	if _, err := store.RecordDeposit(ctx, booking.ID, "staff-001", deposit); err != nil {
		t.Fatalf("RecordDeposit: %v", err)
	}

	confirmed, err := store.ConfirmBooking(ctx, booking.ID, booking.UserID)
	if err != nil {
		t.Fatalf("ConfirmBooking: %v", err)
	}
	if confirmed.Status != domain.BookingStatusConfirmed {
		t.Errorf("status = %s, want confirmed", confirmed.Status)
	}

	// Confirm does not touch inventory, decrement happened at creation
	if got := remainingOn(t, db, categoryID, "2032-03-10"); got != 14 {
		t.Errorf("remaining after confirm = %d, want 14", got)
	}
}

func TestTransactionalReservationRepository_ConfirmRejectsRuleActivatedAfterHold(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()

	store, categoryID := newTestStore(t, db, 20)
	ctx := context.Background()

	deposit := int64(180000)
	booking := newIntegrationBooking(t, categoryID, 6, &deposit)
	if err := store.CreateReservation(ctx, &CreateReservationParams{
		Booking:        booking,
		IdempotencyKey: "test-key-" + uuid.New().String(),
		Fingerprint:    "fp-1",
		TotalRooms:     20,
		ActorID:        booking.UserID,
	}); err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	if _, err := store.RecordDeposit(ctx, booking.ID, "staff-001", deposit); err != nil {
		t.Fatalf("RecordDeposit: %v", err)
	}

	// A block landing between the provisional hold and the confirm call
	// must veto the confirm inside its transaction.
	if _, err := db.Pool().Exec(ctx,
		`INSERT INTO special_day_rules (id, date, room_category_id, rule_type, reason, active)
		 VALUES ($1, $2, $3, 'blocked', 'emergency maintenance', TRUE)`,
		uuid.New().String(), "2032-03-11", categoryID,
	); err != nil {
		t.Fatalf("insert rule: %v", err)
	}

	_, err := store.ConfirmBooking(ctx, booking.ID, booking.UserID)
	if !errors.Is(err, domain.ErrBlockedDate) {
		t.Fatalf("confirm with blocked night error = %v, want %v", err, domain.ErrBlockedDate)
	}

	stored, err := NewPostgresBookingRepository(db.Pool()).GetByID(ctx, booking.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != domain.BookingStatusProvisional {
		t.Errorf("status after vetoed confirm = %s, want provisional", stored.Status)
	}
}

func TestTransactionalReservationRepository_ConcurrentOversell(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()

	const totalRooms = 5
	store, categoryID := newTestStore(t, db, totalRooms)
	ctx := context.Background()

	// 10 concurrent requests for 1 room each against 5 rooms: exactly 5 win
	var wg sync.WaitGroup
	errCh := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			booking := newIntegrationBooking(t, categoryID, 1, nil)
			errCh <- store.CreateReservation(ctx, &CreateReservationParams{
				Booking:        booking,
				IdempotencyKey: fmt.Sprintf("test-key-race-%s-%d", categoryID, n),
				Fingerprint:    fmt.Sprintf("fp-%d", n),
				TotalRooms:     totalRooms,
				ActorID:        booking.UserID,
			})
		}(i)
	}
	wg.Wait()
	close(errCh)

	var succeeded, rejected int
	for err := range errCh {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrInsufficientInventory):
			rejected++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if succeeded != totalRooms {
		t.Errorf("succeeded = %d, want %d", succeeded, totalRooms)
	}
	if rejected != 10-totalRooms {
		t.Errorf("rejected = %d, want %d", rejected, 10-totalRooms)
	}
	if got := remainingOn(t, db, categoryID, "2032-03-10"); got != 0 {
		t.Errorf("remaining after oversell race = %d, want 0", got)
	}
}
