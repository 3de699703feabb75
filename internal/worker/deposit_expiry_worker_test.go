package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/codeWith-akshay/hotel-booking-sub000/internal/dto"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/service"
)

// mockReservationService implements service.ReservationService for worker tests.
// Only ExpireDeposits matters here; the rest are inert.
type mockReservationService struct {
	expireDepositsFunc func(ctx context.Context, limit int) (int, error)
}

func (m *mockReservationService) ReserveRooms(ctx context.Context, actor service.Actor, req *dto.ReserveRoomsRequest) (*dto.ReserveRoomsResponse, error) {
	return nil, nil
}

func (m *mockReservationService) QuotePrice(ctx context.Context, req *dto.QuoteRequest) (*dto.QuoteResponse, error) {
	return nil, nil
}

func (m *mockReservationService) GetAvailability(ctx context.Context, roomCategoryID string, from, to time.Time) (*dto.AvailabilityResponse, error) {
	return nil, nil
}

func (m *mockReservationService) GetBooking(ctx context.Context, actor service.Actor, bookingID string) (*dto.BookingResponse, error) {
	return nil, nil
}

func (m *mockReservationService) GetUserBookings(ctx context.Context, actor service.Actor, page, pageSize int) (*dto.PaginatedBookingsResponse, error) {
	return nil, nil
}

func (m *mockReservationService) ConfirmBooking(ctx context.Context, actor service.Actor, bookingID string) (*dto.BookingResponse, error) {
	return nil, nil
}

func (m *mockReservationService) CancelBooking(ctx context.Context, actor service.Actor, bookingID, reason string) (*dto.BookingResponse, error) {
	return nil, nil
}

func (m *mockReservationService) CheckInBooking(ctx context.Context, actor service.Actor, bookingID string) (*dto.BookingResponse, error) {
	return nil, nil
}

func (m *mockReservationService) CheckOutBooking(ctx context.Context, actor service.Actor, bookingID string) (*dto.BookingResponse, error) {
	return nil, nil
}

func (m *mockReservationService) RecordDeposit(ctx context.Context, actor service.Actor, bookingID string, amount int64) (*dto.BookingResponse, error) {
	return nil, nil
}

func (m *mockReservationService) GetAuditTrail(ctx context.Context, actor service.Actor, bookingID string) ([]*dto.AuditLogResponse, error) {
	return nil, nil
}

func (m *mockReservationService) ExpireDeposits(ctx context.Context, limit int) (int, error) {
	if m.expireDepositsFunc != nil {
		return m.expireDepositsFunc(ctx, limit)
	}
	return 0, nil
}

func TestDepositExpiryWorker_SweepsOnStart(t *testing.T) {
	var calls int64
	svc := &mockReservationService{
		expireDepositsFunc: func(ctx context.Context, limit int) (int, error) {
			atomic.AddInt64(&calls, 1)
			if limit != 25 {
				t.Errorf("limit = %d, want 25", limit)
			}
			return 3, nil
		},
	}

	w := NewDepositExpiryWorker(svc, &DepositExpiryWorkerConfig{
		ScanInterval: time.Hour,
		BatchSize:    25,
	})

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt64(&calls) == 0 {
		select {
		case <-deadline:
			t.Fatal("worker never swept after start")
		case <-time.After(10 * time.Millisecond):
		}
	}

	w.Stop()

	stats := w.Stats()
	if stats.IsRunning {
		t.Error("worker still reported running after Stop()")
	}
	if stats.TotalExpired != 3 {
		t.Errorf("TotalExpired = %d, want 3", stats.TotalExpired)
	}
}

func TestDepositExpiryWorker_DoubleStartRejected(t *testing.T) {
	w := NewDepositExpiryWorker(&mockReservationService{}, nil)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	if err := w.Start(context.Background()); err == nil {
		t.Error("second Start() succeeded, want error")
	}
}

func TestDepositExpiryWorker_SweepErrorDoesNotStopWorker(t *testing.T) {
	var calls int64
	svc := &mockReservationService{
		expireDepositsFunc: func(ctx context.Context, limit int) (int, error) {
			atomic.AddInt64(&calls, 1)
			return 0, errors.New("db unavailable")
		},
	}

	w := NewDepositExpiryWorker(svc, &DepositExpiryWorkerConfig{
		ScanInterval: 20 * time.Millisecond,
		BatchSize:    10,
	})

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt64(&calls) < 2 {
		select {
		case <-deadline:
			t.Fatal("worker stopped sweeping after an error")
		case <-time.After(10 * time.Millisecond):
		}
	}

	w.Stop()
}
