package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeWith-akshay/hotel-booking-sub000/internal/domain"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/dto"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/middleware"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/service"
)

// MockReservationService is a mock implementation of ReservationService for testing
type MockReservationService struct {
	ReserveRoomsFunc    func(ctx context.Context, actor service.Actor, req *dto.ReserveRoomsRequest) (*dto.ReserveRoomsResponse, error)
	QuotePriceFunc      func(ctx context.Context, req *dto.QuoteRequest) (*dto.QuoteResponse, error)
	GetAvailabilityFunc func(ctx context.Context, roomCategoryID string, from, to time.Time) (*dto.AvailabilityResponse, error)
	GetBookingFunc      func(ctx context.Context, actor service.Actor, bookingID string) (*dto.BookingResponse, error)
	GetUserBookingsFunc func(ctx context.Context, actor service.Actor, page, pageSize int) (*dto.PaginatedBookingsResponse, error)
	ConfirmBookingFunc  func(ctx context.Context, actor service.Actor, bookingID string) (*dto.BookingResponse, error)
	CancelBookingFunc   func(ctx context.Context, actor service.Actor, bookingID, reason string) (*dto.BookingResponse, error)
	CheckInBookingFunc  func(ctx context.Context, actor service.Actor, bookingID string) (*dto.BookingResponse, error)
	CheckOutBookingFunc func(ctx context.Context, actor service.Actor, bookingID string) (*dto.BookingResponse, error)
	RecordDepositFunc   func(ctx context.Context, actor service.Actor, bookingID string, amount int64) (*dto.BookingResponse, error)
	GetAuditTrailFunc   func(ctx context.Context, actor service.Actor, bookingID string) ([]*dto.AuditLogResponse, error)
	ExpireDepositsFunc  func(ctx context.Context, limit int) (int, error)
}

func (m *MockReservationService) ReserveRooms(ctx context.Context, actor service.Actor, req *dto.ReserveRoomsRequest) (*dto.ReserveRoomsResponse, error) {
	if m.ReserveRoomsFunc != nil {
		return m.ReserveRoomsFunc(ctx, actor, req)
	}
	return nil, nil
}

func (m *MockReservationService) QuotePrice(ctx context.Context, req *dto.QuoteRequest) (*dto.QuoteResponse, error) {
	if m.QuotePriceFunc != nil {
		return m.QuotePriceFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockReservationService) GetAvailability(ctx context.Context, roomCategoryID string, from, to time.Time) (*dto.AvailabilityResponse, error) {
	if m.GetAvailabilityFunc != nil {
		return m.GetAvailabilityFunc(ctx, roomCategoryID, from, to)
	}
	return nil, nil
}

func (m *MockReservationService) GetBooking(ctx context.Context, actor service.Actor, bookingID string) (*dto.BookingResponse, error) {
	if m.GetBookingFunc != nil {
		return m.GetBookingFunc(ctx, actor, bookingID)
	}
	return nil, nil
}

func (m *MockReservationService) GetUserBookings(ctx context.Context, actor service.Actor, page, pageSize int) (*dto.PaginatedBookingsResponse, error) {
	if m.GetUserBookingsFunc != nil {
		return m.GetUserBookingsFunc(ctx, actor, page, pageSize)
	}
	return nil, nil
}

func (m *MockReservationService) ConfirmBooking(ctx context.Context, actor service.Actor, bookingID string) (*dto.BookingResponse, error) {
	if m.ConfirmBookingFunc != nil {
		return m.ConfirmBookingFunc(ctx, actor, bookingID)
	}
	return nil, nil
}

func (m *MockReservationService) CancelBooking(ctx context.Context, actor service.Actor, bookingID, reason string) (*dto.BookingResponse, error) {
	if m.CancelBookingFunc != nil {
		return m.CancelBookingFunc(ctx, actor, bookingID, reason)
	}
	return nil, nil
}

func (m *MockReservationService) CheckInBooking(ctx context.Context, actor service.Actor, bookingID string) (*dto.BookingResponse, error) {
	if m.CheckInBookingFunc != nil {
		return m.CheckInBookingFunc(ctx, actor, bookingID)
	}
	return nil, nil
}

func (m *MockReservationService) CheckOutBooking(ctx context.Context, actor service.Actor, bookingID string) (*dto.BookingResponse, error) {
	if m.CheckOutBookingFunc != nil {
		return m.CheckOutBookingFunc(ctx, actor, bookingID)
	}
	return nil, nil
}

func (m *MockReservationService) RecordDeposit(ctx context.Context, actor service.Actor, bookingID string, amount int64) (*dto.BookingResponse, error) {
	if m.RecordDepositFunc != nil {
		return m.RecordDepositFunc(ctx, actor, bookingID, amount)
	}
	return nil, nil
}

func (m *MockReservationService) GetAuditTrail(ctx context.Context, actor service.Actor, bookingID string) ([]*dto.AuditLogResponse, error) {
	if m.GetAuditTrailFunc != nil {
		return m.GetAuditTrailFunc(ctx, actor, bookingID)
	}
	return nil, nil
}

func (m *MockReservationService) ExpireDeposits(ctx context.Context, limit int) (int, error) {
	if m.ExpireDepositsFunc != nil {
		return m.ExpireDepositsFunc(ctx, limit)
	}
	return 0, nil
}

func setupTestRouter(handler *BookingHandler, userID, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	if userID != "" {
		router.Use(func(c *gin.Context) {
			c.Set(middleware.ContextKeyUserID, userID)
			c.Set(middleware.ContextKeyRole, role)
			c.Next()
		})
	}

	bookings := router.Group("/bookings")
	{
		bookings.POST("/reserve", handler.ReserveRooms)
		bookings.POST("/quote", handler.QuotePrice)
		bookings.GET("", handler.GetUserBookings)
		bookings.GET("/:id", handler.GetBooking)
		bookings.GET("/:id/audit", handler.GetAuditTrail)
		bookings.POST("/:id/confirm", handler.ConfirmBooking)
		bookings.POST("/:id/cancel", handler.CancelBooking)
		bookings.POST("/:id/check-in", handler.CheckIn)
		bookings.POST("/:id/check-out", handler.CheckOut)
		bookings.POST("/:id/deposit", handler.RecordDeposit)
	}
	router.GET("/room-categories/:id/availability", handler.GetAvailability)

	return router
}

func sampleBookingResponse(status string) *dto.BookingResponse {
	return &dto.BookingResponse{
		ID:             "booking-001",
		UserID:         "user-001",
		RoomCategoryID: "cat-001",
		StartDate:      "2031-05-01",
		EndDate:        "2031-05-04",
		RoomsBooked:    2,
		Status:         status,
		TotalPrice:     600000,
	}
}

func TestBookingHandler_ReserveRooms(t *testing.T) {
	validRequest := &dto.ReserveRoomsRequest{
		RoomCategoryID: "cat-001",
		StartDate:      "2031-05-01",
		EndDate:        "2031-05-04",
		RoomsBooked:    2,
	}

	tests := []struct {
		name           string
		userID         string
		request        any
		mockFunc       func(ctx context.Context, actor service.Actor, req *dto.ReserveRoomsRequest) (*dto.ReserveRoomsResponse, error)
		expectedStatus int
		expectedCode   string
	}{
		{
			name:    "successful reservation",
			userID:  "user-001",
			request: validRequest,
			mockFunc: func(ctx context.Context, actor service.Actor, req *dto.ReserveRoomsRequest) (*dto.ReserveRoomsResponse, error) {
				return &dto.ReserveRoomsResponse{Booking: sampleBookingResponse("confirmed")}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:    "idempotent replay returns 200",
			userID:  "user-001",
			request: validRequest,
			mockFunc: func(ctx context.Context, actor service.Actor, req *dto.ReserveRoomsRequest) (*dto.ReserveRoomsResponse, error) {
				return &dto.ReserveRoomsResponse{Booking: sampleBookingResponse("confirmed"), IsFromCache: true}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unauthorized without user",
			userID:         "",
			request:        validRequest,
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "UNAUTHORIZED",
		},
		{
			name:           "missing fields rejected",
			userID:         "user-001",
			request:        map[string]any{"room_category_id": "cat-001"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:    "insufficient inventory",
			userID:  "user-001",
			request: validRequest,
			mockFunc: func(ctx context.Context, actor service.Actor, req *dto.ReserveRoomsRequest) (*dto.ReserveRoomsResponse, error) {
				return nil, &domain.InsufficientInventoryError{
					RoomCategoryID: "cat-001",
					Available:      1,
					Requested:      2,
				}
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "INSUFFICIENT_INVENTORY",
		},
		{
			name:    "blocked date",
			userID:  "user-001",
			request: validRequest,
			mockFunc: func(ctx context.Context, actor service.Actor, req *dto.ReserveRoomsRequest) (*dto.ReserveRoomsResponse, error) {
				return nil, &domain.BlockedDateError{Reason: "renovation"}
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "BLOCKED_DATE",
		},
		{
			name:    "idempotency key reused",
			userID:  "user-001",
			request: validRequest,
			mockFunc: func(ctx context.Context, actor service.Actor, req *dto.ReserveRoomsRequest) (*dto.ReserveRoomsResponse, error) {
				return nil, &domain.IdempotencyMismatchError{Key: "key-1"}
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   "IDEMPOTENCY_KEY_MISMATCH",
		},
		{
			name:    "lock contention maps to 503",
			userID:  "user-001",
			request: validRequest,
			mockFunc: func(ctx context.Context, actor service.Actor, req *dto.ReserveRoomsRequest) (*dto.ReserveRoomsResponse, error) {
				return nil, &domain.ConcurrencyConflictError{Op: "reserve", Cause: errors.New("canceling statement due to lock timeout")}
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedCode:   "CONCURRENCY_CONFLICT",
		},
		{
			name:    "inactive category",
			userID:  "user-001",
			request: validRequest,
			mockFunc: func(ctx context.Context, actor service.Actor, req *dto.ReserveRoomsRequest) (*dto.ReserveRoomsResponse, error) {
				return nil, domain.ErrRoomCategoryInactive
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "CONFLICT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockReservationService{
				ReserveRoomsFunc: tt.mockFunc,
			}
			handler := NewBookingHandler(mockService)
			router := setupTestRouter(handler, tt.userID, middleware.RoleGuest)

			body, _ := json.Marshal(tt.request)
			req := httptest.NewRequest(http.MethodPost, "/bookings/reserve", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			if tt.expectedCode != "" {
				var response dto.ErrorResponse
				if err := json.Unmarshal(w.Body.Bytes(), &response); err == nil {
					if response.Code != tt.expectedCode {
						t.Errorf("expected code %s, got %s", tt.expectedCode, response.Code)
					}
				}
			}

			if tt.expectedCode == "CONCURRENCY_CONFLICT" {
				if w.Header().Get("Retry-After") == "" {
					t.Error("expected Retry-After header on concurrency conflict")
				}
				if strings.Contains(w.Body.String(), "lock timeout") {
					t.Errorf("response body leaks lock details: %s", w.Body.String())
				}
			}
		})
	}
}

func TestBookingHandler_GetBooking(t *testing.T) {
	tests := []struct {
		name           string
		bookingID      string
		mockFunc       func(ctx context.Context, actor service.Actor, bookingID string) (*dto.BookingResponse, error)
		expectedStatus int
		expectedCode   string
	}{
		{
			name:      "found",
			bookingID: "booking-001",
			mockFunc: func(ctx context.Context, actor service.Actor, bookingID string) (*dto.BookingResponse, error) {
				return sampleBookingResponse("confirmed"), nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:      "not found",
			bookingID: "missing",
			mockFunc: func(ctx context.Context, actor service.Actor, bookingID string) (*dto.BookingResponse, error) {
				return nil, domain.ErrBookingNotFound
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   "NOT_FOUND",
		},
		{
			name:      "someone else's booking",
			bookingID: "booking-002",
			mockFunc: func(ctx context.Context, actor service.Actor, bookingID string) (*dto.BookingResponse, error) {
				return nil, domain.ErrUnauthorized
			},
			expectedStatus: http.StatusForbidden,
			expectedCode:   "UNAUTHORIZED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockReservationService{GetBookingFunc: tt.mockFunc}
			handler := NewBookingHandler(mockService)
			router := setupTestRouter(handler, "user-001", middleware.RoleGuest)

			req := httptest.NewRequest(http.MethodGet, "/bookings/"+tt.bookingID, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			if tt.expectedCode != "" {
				var response dto.ErrorResponse
				if err := json.Unmarshal(w.Body.Bytes(), &response); err == nil {
					if response.Code != tt.expectedCode {
						t.Errorf("expected code %s, got %s", tt.expectedCode, response.Code)
					}
				}
			}
		})
	}
}

func TestBookingHandler_Transitions(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		mock           MockReservationService
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "confirm success",
			path: "/bookings/booking-001/confirm",
			mock: MockReservationService{
				ConfirmBookingFunc: func(ctx context.Context, actor service.Actor, bookingID string) (*dto.BookingResponse, error) {
					return sampleBookingResponse("confirmed"), nil
				},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "confirm without deposit",
			path: "/bookings/booking-001/confirm",
			mock: MockReservationService{
				ConfirmBookingFunc: func(ctx context.Context, actor service.Actor, bookingID string) (*dto.BookingResponse, error) {
					return nil, domain.ErrDepositNotPaid
				},
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "CONFLICT",
		},
		{
			name: "check-in too early",
			path: "/bookings/booking-001/check-in",
			mock: MockReservationService{
				CheckInBookingFunc: func(ctx context.Context, actor service.Actor, bookingID string) (*dto.BookingResponse, error) {
					return nil, domain.ErrCheckInTooEarly
				},
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "CONFLICT",
		},
		{
			name: "check-out before check-in",
			path: "/bookings/booking-001/check-out",
			mock: MockReservationService{
				CheckOutBookingFunc: func(ctx context.Context, actor service.Actor, bookingID string) (*dto.BookingResponse, error) {
					return nil, domain.ErrInvalidTransition
				},
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "CONFLICT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewBookingHandler(&tt.mock)
			router := setupTestRouter(handler, "staff-001", middleware.RoleStaff)

			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			if tt.expectedCode != "" {
				var response dto.ErrorResponse
				if err := json.Unmarshal(w.Body.Bytes(), &response); err == nil {
					if response.Code != tt.expectedCode {
						t.Errorf("expected code %s, got %s", tt.expectedCode, response.Code)
					}
				}
			}
		})
	}
}

func TestBookingHandler_CancelBooking(t *testing.T) {
	var gotReason string
	mockService := &MockReservationService{
		CancelBookingFunc: func(ctx context.Context, actor service.Actor, bookingID, reason string) (*dto.BookingResponse, error) {
			gotReason = reason
			return sampleBookingResponse("cancelled"), nil
		},
	}
	handler := NewBookingHandler(mockService)
	router := setupTestRouter(handler, "user-001", middleware.RoleGuest)

	body, _ := json.Marshal(dto.CancelBookingRequest{Reason: "plans changed"})
	req := httptest.NewRequest(http.MethodPost, "/bookings/booking-001/cancel", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if gotReason != "plans changed" {
		t.Errorf("expected reason to reach the service, got %q", gotReason)
	}
}

func TestBookingHandler_RecordDeposit(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		mockFunc       func(ctx context.Context, actor service.Actor, bookingID string, amount int64) (*dto.BookingResponse, error)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "success",
			body: dto.RecordDepositRequest{Amount: 120000},
			mockFunc: func(ctx context.Context, actor service.Actor, bookingID string, amount int64) (*dto.BookingResponse, error) {
				return sampleBookingResponse("provisional"), nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "zero amount rejected by binding",
			body:           map[string]any{"amount": 0},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name: "amount mismatch",
			body: dto.RecordDepositRequest{Amount: 999},
			mockFunc: func(ctx context.Context, actor service.Actor, bookingID string, amount int64) (*dto.BookingResponse, error) {
				return nil, domain.ErrDepositAmountMismatch
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "CONFLICT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockReservationService{RecordDepositFunc: tt.mockFunc}
			handler := NewBookingHandler(mockService)
			router := setupTestRouter(handler, "staff-001", middleware.RoleStaff)

			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/bookings/booking-001/deposit", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			if tt.expectedCode != "" {
				var response dto.ErrorResponse
				if err := json.Unmarshal(w.Body.Bytes(), &response); err == nil {
					if response.Code != tt.expectedCode {
						t.Errorf("expected code %s, got %s", tt.expectedCode, response.Code)
					}
				}
			}
		})
	}
}

func TestBookingHandler_GetAvailability(t *testing.T) {
	mockService := &MockReservationService{
		GetAvailabilityFunc: func(ctx context.Context, roomCategoryID string, from, to time.Time) (*dto.AvailabilityResponse, error) {
			return &dto.AvailabilityResponse{
				RoomCategoryID: roomCategoryID,
				Dates: []dto.DateAvailabilityResponse{
					{Date: "2031-05-01", RoomsRemaining: 48, TotalRooms: 50},
				},
			}, nil
		},
	}
	handler := NewBookingHandler(mockService)
	router := setupTestRouter(handler, "user-001", middleware.RoleGuest)

	t.Run("valid range", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/room-categories/cat-001/availability?from=2031-05-01&to=2031-05-04", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var resp dto.AvailabilityResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if resp.RoomCategoryID != "cat-001" {
			t.Errorf("expected category cat-001, got %s", resp.RoomCategoryID)
		}
	})

	t.Run("malformed dates rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/room-categories/cat-001/availability?from=notadate&to=2031-05-04", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})
}
