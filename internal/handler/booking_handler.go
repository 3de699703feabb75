package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/codeWith-akshay/hotel-booking-sub000/internal/domain"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/dto"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/middleware"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/service"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/telemetry"
)

// BookingHandler handles booking HTTP requests
type BookingHandler struct {
	reservationService service.ReservationService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(reservationService service.ReservationService) *BookingHandler {
	return &BookingHandler{
		reservationService: reservationService,
	}
}

// actor builds the service-level caller identity from the gin context
func actor(c *gin.Context) service.Actor {
	return service.Actor{
		ID:    middleware.GetUserID(c),
		Staff: middleware.IsStaff(c),
	}
}

// ReserveRooms handles POST /bookings/reserve
// Reserves rooms with row-level locking and decrements inventory at creation.
// Repeated requests with the same idempotency key return the original booking.
func (h *BookingHandler) ReserveRooms(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.reserve")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := middleware.GetUserID(c)
	if userID == "" {
		span.SetStatus(codes.Error, "unauthorized")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "unauthorized",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	var req dto.ReserveRoomsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request",
			Code:    "VALIDATION_ERROR",
			Message: err.Error(),
		})
		return
	}

	// The header wins over the body when both are present
	if key, ok := middleware.GetIdempotencyKey(c); ok {
		req.IdempotencyKey = key
	}

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("room_category_id", req.RoomCategoryID),
		attribute.String("start_date", req.StartDate),
		attribute.String("end_date", req.EndDate),
		attribute.Int("rooms_booked", req.RoomsBooked),
	)

	result, err := h.reservationService.ReserveRooms(ctx, actor(c), &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetAttributes(
		attribute.String("booking_id", result.Booking.ID),
		attribute.Bool("is_from_cache", result.IsFromCache),
	)
	span.SetStatus(codes.Ok, "")

	status := http.StatusCreated
	if result.IsFromCache {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// QuotePrice handles POST /bookings/quote
func (h *BookingHandler) QuotePrice(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.quote")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request",
			Code:    "VALIDATION_ERROR",
			Message: err.Error(),
		})
		return
	}

	span.SetAttributes(
		attribute.String("room_category_id", req.RoomCategoryID),
		attribute.Int("rooms_booked", req.RoomsBooked),
	)

	quote, err := h.reservationService.QuotePrice(ctx, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, quote)
}

// GetAvailability handles GET /room-categories/:id/availability?from=...&to=...
func (h *BookingHandler) GetAvailability(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.availability")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	categoryID := c.Param("id")
	if categoryID == "" {
		span.SetStatus(codes.Error, "room category id required")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "room category id required",
			Code:  "VALIDATION_ERROR",
		})
		return
	}

	from, err := domain.ParseDate(c.Query("from"))
	if err != nil {
		span.SetStatus(codes.Error, "invalid from date")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "invalid from date, expected YYYY-MM-DD",
			Code:  "VALIDATION_ERROR",
		})
		return
	}
	to, err := domain.ParseDate(c.Query("to"))
	if err != nil {
		span.SetStatus(codes.Error, "invalid to date")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "invalid to date, expected YYYY-MM-DD",
			Code:  "VALIDATION_ERROR",
		})
		return
	}

	span.SetAttributes(
		attribute.String("room_category_id", categoryID),
		attribute.String("from", c.Query("from")),
		attribute.String("to", c.Query("to")),
	)

	availability, err := h.reservationService.GetAvailability(ctx, categoryID, from, to)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, availability)
}

// GetBooking handles GET /bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	bookingID := c.Param("id")
	if bookingID == "" {
		span.SetStatus(codes.Error, "booking id required")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "booking id required",
			Code:  "VALIDATION_ERROR",
		})
		return
	}

	span.SetAttributes(attribute.String("booking_id", bookingID))

	booking, err := h.reservationService.GetBooking(ctx, actor(c), bookingID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, booking)
}

// GetUserBookings handles GET /bookings?page=1&page_size=20
func (h *BookingHandler) GetUserBookings(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.list")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := middleware.GetUserID(c)
	if userID == "" {
		span.SetStatus(codes.Error, "unauthorized")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "unauthorized",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
	)

	bookings, err := h.reservationService.GetUserBookings(ctx, actor(c), page, pageSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, bookings)
}

// ConfirmBooking handles POST /bookings/:id/confirm
func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	h.transition(c, "handler.booking.confirm", h.reservationService.ConfirmBooking)
}

// CheckIn handles POST /bookings/:id/check-in
func (h *BookingHandler) CheckIn(c *gin.Context) {
	h.transition(c, "handler.booking.check_in", h.reservationService.CheckInBooking)
}

// CheckOut handles POST /bookings/:id/check-out
func (h *BookingHandler) CheckOut(c *gin.Context) {
	h.transition(c, "handler.booking.check_out", h.reservationService.CheckOutBooking)
}

// CancelBooking handles POST /bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.cancel")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	bookingID := c.Param("id")
	if bookingID == "" {
		span.SetStatus(codes.Error, "booking id required")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "booking id required",
			Code:  "VALIDATION_ERROR",
		})
		return
	}

	var req dto.CancelBookingRequest
	// Reason is optional, an empty body is fine
	_ = c.ShouldBindJSON(&req)

	span.SetAttributes(attribute.String("booking_id", bookingID))

	booking, err := h.reservationService.CancelBooking(ctx, actor(c), bookingID, req.Reason)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, booking)
}

// RecordDeposit handles POST /bookings/:id/deposit
func (h *BookingHandler) RecordDeposit(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.deposit")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	bookingID := c.Param("id")
	if bookingID == "" {
		span.SetStatus(codes.Error, "booking id required")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "booking id required",
			Code:  "VALIDATION_ERROR",
		})
		return
	}

	var req dto.RecordDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request",
			Code:    "VALIDATION_ERROR",
			Message: err.Error(),
		})
		return
	}

	span.SetAttributes(
		attribute.String("booking_id", bookingID),
		attribute.Int64("amount", req.Amount),
	)

	booking, err := h.reservationService.RecordDeposit(ctx, actor(c), bookingID, req.Amount)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, booking)
}

// GetAuditTrail handles GET /bookings/:id/audit
func (h *BookingHandler) GetAuditTrail(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.audit")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	bookingID := c.Param("id")
	if bookingID == "" {
		span.SetStatus(codes.Error, "booking id required")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "booking id required",
			Code:  "VALIDATION_ERROR",
		})
		return
	}

	span.SetAttributes(attribute.String("booking_id", bookingID))

	trail, err := h.reservationService.GetAuditTrail(ctx, actor(c), bookingID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, trail)
}

// transition handles the status transition endpoints that share a shape
func (h *BookingHandler) transition(c *gin.Context, spanName string, fn func(ctx context.Context, a service.Actor, bookingID string) (*dto.BookingResponse, error)) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), spanName)
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	bookingID := c.Param("id")
	if bookingID == "" {
		span.SetStatus(codes.Error, "booking id required")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "booking id required",
			Code:  "VALIDATION_ERROR",
		})
		return
	}

	span.SetAttributes(attribute.String("booking_id", bookingID))

	booking, err := fn(ctx, actor(c), bookingID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("status", booking.Status))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, booking)
}

// handleError maps domain errors to HTTP responses
func (h *BookingHandler) handleError(c *gin.Context, err error) {
	switch {
	case domain.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "NOT_FOUND",
		})
	case domain.IsUnauthorizedError(err):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "UNAUTHORIZED",
		})
	case errors.Is(err, domain.ErrIdempotencyMismatch):
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "IDEMPOTENCY_KEY_MISMATCH",
		})
	case errors.Is(err, domain.ErrInsufficientInventory):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "INSUFFICIENT_INVENTORY",
		})
	case errors.Is(err, domain.ErrBlockedDate):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "BLOCKED_DATE",
		})
	case domain.IsConflictError(err):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "CONFLICT",
		})
	case domain.IsValidationError(err):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	case domain.IsRetryableError(err):
		// Lock contention details stay in the span; clients only need to
		// know the request is safe to retry.
		c.Header("Retry-After", "2")
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
			Error: "the reservation could not be processed right now, please try again",
			Code:  "CONCURRENCY_CONFLICT",
		})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: "internal server error",
			Code:  "INTERNAL_ERROR",
		})
	}
}
