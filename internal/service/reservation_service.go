package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/codeWith-akshay/hotel-booking-sub000/internal/domain"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/dto"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/logger"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/pricing"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/repository"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/telemetry"
)

// Actor identifies the caller of a service operation. Staff actors may
// operate on any booking; regular actors only on their own.
type Actor struct {
	ID    string
	Staff bool
}

// ReservationService defines the interface for reservation business logic
type ReservationService interface {
	// ReserveRooms reserves rooms for a user with idempotency support
	ReserveRooms(ctx context.Context, actor Actor, req *dto.ReserveRoomsRequest) (*dto.ReserveRoomsResponse, error)

	// QuotePrice prices a prospective reservation without reserving anything
	QuotePrice(ctx context.Context, req *dto.QuoteRequest) (*dto.QuoteResponse, error)

	// GetAvailability returns the availability calendar for a category
	GetAvailability(ctx context.Context, roomCategoryID string, from, to time.Time) (*dto.AvailabilityResponse, error)

	// GetBooking retrieves a booking by ID
	GetBooking(ctx context.Context, actor Actor, bookingID string) (*dto.BookingResponse, error)

	// GetUserBookings retrieves the actor's bookings, newest first
	GetUserBookings(ctx context.Context, actor Actor, page, pageSize int) (*dto.PaginatedBookingsResponse, error)

	// ConfirmBooking transitions a provisional booking to confirmed
	ConfirmBooking(ctx context.Context, actor Actor, bookingID string) (*dto.BookingResponse, error)

	// CancelBooking cancels a booking and restores its inventory
	CancelBooking(ctx context.Context, actor Actor, bookingID, reason string) (*dto.BookingResponse, error)

	// CheckInBooking transitions a confirmed booking to checked in
	CheckInBooking(ctx context.Context, actor Actor, bookingID string) (*dto.BookingResponse, error)

	// CheckOutBooking transitions a checked-in booking to checked out
	CheckOutBooking(ctx context.Context, actor Actor, bookingID string) (*dto.BookingResponse, error)

	// RecordDeposit records an offline deposit payment against a booking
	RecordDeposit(ctx context.Context, actor Actor, bookingID string, amount int64) (*dto.BookingResponse, error)

	// GetAuditTrail retrieves a booking's audit trail
	GetAuditTrail(ctx context.Context, actor Actor, bookingID string) ([]*dto.AuditLogResponse, error)

	// ExpireDeposits cancels provisional bookings whose deposit window elapsed.
	// Returns the number of bookings cancelled.
	ExpireDeposits(ctx context.Context, limit int) (int, error)
}

// reservationService implements ReservationService
type reservationService struct {
	categoryRepo repository.RoomCategoryRepository
	bookingRepo  repository.BookingRepository
	idempotency  repository.IdempotencyRepository
	ruleRepo     repository.SpecialDayRuleRepository
	inventory    repository.InventoryRepository
	auditRepo    repository.AuditLogRepository
	store        repository.ReservationStore
	publisher    EventPublisher
	policy       *pricing.Policy
	depositTTL   time.Duration
	log          *logger.Logger
}

// ReservationServiceConfig contains configuration for the reservation service
type ReservationServiceConfig struct {
	GroupMinRooms  int
	DepositPercent int64
	DepositTTL     time.Duration
}

// NewReservationService creates a new reservation service
func NewReservationService(
	categoryRepo repository.RoomCategoryRepository,
	bookingRepo repository.BookingRepository,
	idempotency repository.IdempotencyRepository,
	ruleRepo repository.SpecialDayRuleRepository,
	inventory repository.InventoryRepository,
	auditRepo repository.AuditLogRepository,
	store repository.ReservationStore,
	publisher EventPublisher,
	log *logger.Logger,
	cfg *ReservationServiceConfig,
) ReservationService {
	policy := pricing.DefaultPolicy()
	depositTTL := 24 * time.Hour
	if cfg != nil {
		if cfg.GroupMinRooms > 0 {
			policy.GroupMinRooms = cfg.GroupMinRooms
		}
		if cfg.DepositPercent > 0 {
			policy.DepositPercent = cfg.DepositPercent
		}
		if cfg.DepositTTL > 0 {
			depositTTL = cfg.DepositTTL
		}
	}
	if publisher == nil {
		publisher = NewNoOpEventPublisher()
	}
	if log == nil {
		log = logger.Get()
	}
	return &reservationService{
		categoryRepo: categoryRepo,
		bookingRepo:  bookingRepo,
		idempotency:  idempotency,
		ruleRepo:     ruleRepo,
		inventory:    inventory,
		auditRepo:    auditRepo,
		store:        store,
		publisher:    publisher,
		policy:       policy,
		depositTTL:   depositTTL,
		log:          log,
	}
}

// ReserveRooms reserves rooms for a user with idempotency support
func (s *reservationService) ReserveRooms(ctx context.Context, actor Actor, req *dto.ReserveRoomsRequest) (*dto.ReserveRoomsResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.reserve")
	defer span.End()

	if actor.ID == "" {
		span.SetStatus(codes.Error, "invalid user_id")
		return nil, domain.ErrInvalidUserID
	}
	if req == nil || req.RoomCategoryID == "" {
		span.SetStatus(codes.Error, "invalid room_category_id")
		return nil, domain.ErrInvalidRoomCategoryID
	}
	if req.RoomsBooked < 1 {
		span.SetStatus(codes.Error, "invalid rooms_booked")
		return nil, domain.ErrInvalidRoomsBooked
	}

	startDate, endDate, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("user_id", actor.ID),
		attribute.String("room_category_id", req.RoomCategoryID),
		attribute.String("start_date", req.StartDate),
		attribute.String("end_date", req.EndDate),
		attribute.Int("rooms_booked", req.RoomsBooked),
	)

	// All input validation, category existence included, runs before the
	// idempotency pre-check so a bad request is rejected the same way
	// whether or not its key was seen before.
	category, err := s.categoryRepo.GetByID(ctx, req.RoomCategoryID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !category.Active {
		span.SetStatus(codes.Error, "category inactive")
		return nil, domain.ErrRoomCategoryInactive
	}

	// Resolve idempotency before any pricing or locking. Clients without a
	// key get a deterministic one derived from the request itself.
	key := req.IdempotencyKey
	if key == "" {
		key = domain.DeriveIdempotencyKey(actor.ID, req.RoomCategoryID, startDate, endDate, req.RoomsBooked)
	}
	fingerprint := domain.RequestFingerprint(actor.ID, req.RoomCategoryID, startDate, endDate, req.RoomsBooked)

	if cached, err := s.replayIdempotent(ctx, key, fingerprint); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	} else if cached != nil {
		span.AddEvent("idempotent_replay", trace.WithAttributes(
			attribute.String("booking_id", cached.ID),
		))
		span.SetStatus(codes.Ok, "replay")
		return &dto.ReserveRoomsResponse{Booking: dto.FromDomain(cached), IdempotencyKey: key, IsFromCache: true}, nil
	}

	// Price outside the critical section. The rules snapshot taken here is
	// the one the booking is priced against.
	quote, err := s.quote(ctx, category, startDate, endDate, req.RoomsBooked)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var deposit *int64
	if quote.RequiresDeposit {
		d := quote.DepositAmount
		deposit = &d
	}

	booking, err := domain.NewBooking(actor.ID, category.ID, startDate, endDate, req.RoomsBooked, quote.TotalPrice, deposit)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	params := &repository.CreateReservationParams{
		Booking:        booking,
		IdempotencyKey: key,
		Fingerprint:    fingerprint,
		TotalRooms:     category.TotalRooms,
		ActorID:        actor.ID,
	}

	if err := s.store.CreateReservation(ctx, params); err != nil {
		// Lost the key race to a concurrent identical request. The winner's
		// booking is committed; replay it.
		if errors.Is(err, domain.ErrIdempotencyKeyExists) {
			cached, replayErr := s.replayIdempotent(ctx, key, fingerprint)
			if replayErr != nil {
				span.SetStatus(codes.Error, replayErr.Error())
				return nil, replayErr
			}
			if cached != nil {
				span.SetStatus(codes.Ok, "replay")
				return &dto.ReserveRoomsResponse{Booking: dto.FromDomain(cached), IdempotencyKey: key, IsFromCache: true}, nil
			}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.publishAsync(domain.BookingEventCreated, booking)

	span.AddEvent("reservation_created", trace.WithAttributes(
		attribute.String("booking_id", booking.ID),
		attribute.Int64("total_price", booking.TotalPrice),
		attribute.String("status", booking.Status.String()),
	))
	span.SetAttributes(attribute.String("booking_id", booking.ID))
	span.SetStatus(codes.Ok, "")
	return &dto.ReserveRoomsResponse{Booking: dto.FromDomain(booking), IdempotencyKey: key}, nil
}

// QuotePrice prices a prospective reservation without reserving anything
func (s *reservationService) QuotePrice(ctx context.Context, req *dto.QuoteRequest) (*dto.QuoteResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.quote")
	defer span.End()

	if req == nil || req.RoomCategoryID == "" {
		span.SetStatus(codes.Error, "invalid room_category_id")
		return nil, domain.ErrInvalidRoomCategoryID
	}
	if req.RoomsBooked < 1 {
		span.SetStatus(codes.Error, "invalid rooms_booked")
		return nil, domain.ErrInvalidRoomsBooked
	}

	startDate, endDate, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	category, err := s.categoryRepo.GetByID(ctx, req.RoomCategoryID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !category.Active {
		span.SetStatus(codes.Error, "category inactive")
		return nil, domain.ErrRoomCategoryInactive
	}

	quote, err := s.quote(ctx, category, startDate, endDate, req.RoomsBooked)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.QuoteFromPricing(quote), nil
}

// GetAvailability returns the availability calendar for a category
func (s *reservationService) GetAvailability(ctx context.Context, roomCategoryID string, from, to time.Time) (*dto.AvailabilityResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.availability")
	defer span.End()

	if roomCategoryID == "" {
		span.SetStatus(codes.Error, "invalid room_category_id")
		return nil, domain.ErrInvalidRoomCategoryID
	}
	if !from.Before(to) {
		span.SetStatus(codes.Error, "invalid date range")
		return nil, domain.ErrInvalidDateRange
	}

	if _, err := s.categoryRepo.GetByID(ctx, roomCategoryID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	calendar, err := s.inventory.GetAvailability(ctx, roomCategoryID, from, to)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.AvailabilityFromDomain(roomCategoryID, calendar), nil
}

// GetBooking retrieves a booking by ID
func (s *reservationService) GetBooking(ctx context.Context, actor Actor, bookingID string) (*dto.BookingResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.get")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", bookingID))

	booking, err := s.authorizedBooking(ctx, actor, bookingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.FromDomain(booking), nil
}

// GetUserBookings retrieves the actor's bookings, newest first
func (s *reservationService) GetUserBookings(ctx context.Context, actor Actor, page, pageSize int) (*dto.PaginatedBookingsResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.list_user")
	defer span.End()

	if actor.ID == "" {
		span.SetStatus(codes.Error, "invalid user_id")
		return nil, domain.ErrInvalidUserID
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	span.SetAttributes(
		attribute.String("user_id", actor.ID),
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
	)

	offset := (page - 1) * pageSize
	bookings, err := s.bookingRepo.ListByUser(ctx, actor.ID, pageSize, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	responses := make([]*dto.BookingResponse, len(bookings))
	for i, b := range bookings {
		responses[i] = dto.FromDomain(b)
	}

	span.SetAttributes(attribute.Int("count", len(responses)))
	span.SetStatus(codes.Ok, "")
	return &dto.PaginatedBookingsResponse{
		Data:     responses,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// ConfirmBooking transitions a provisional booking to confirmed. The store
// re-checks blocked-date rules inside the confirm transaction; a rule
// activated since the reservation still vetoes the stay.
func (s *reservationService) ConfirmBooking(ctx context.Context, actor Actor, bookingID string) (*dto.BookingResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.confirm")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", bookingID))

	if _, err := s.authorizedBooking(ctx, actor, bookingID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	confirmed, err := s.store.ConfirmBooking(ctx, bookingID, actor.ID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.publishAsync(domain.BookingEventConfirmed, confirmed)

	span.SetStatus(codes.Ok, "")
	return dto.FromDomain(confirmed), nil
}

// CancelBooking cancels a booking and restores its inventory
func (s *reservationService) CancelBooking(ctx context.Context, actor Actor, bookingID, reason string) (*dto.BookingResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.cancel")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", bookingID))

	if _, err := s.authorizedBooking(ctx, actor, bookingID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	cancelled, err := s.store.CancelBooking(ctx, bookingID, actor.ID, reason)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.publishAsync(domain.BookingEventCancelled, cancelled)

	span.AddEvent("booking_cancelled", trace.WithAttributes(
		attribute.String("booking_id", bookingID),
		attribute.Int("rooms_booked", cancelled.RoomsBooked),
	))
	span.SetStatus(codes.Ok, "")
	return dto.FromDomain(cancelled), nil
}

// CheckInBooking transitions a confirmed booking to checked in. Staff only.
func (s *reservationService) CheckInBooking(ctx context.Context, actor Actor, bookingID string) (*dto.BookingResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.check_in")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", bookingID))

	if !actor.Staff {
		span.SetStatus(codes.Error, "not staff")
		return nil, domain.ErrUnauthorized
	}

	booking, err := s.store.CheckInBooking(ctx, bookingID, actor.ID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.publishAsync(domain.BookingEventCheckedIn, booking)

	span.SetStatus(codes.Ok, "")
	return dto.FromDomain(booking), nil
}

// CheckOutBooking transitions a checked-in booking to checked out. Staff only.
func (s *reservationService) CheckOutBooking(ctx context.Context, actor Actor, bookingID string) (*dto.BookingResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.check_out")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", bookingID))

	if !actor.Staff {
		span.SetStatus(codes.Error, "not staff")
		return nil, domain.ErrUnauthorized
	}

	booking, err := s.store.CheckOutBooking(ctx, bookingID, actor.ID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.publishAsync(domain.BookingEventCheckedOut, booking)

	span.SetStatus(codes.Ok, "")
	return dto.FromDomain(booking), nil
}

// RecordDeposit records an offline deposit payment against a booking. Staff
// only; deposits are paid at the front desk or by bank transfer, never
// through this API's callers directly.
func (s *reservationService) RecordDeposit(ctx context.Context, actor Actor, bookingID string, amount int64) (*dto.BookingResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.record_deposit")
	defer span.End()

	span.SetAttributes(
		attribute.String("booking_id", bookingID),
		attribute.Int64("amount", amount),
	)

	if !actor.Staff {
		span.SetStatus(codes.Error, "not staff")
		return nil, domain.ErrUnauthorized
	}
	if amount <= 0 {
		span.SetStatus(codes.Error, "invalid amount")
		return nil, domain.ErrInvalidAmount
	}

	booking, err := s.store.RecordDeposit(ctx, bookingID, actor.ID, amount)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.publishAsync(domain.BookingEventDepositPaid, booking)

	span.SetStatus(codes.Ok, "")
	return dto.FromDomain(booking), nil
}

// GetAuditTrail retrieves a booking's audit trail
func (s *reservationService) GetAuditTrail(ctx context.Context, actor Actor, bookingID string) ([]*dto.AuditLogResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.audit_trail")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", bookingID))

	if _, err := s.authorizedBooking(ctx, actor, bookingID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	entries, err := s.auditRepo.ListByBooking(ctx, bookingID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	responses := make([]*dto.AuditLogResponse, len(entries))
	for i, e := range entries {
		responses[i] = dto.AuditLogFromDomain(e)
	}

	span.SetStatus(codes.Ok, "")
	return responses, nil
}

// ExpireDeposits cancels provisional bookings whose deposit window elapsed
func (s *reservationService) ExpireDeposits(ctx context.Context, limit int) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.expire_deposits")
	defer span.End()

	if limit <= 0 {
		limit = 100
	}

	cutoff := time.Now().Add(-s.depositTTL)
	span.SetAttributes(
		attribute.Int("limit", limit),
		attribute.String("cutoff", cutoff.Format(time.RFC3339)),
	)

	bookings, err := s.bookingRepo.ListDepositExpired(ctx, cutoff, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	expired := 0
	for _, b := range bookings {
		cancelled, err := s.store.CancelBooking(ctx, b.ID, "system", "deposit not paid within window")
		if err != nil {
			// Racing a payment or a manual cancel is expected; skip and
			// let the next sweep re-evaluate.
			s.log.Warn("deposit expiry cancel failed",
				zap.String("booking_id", b.ID),
				zap.Error(err),
			)
			continue
		}

		s.publishAsync(domain.BookingEventDepositExpired, cancelled)
		expired++
	}

	span.SetAttributes(attribute.Int("expired_count", expired))
	span.SetStatus(codes.Ok, "")
	return expired, nil
}

// replayIdempotent returns the booking recorded under key, or nil on a miss.
// A fingerprint mismatch means the key was reused for a different request.
func (s *reservationService) replayIdempotent(ctx context.Context, key, fingerprint string) (*domain.Booking, error) {
	record, err := s.idempotency.Find(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if record.Fingerprint != fingerprint {
		return nil, &domain.IdempotencyMismatchError{Key: key}
	}

	return s.bookingRepo.GetByID(ctx, record.BookingID)
}

// quote loads the rules snapshot and prices the request, rejecting ranges
// that contain a blocked date
func (s *reservationService) quote(ctx context.Context, category *domain.RoomCategory, startDate, endDate time.Time, roomsBooked int) (*pricing.Quote, error) {
	rules, err := s.ruleRepo.ListForRange(ctx, category.ID, startDate, endDate)
	if err != nil {
		return nil, err
	}

	quote, err := pricing.Compute(category, startDate, endDate, roomsBooked, rules, s.policy)
	if err != nil {
		return nil, err
	}
	if quote.Blocked {
		return nil, &domain.BlockedDateError{Date: quote.BlockedDate, Reason: quote.BlockedReason}
	}

	return quote, nil
}

// authorizedBooking loads a booking and verifies the actor may operate on it
func (s *reservationService) authorizedBooking(ctx context.Context, actor Actor, bookingID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, domain.ErrInvalidBookingID
	}
	if actor.ID == "" {
		return nil, domain.ErrInvalidUserID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !actor.Staff && booking.UserID != actor.ID {
		return nil, domain.ErrUnauthorized
	}

	return booking, nil
}

// publishAsync publishes a lifecycle event without blocking the request.
// Publish failures are logged, never surfaced; the booking state in
// PostgreSQL is the source of truth.
func (s *reservationService) publishAsync(eventType domain.BookingEventType, booking *domain.Booking) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.publisher.PublishBookingEvent(ctx, eventType, booking); err != nil {
			s.log.Error("failed to publish booking event",
				zap.String("event_type", string(eventType)),
				zap.String("booking_id", booking.ID),
				zap.Error(err),
			)
		}
	}()
}

// parseDateRange parses and validates a stay's date strings
func parseDateRange(start, end string) (time.Time, time.Time, error) {
	startDate, err := domain.ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, domain.ErrInvalidDateRange
	}
	endDate, err := domain.ParseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, domain.ErrInvalidDateRange
	}
	if !startDate.Before(endDate) {
		return time.Time{}, time.Time{}, domain.ErrInvalidDateRange
	}
	if len(domain.NightsBetween(startDate, endDate)) > domain.MaxStayNights {
		return time.Time{}, time.Time{}, domain.ErrDateRangeTooLong
	}
	return startDate, endDate, nil
}
