package di

import (
	"context"
	"fmt"

	"github.com/codeWith-akshay/hotel-booking-sub000/internal/config"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/database"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/handler"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/logger"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/redis"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/repository"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/service"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/worker"
)

// Container holds all dependencies for the reservation service
type Container struct {
	// Infrastructure
	Config *config.Config
	DB     *database.PostgresDB
	Redis  *redis.Client

	// Repositories
	CategoryRepo    repository.RoomCategoryRepository
	InventoryRepo   repository.InventoryRepository
	BookingRepo     repository.BookingRepository
	IdempotencyRepo repository.IdempotencyRepository
	RuleRepo        repository.SpecialDayRuleRepository
	AuditRepo       repository.AuditLogRepository
	Store           repository.ReservationStore

	// Publishers
	EventPublisher service.EventPublisher

	// Services
	ReservationService service.ReservationService
	SpecialDayService  service.SpecialDayService

	// Handlers
	HealthHandler     *handler.HealthHandler
	BookingHandler    *handler.BookingHandler
	SpecialDayHandler *handler.SpecialDayHandler

	// Workers
	DepositExpiryWorker *worker.DepositExpiryWorker
	InventorySeeder     *worker.InventorySeeder
}

// ContainerConfig contains the externally-built infrastructure
type ContainerConfig struct {
	Config         *config.Config
	DB             *database.PostgresDB
	Redis          *redis.Client
	EventPublisher service.EventPublisher
	Log            *logger.Logger
}

// NewContainer wires repositories, services, handlers and workers
func NewContainer(cfg *ContainerConfig) (*Container, error) {
	if cfg == nil || cfg.Config == nil {
		return nil, fmt.Errorf("container config is required")
	}
	if cfg.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	c := &Container{
		Config:         cfg.Config,
		DB:             cfg.DB,
		Redis:          cfg.Redis,
		EventPublisher: cfg.EventPublisher,
	}

	pool := c.DB.Pool()

	// Repositories
	categoryRepo := repository.NewPostgresRoomCategoryRepository(pool)
	inventoryRepo := repository.NewPostgresInventoryRepository(pool)
	bookingRepo := repository.NewPostgresBookingRepository(pool)
	idempotencyRepo := repository.NewPostgresIdempotencyRepository(pool)
	auditRepo := repository.NewPostgresAuditRepository(pool)
	pgRuleRepo := repository.NewPostgresSpecialDayRepository(pool)
	ruleRepo := repository.NewCachedSpecialDayRepository(pgRuleRepo, c.Redis)

	c.CategoryRepo = categoryRepo
	c.InventoryRepo = inventoryRepo
	c.BookingRepo = bookingRepo
	c.IdempotencyRepo = idempotencyRepo
	c.AuditRepo = auditRepo
	c.RuleRepo = ruleRepo

	c.Store = repository.NewTransactionalReservationRepository(
		pool,
		inventoryRepo,
		bookingRepo,
		idempotencyRepo,
		auditRepo,
		pgRuleRepo,
		&repository.TxConfig{
			LockTimeout:      c.Config.Reservation.LockTimeout,
			StatementTimeout: c.Config.Reservation.StatementTimeout,
		},
	)

	// Services
	c.ReservationService = service.NewReservationService(
		c.CategoryRepo,
		c.BookingRepo,
		c.IdempotencyRepo,
		c.RuleRepo,
		c.InventoryRepo,
		c.AuditRepo,
		c.Store,
		c.EventPublisher,
		cfg.Log,
		&service.ReservationServiceConfig{
			GroupMinRooms:  c.Config.Reservation.GroupMinRooms,
			DepositPercent: c.Config.Reservation.DepositPercent,
			DepositTTL:     c.Config.Reservation.DepositTTL,
		},
	)
	c.SpecialDayService = service.NewSpecialDayService(c.RuleRepo, c.CategoryRepo)

	// Handlers
	c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis, c.Config.App.Name, c.Config.App.Version)
	c.BookingHandler = handler.NewBookingHandler(c.ReservationService)
	c.SpecialDayHandler = handler.NewSpecialDayHandler(c.SpecialDayService)

	// Workers
	c.DepositExpiryWorker = worker.NewDepositExpiryWorker(c.ReservationService, nil)
	c.InventorySeeder = worker.NewInventorySeeder(c.DB, c.CategoryRepo, c.InventoryRepo, &worker.InventorySeederConfig{
		Interval:    worker.DefaultInventorySeederConfig().Interval,
		HorizonDays: c.Config.Reservation.SeedHorizonDays,
	})

	return c, nil
}

// StartWorkers starts the background workers
func (c *Container) StartWorkers(ctx context.Context) error {
	if err := c.InventorySeeder.Start(ctx); err != nil {
		return err
	}
	return c.DepositExpiryWorker.Start(ctx)
}

// StopWorkers stops the background workers
func (c *Container) StopWorkers() {
	c.DepositExpiryWorker.Stop()
	c.InventorySeeder.Stop()
}

// Close releases the container's infrastructure resources
func (c *Container) Close() error {
	c.StopWorkers()

	var firstErr error
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			firstErr = err
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
	return firstErr
}
