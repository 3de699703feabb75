package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/codeWith-akshay/hotel-booking-sub000/internal/config"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/database"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/di"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/logger"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/middleware"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/redis"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/service"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog, err := logger.Init(&logger.Config{
		Environment: cfg.App.Environment,
		Level:       "info",
		ServiceName: cfg.App.Name,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLog.Sync() }()

	appLog.Info("Starting reservation service",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx := context.Background()

	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		appLog.Warn("Telemetry initialization failed, continuing without tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   time.Second,
		EnableTracing:   cfg.OTel.Enabled,
	})
	if err != nil {
		appLog.Fatal("Database connection failed", zap.Error(err))
	}
	defer db.Close()
	appLog.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("max_conns", cfg.Database.MaxOpenConns),
	)

	redisClient, err := redis.NewClient(ctx, &redis.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLog.Fatal("Redis connection failed", zap.Error(err))
	}
	defer redisClient.Close()
	appLog.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))

	var eventPublisher service.EventPublisher
	if cfg.Kafka.Enabled() {
		eventPublisher, err = service.NewKafkaEventPublisher(ctx, &service.EventPublisherConfig{
			Brokers:     cfg.Kafka.Brokers,
			Topic:       cfg.Kafka.Topic,
			ServiceName: cfg.App.Name,
			ClientID:    cfg.Kafka.ClientID,
		})
		if err != nil {
			appLog.Warn("Kafka connection failed, using no-op publisher", zap.Error(err))
			eventPublisher = service.NewNoOpEventPublisher()
		} else {
			appLog.Info("Kafka event publisher connected", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		appLog.Info("Kafka not configured, events disabled")
		eventPublisher = service.NewNoOpEventPublisher()
	}

	container, err := di.NewContainer(&di.ContainerConfig{
		Config:         cfg,
		DB:             db,
		Redis:          redisClient,
		EventPublisher: eventPublisher,
		Log:            appLog,
	})
	if err != nil {
		appLog.Fatal("Failed to build container", zap.Error(err))
	}

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	if err := container.StartWorkers(workerCtx); err != nil {
		appLog.Fatal("Failed to start workers", zap.Error(err))
	}
	defer container.StopWorkers()

	router := buildRouter(cfg, container, redisClient, appLog)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		appLog.Info("Reservation service listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal("Server forced to shutdown", zap.Error(err))
	}

	appLog.Info("Server exited gracefully")
}

func buildRouter(cfg *config.Config, container *di.Container, redisClient *redis.Client, appLog *logger.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		gin.DisableConsoleColor()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(appLog))

	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	idempotencyConfig := middleware.DefaultIdempotencyConfig(redisClient)
	idempotent := middleware.Idempotency(idempotencyConfig)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWT.Secret))
	{
		bookings := v1.Group("/bookings")
		{
			bookings.POST("/reserve", idempotent, container.BookingHandler.ReserveRooms)
			bookings.POST("/quote", container.BookingHandler.QuotePrice)
			bookings.GET("", container.BookingHandler.GetUserBookings)
			bookings.GET("/:id", container.BookingHandler.GetBooking)
			bookings.GET("/:id/audit", container.BookingHandler.GetAuditTrail)
			bookings.POST("/:id/confirm", idempotent, container.BookingHandler.ConfirmBooking)
			bookings.POST("/:id/cancel", idempotent, container.BookingHandler.CancelBooking)
		}

		v1.GET("/room-categories/:id/availability", container.BookingHandler.GetAvailability)

		// Front desk operations
		staff := v1.Group("/bookings")
		staff.Use(middleware.RequireStaff())
		{
			staff.POST("/:id/check-in", container.BookingHandler.CheckIn)
			staff.POST("/:id/check-out", container.BookingHandler.CheckOut)
			staff.POST("/:id/deposit", idempotent, container.BookingHandler.RecordDeposit)
		}

		admin := v1.Group("/admin/special-days")
		admin.Use(middleware.RequireAdmin())
		{
			admin.POST("", container.SpecialDayHandler.CreateRule)
			admin.GET("", container.SpecialDayHandler.ListRules)
			admin.GET("/:id", container.SpecialDayHandler.GetRule)
			admin.PUT("/:id", container.SpecialDayHandler.UpdateRule)
			admin.DELETE("/:id", container.SpecialDayHandler.DeleteRule)
		}
	}

	return router
}
