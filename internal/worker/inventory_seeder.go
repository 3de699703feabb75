package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/codeWith-akshay/hotel-booking-sub000/internal/database"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/domain"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/logger"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/repository"
)

// InventorySeederConfig contains configuration for the inventory seeder
type InventorySeederConfig struct {
	// Interval between seeding runs
	Interval time.Duration
	// HorizonDays is how far ahead inventory rows are materialized
	HorizonDays int
}

// DefaultInventorySeederConfig returns default configuration
func DefaultInventorySeederConfig() *InventorySeederConfig {
	return &InventorySeederConfig{
		Interval:    6 * time.Hour,
		HorizonDays: 365,
	}
}

// InventorySeeder materializes per-date inventory rows ahead of the booking
// horizon so the reserve transaction rarely has to create them inline.
// Seeding uses ON CONFLICT DO NOTHING, so runs are safe to overlap with
// live reservations.
type InventorySeeder struct {
	db           *database.PostgresDB
	categoryRepo repository.RoomCategoryRepository
	inventory    repository.InventoryRepository
	config       *InventorySeederConfig
	log          *logger.Logger
	stopCh       chan struct{}
	wg           sync.WaitGroup
	mu           sync.Mutex
	running      bool

	lastRunTime time.Time
}

// NewInventorySeeder creates a new inventory seeder
func NewInventorySeeder(
	db *database.PostgresDB,
	categoryRepo repository.RoomCategoryRepository,
	inventory repository.InventoryRepository,
	config *InventorySeederConfig,
) *InventorySeeder {
	if config == nil {
		config = DefaultInventorySeederConfig()
	}

	return &InventorySeeder{
		db:           db,
		categoryRepo: categoryRepo,
		inventory:    inventory,
		config:       config,
		log:          logger.Get(),
		stopCh:       make(chan struct{}),
	}
}

// Start starts the inventory seeder
func (w *InventorySeeder) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("inventory seeder already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("Starting inventory seeder",
		zap.Duration("interval", w.config.Interval),
		zap.Int("horizon_days", w.config.HorizonDays),
	)

	w.wg.Add(1)
	go w.run(ctx)

	return nil
}

// Stop stops the inventory seeder
func (w *InventorySeeder) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.log.Info("Stopping inventory seeder")
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("Inventory seeder stopped")
}

func (w *InventorySeeder) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.SeedOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.SeedOnce(ctx)
		}
	}
}

// SeedOnce seeds inventory rows for every active category over the horizon
func (w *InventorySeeder) SeedOnce(ctx context.Context) {
	w.mu.Lock()
	w.lastRunTime = time.Now()
	w.mu.Unlock()

	categories, err := w.categoryRepo.ListActive(ctx)
	if err != nil {
		w.log.Error("Failed to list active categories for seeding", zap.Error(err))
		return
	}

	start := domain.NormalizeDate(time.Now())
	dates := make([]time.Time, 0, w.config.HorizonDays)
	for i := 0; i < w.config.HorizonDays; i++ {
		dates = append(dates, start.AddDate(0, 0, i))
	}

	for _, category := range categories {
		if err := w.seedCategory(ctx, category.ID, dates, category.TotalRooms); err != nil {
			w.log.Error("Failed to seed inventory",
				zap.String("room_category_id", category.ID),
				zap.Error(err),
			)
			continue
		}
	}

	w.log.Info("Inventory seeding complete",
		zap.Int("categories", len(categories)),
		zap.Int("horizon_days", len(dates)),
	)
}

func (w *InventorySeeder) seedCategory(ctx context.Context, categoryID string, dates []time.Time, totalRooms int) error {
	tx, err := w.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin seeding transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := w.inventory.EnsureRowsTx(ctx, tx, categoryID, dates, totalRooms); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Stats returns worker statistics
func (w *InventorySeeder) Stats() *InventorySeederStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return &InventorySeederStats{
		IsRunning:   w.running,
		LastRunTime: w.lastRunTime,
	}
}

// InventorySeederStats contains worker statistics
type InventorySeederStats struct {
	IsRunning   bool      `json:"is_running"`
	LastRunTime time.Time `json:"last_run_time"`
}
