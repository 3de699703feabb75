package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/codeWith-akshay/hotel-booking-sub000/internal/logger"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/service"
)

// DepositExpiryWorkerConfig contains configuration for the deposit expiry worker
type DepositExpiryWorkerConfig struct {
	// ScanInterval is the interval between scans for lapsed deposits
	ScanInterval time.Duration
	// BatchSize is the number of bookings to cancel in each scan
	BatchSize int
}

// DefaultDepositExpiryWorkerConfig returns default configuration
func DefaultDepositExpiryWorkerConfig() *DepositExpiryWorkerConfig {
	return &DepositExpiryWorkerConfig{
		ScanInterval: 1 * time.Minute,
		BatchSize:    100,
	}
}

// DepositExpiryWorker cancels provisional bookings whose deposit window
// elapsed without payment, releasing their held inventory.
type DepositExpiryWorker struct {
	reservationService service.ReservationService
	config             *DepositExpiryWorkerConfig
	log                *logger.Logger
	stopCh             chan struct{}
	wg                 sync.WaitGroup
	mu                 sync.Mutex
	running            bool

	totalExpired int64
	lastScanTime time.Time
}

// NewDepositExpiryWorker creates a new deposit expiry worker
func NewDepositExpiryWorker(reservationService service.ReservationService, config *DepositExpiryWorkerConfig) *DepositExpiryWorker {
	if config == nil {
		config = DefaultDepositExpiryWorkerConfig()
	}

	return &DepositExpiryWorker{
		reservationService: reservationService,
		config:             config,
		log:                logger.Get(),
		stopCh:             make(chan struct{}),
	}
}

// Start starts the deposit expiry worker
func (w *DepositExpiryWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("deposit expiry worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("Starting deposit expiry worker",
		zap.Duration("scan_interval", w.config.ScanInterval),
		zap.Int("batch_size", w.config.BatchSize),
	)

	w.wg.Add(1)
	go w.scan(ctx)

	return nil
}

// Stop stops the deposit expiry worker
func (w *DepositExpiryWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.log.Info("Stopping deposit expiry worker")
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("Deposit expiry worker stopped")
}

// scan runs one sweep on start, then on every tick
func (w *DepositExpiryWorker) scan(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.ScanInterval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep cancels one batch of lapsed provisional bookings
func (w *DepositExpiryWorker) sweep(ctx context.Context) {
	w.mu.Lock()
	w.lastScanTime = time.Now()
	w.mu.Unlock()

	expired, err := w.reservationService.ExpireDeposits(ctx, w.config.BatchSize)
	if err != nil {
		w.log.Error("Deposit expiry sweep failed", zap.Error(err))
		return
	}

	if expired > 0 {
		w.mu.Lock()
		w.totalExpired += int64(expired)
		w.mu.Unlock()
		w.log.Info("Cancelled bookings with lapsed deposits", zap.Int("count", expired))
	}
}

// Stats returns worker statistics
func (w *DepositExpiryWorker) Stats() *DepositExpiryWorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return &DepositExpiryWorkerStats{
		IsRunning:    w.running,
		TotalExpired: w.totalExpired,
		LastScanTime: w.lastScanTime,
	}
}

// DepositExpiryWorkerStats contains worker statistics
type DepositExpiryWorkerStats struct {
	IsRunning    bool      `json:"is_running"`
	TotalExpired int64     `json:"total_expired"`
	LastScanTime time.Time `json:"last_scan_time"`
}
