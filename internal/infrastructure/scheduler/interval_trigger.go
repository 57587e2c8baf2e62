package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IntervalTriggerConfig holds the per-kind run intervals
type IntervalTriggerConfig struct {
	CatalogSyncInterval    time.Duration
	StockSyncInterval      time.Duration
	ReviewSyncInterval     time.Duration
	ReconciliationInterval time.Duration

	// CheckInterval is how often due jobs are looked for
	CheckInterval time.Duration
}

// DefaultIntervalTriggerConfig returns default trigger intervals
func DefaultIntervalTriggerConfig() IntervalTriggerConfig {
	return IntervalTriggerConfig{
		CatalogSyncInterval:    24 * time.Hour,
		StockSyncInterval:      1 * time.Hour,
		ReviewSyncInterval:     12 * time.Hour,
		ReconciliationInterval: 6 * time.Hour,
		CheckInterval:          time.Minute,
	}
}

func (c IntervalTriggerConfig) intervalFor(kind SyncJobKind) time.Duration {
	switch kind {
	case JobKindCatalogSync:
		return c.CatalogSyncInterval
	case JobKindStockSync:
		return c.StockSyncInterval
	case JobKindReviewSync:
		return c.ReviewSyncInterval
	case JobKindReconciliationSweep:
		return c.ReconciliationInterval
	default:
		return 0
	}
}

// IntervalTrigger periodically submits sync jobs to the scheduler. Each job
// kind runs on its own interval; a zero interval disables that kind.
type IntervalTrigger struct {
	config     IntervalTriggerConfig
	scheduler  *SyncScheduler
	supplierID uuid.UUID
	logger     *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRun   map[SyncJobKind]time.Time
}

// NewIntervalTrigger creates a trigger for one supplier connection
func NewIntervalTrigger(
	config IntervalTriggerConfig,
	scheduler *SyncScheduler,
	supplierID uuid.UUID,
	logger *zap.Logger,
) *IntervalTrigger {
	return &IntervalTrigger{
		config:     config,
		scheduler:  scheduler,
		supplierID: supplierID,
		logger:     logger,
		lastRun:    make(map[SyncJobKind]time.Time),
	}
}

// Start starts the trigger loop
func (t *IntervalTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Sync trigger started",
		zap.Duration("catalog_interval", t.config.CatalogSyncInterval),
		zap.Duration("stock_interval", t.config.StockSyncInterval),
		zap.Duration("review_interval", t.config.ReviewSyncInterval),
		zap.Duration("reconciliation_interval", t.config.ReconciliationInterval),
	)

	return nil
}

// Stop stops the trigger loop
func (t *IntervalTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Sync trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop checks periodically for due job kinds
func (t *IntervalTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.checkAndTrigger()
		}
	}
}

// checkAndTrigger submits every job kind whose interval has elapsed
func (t *IntervalTrigger) checkAndTrigger() {
	now := time.Now()

	for _, kind := range AllJobKinds() {
		interval := t.config.intervalFor(kind)
		if interval <= 0 {
			continue
		}

		t.mu.Lock()
		last, ran := t.lastRun[kind]
		due := !ran || now.Sub(last) >= interval
		if due {
			t.lastRun[kind] = now
		}
		t.mu.Unlock()

		if !due {
			continue
		}

		if err := t.scheduler.ScheduleJob(t.supplierID, kind); err != nil {
			t.logger.Error("Failed to schedule sync job",
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
			// Let the next tick retry instead of waiting a full interval.
			t.mu.Lock()
			delete(t.lastRun, kind)
			t.mu.Unlock()
		}
	}
}

// TriggerManual submits a job of the given kind immediately
func (t *IntervalTrigger) TriggerManual(kind SyncJobKind) error {
	return t.scheduler.ScheduleJob(t.supplierID, kind)
}
