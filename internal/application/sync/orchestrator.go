package sync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/supplier"
)

// OrchestratorConfig bounds the batch jobs
type OrchestratorConfig struct {
	// Workers is the size of the worker pool per job
	Workers int
	// BatchSize is how many units are loaded from storage at a time
	BatchSize int
	// ReviewPageSize is the supplier page size used by the review sync
	ReviewPageSize int
}

// DefaultOrchestratorConfig returns conservative job bounds
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		Workers:        4,
		BatchSize:      100,
		ReviewPageSize: 50,
	}
}

// SyncOrchestrator runs the periodic batch jobs for one supplier
// connection: stock refresh, review refresh and the reconciliation sweep.
// Each job walks its target set in bounded batches through a fixed worker
// pool; the supplier-side pacing comes from the dispatcher underneath the
// gateway, so workers here only bound local concurrency. Jobs are
// idempotent by construction and resume naturally on the next run.
type SyncOrchestrator struct {
	supplierID uuid.UUID
	gateway    supplier.Gateway
	products   catalog.ProductRepository
	variants   catalog.VariantRepository
	reviews    catalog.ProductReviewRepository
	reconciler *ReconciliationService
	config     OrchestratorConfig
	logger     *zap.Logger
}

// NewSyncOrchestrator creates an orchestrator for one supplier connection
func NewSyncOrchestrator(
	supplierID uuid.UUID,
	gateway supplier.Gateway,
	products catalog.ProductRepository,
	variants catalog.VariantRepository,
	reviews catalog.ProductReviewRepository,
	reconciler *ReconciliationService,
	config OrchestratorConfig,
	logger *zap.Logger,
) *SyncOrchestrator {
	if config.Workers < 1 {
		config.Workers = DefaultOrchestratorConfig().Workers
	}
	if config.BatchSize < 1 {
		config.BatchSize = DefaultOrchestratorConfig().BatchSize
	}
	if config.ReviewPageSize < 1 {
		config.ReviewPageSize = DefaultOrchestratorConfig().ReviewPageSize
	}
	return &SyncOrchestrator{
		supplierID: supplierID,
		gateway:    gateway,
		products:   products,
		variants:   variants,
		reviews:    reviews,
		reconciler: reconciler,
		config:     config,
		logger:     logger,
	}
}

// ---------------------------------------------------------------------------
// Stock Sync
// ---------------------------------------------------------------------------

// RunStockSync refreshes stock levels for every active variant from the
// supplier. Cancellation stops picking new variants; in-flight lookups
// finish.
func (o *SyncOrchestrator) RunStockSync(ctx context.Context) (SyncSummary, error) {
	startedAt := time.Now()
	counters := &summaryCounters{}

	err := o.forEachVariant(ctx, func(ctx context.Context, variant *catalog.Variant) {
		counters.scanned.Add(1)

		if !variant.Active || variant.VID == "" {
			counters.skipped.Add(1)
			return
		}

		stock, err := o.gateway.GetStockByVID(ctx, variant.VID)
		if err != nil {
			if errors.Is(err, supplier.ErrVariantNotFound) {
				// An unknown vid is the reconciliation sweep's problem.
				counters.skipped.Add(1)
				return
			}
			counters.failed.Add(1)
			o.logger.Warn("stock lookup failed",
				zap.String("vid", variant.VID),
				zap.Error(err),
			)
			return
		}

		if stock == variant.Stock {
			counters.skipped.Add(1)
			return
		}
		variant.SetStock(stock)
		if err := o.variants.Save(ctx, variant); err != nil {
			counters.failed.Add(1)
			o.logger.Warn("stock write failed",
				zap.String("vid", variant.VID),
				zap.Error(err),
			)
			return
		}
		counters.updated.Add(1)
	})

	summary := counters.summary("stock_sync", startedAt)
	o.logFinished(summary)
	return summary, err
}

// ---------------------------------------------------------------------------
// Review Sync
// ---------------------------------------------------------------------------

// RunReviewSync imports new supplier reviews for every active product.
// Already-imported reviews are recognized by their supplier id and skipped.
func (o *SyncOrchestrator) RunReviewSync(ctx context.Context) (SyncSummary, error) {
	startedAt := time.Now()
	counters := &summaryCounters{}

	err := o.forEachActiveProduct(ctx, func(ctx context.Context, product *catalog.Product) {
		counters.scanned.Add(1)
		if err := o.syncProductReviews(ctx, product, counters); err != nil {
			counters.failed.Add(1)
			o.logger.Warn("review sync failed for product",
				zap.String("pid", product.PID),
				zap.Error(err),
			)
		}
	})

	summary := counters.summary("review_sync", startedAt)
	o.logFinished(summary)
	return summary, err
}

func (o *SyncOrchestrator) syncProductReviews(ctx context.Context, product *catalog.Product, counters *summaryCounters) error {
	pageNum := 1
	for {
		page, err := o.gateway.ListReviews(ctx, product.PID, pageNum, o.config.ReviewPageSize)
		if err != nil {
			if errors.Is(err, supplier.ErrProductNotFound) {
				return nil
			}
			return err
		}

		for i := range page.Reviews {
			external := &page.Reviews[i]
			existing, err := o.reviews.FindByExternalID(ctx, product.ID, external.ReviewID)
			if err != nil {
				return err
			}
			if existing != nil {
				counters.skipped.Add(1)
				continue
			}

			review, err := catalog.NewProductReview(product.ID, external.ReviewID, external.Score)
			if err != nil {
				counters.skipped.Add(1)
				continue
			}
			review.Content = external.Comment
			review.Reviewer = external.Reviewer
			review.CountryCode = external.CountryCode
			if err := o.reviews.Save(ctx, review); err != nil {
				return err
			}
			counters.imported.Add(1)
		}

		if !page.HasMore() {
			return nil
		}
		pageNum++
	}
}

// ---------------------------------------------------------------------------
// Reconciliation Sweep
// ---------------------------------------------------------------------------

// RunReconciliationSweep checks every stored variant identity against the
// supplier and repairs or deactivates the suspects.
func (o *SyncOrchestrator) RunReconciliationSweep(ctx context.Context) (SyncSummary, error) {
	startedAt := time.Now()
	counters := &summaryCounters{}

	err := o.forEachVariant(ctx, func(ctx context.Context, variant *catalog.Variant) {
		counters.scanned.Add(1)

		result, err := o.reconciler.ReconcileVariant(ctx, variant)
		if err != nil {
			counters.failed.Add(1)
			o.logger.Warn("reconciliation failed",
				zap.String("variant_id", variant.ID.String()),
				zap.Error(err),
			)
			return
		}

		switch result.Outcome {
		case OutcomeCorrected:
			counters.corrected.Add(1)
		case OutcomeDeactivated:
			counters.deactivated.Add(1)
		default:
			counters.skipped.Add(1)
		}
	})

	summary := counters.summary("reconciliation_sweep", startedAt)
	o.logFinished(summary)
	return summary, err
}

// ---------------------------------------------------------------------------
// Worker Pool
// ---------------------------------------------------------------------------

// forEachVariant feeds every stored variant through the worker pool.
// Batches are loaded page by page so memory stays bounded regardless of
// catalog size.
func (o *SyncOrchestrator) forEachVariant(ctx context.Context, work func(ctx context.Context, variant *catalog.Variant)) error {
	units := make(chan *catalog.Variant)
	done := startWorkers(ctx, o.config.Workers, units, work)

	var feedErr error
	page := 1
feed:
	for {
		filter := shared.Filter{Page: page, PageSize: o.config.BatchSize, OrderBy: "created_at", OrderDir: "asc"}
		batch, err := o.variants.FindAll(ctx, filter)
		if err != nil {
			feedErr = err
			break
		}
		if len(batch) == 0 {
			break
		}
		for i := range batch {
			// Cancellation stops picking new units; in-flight units finish.
			if ctx.Err() != nil {
				feedErr = ctx.Err()
				break feed
			}
			select {
			case units <- &batch[i]:
			case <-ctx.Done():
				feedErr = ctx.Err()
				break feed
			}
		}
		if len(batch) < o.config.BatchSize {
			break
		}
		page++
	}

	close(units)
	<-done
	return feedErr
}

// forEachActiveProduct feeds every active product through the worker pool
func (o *SyncOrchestrator) forEachActiveProduct(ctx context.Context, work func(ctx context.Context, product *catalog.Product)) error {
	units := make(chan *catalog.Product)
	done := startWorkers(ctx, o.config.Workers, units, work)

	var feedErr error
	page := 1
feed:
	for {
		filter := shared.Filter{Page: page, PageSize: o.config.BatchSize, OrderBy: "created_at", OrderDir: "asc"}
		batch, err := o.products.FindActive(ctx, o.supplierID, filter)
		if err != nil {
			feedErr = err
			break
		}
		if len(batch) == 0 {
			break
		}
		for i := range batch {
			if ctx.Err() != nil {
				feedErr = ctx.Err()
				break feed
			}
			select {
			case units <- &batch[i]:
			case <-ctx.Done():
				feedErr = ctx.Err()
				break feed
			}
		}
		if len(batch) < o.config.BatchSize {
			break
		}
		page++
	}

	close(units)
	<-done
	return feedErr
}

// startWorkers launches the bounded pool and returns a channel closed when
// all workers have drained the unit channel.
func startWorkers[T any](ctx context.Context, workers int, units <-chan T, work func(ctx context.Context, unit T)) <-chan struct{} {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for unit := range units {
				work(ctx, unit)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}

func (o *SyncOrchestrator) logFinished(summary SyncSummary) {
	o.logger.Info("sync job finished",
		zap.String("job", summary.Job),
		zap.Int64("scanned", summary.Scanned),
		zap.Int64("updated", summary.Updated),
		zap.Int64("imported", summary.Imported),
		zap.Int64("corrected", summary.Corrected),
		zap.Int64("deactivated", summary.Deactivated),
		zap.Int64("skipped", summary.Skipped),
		zap.Int64("failed", summary.Failed),
		zap.Duration("duration", summary.Duration),
	)
}
