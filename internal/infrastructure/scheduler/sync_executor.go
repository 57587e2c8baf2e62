package scheduler

import (
	"context"

	appsync "github.com/storefront/backend/internal/application/sync"
	"github.com/storefront/backend/internal/domain/supplier"
)

// SyncExecutor maps a job kind onto the matching application-layer sync
// operation. One executor serves one supplier connection.
type SyncExecutor struct {
	catalog      *appsync.CatalogSyncService
	orchestrator *appsync.SyncOrchestrator
}

// NewSyncExecutor creates an executor over the application sync services
func NewSyncExecutor(catalog *appsync.CatalogSyncService, orchestrator *appsync.SyncOrchestrator) *SyncExecutor {
	return &SyncExecutor{
		catalog:      catalog,
		orchestrator: orchestrator,
	}
}

// Execute runs the job kind's sync operation and returns its summary
func (e *SyncExecutor) Execute(ctx context.Context, job *SyncJob) (appsync.SyncSummary, error) {
	switch job.Kind {
	case JobKindCatalogSync:
		return e.catalog.SyncCatalog(ctx, job.SupplierID, supplier.ProductFilter{})
	case JobKindStockSync:
		return e.orchestrator.RunStockSync(ctx)
	case JobKindReviewSync:
		return e.orchestrator.RunReviewSync(ctx)
	case JobKindReconciliationSweep:
		return e.orchestrator.RunReconciliationSweep(ctx)
	default:
		return appsync.SyncSummary{}, ErrUnknownJobKind
	}
}

var _ SyncJobExecutor = (*SyncExecutor)(nil)
