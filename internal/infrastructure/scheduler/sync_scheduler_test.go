package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appsync "github.com/storefront/backend/internal/application/sync"
)

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

type fakeExecutor struct {
	calls   atomic.Int64
	byKind  map[SyncJobKind]*atomic.Int64
	summary appsync.SyncSummary
	err     error
	done    chan *SyncJob
}

func newFakeExecutor() *fakeExecutor {
	byKind := make(map[SyncJobKind]*atomic.Int64)
	for _, kind := range AllJobKinds() {
		byKind[kind] = &atomic.Int64{}
	}
	return &fakeExecutor{
		byKind: byKind,
		done:   make(chan *SyncJob, 100),
	}
}

func (e *fakeExecutor) Execute(_ context.Context, job *SyncJob) (appsync.SyncSummary, error) {
	e.calls.Add(1)
	if counter, ok := e.byKind[job.Kind]; ok {
		counter.Add(1)
	}
	defer func() { e.done <- job }()
	return e.summary, e.err
}

func awaitJob(t *testing.T, executor *fakeExecutor) *SyncJob {
	t.Helper()
	select {
	case job := <-executor.done:
		return job
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for job execution")
		return nil
	}
}

// ---------------------------------------------------------------------------
// SyncJob Tests
// ---------------------------------------------------------------------------

func TestNewSyncJob(t *testing.T) {
	supplierID := uuid.New()

	job := NewSyncJob(supplierID, JobKindStockSync, 3)

	assert.NotEqual(t, uuid.Nil, job.ID)
	assert.Equal(t, supplierID, job.SupplierID)
	assert.Equal(t, JobKindStockSync, job.Kind)
	assert.Equal(t, SyncJobStatusPending, job.Status)
	assert.Equal(t, 3, job.MaxRetries)
	assert.Nil(t, job.StartedAt)
	assert.Nil(t, job.CompletedAt)
}

func TestSyncJob_Start(t *testing.T) {
	job := NewSyncJob(uuid.New(), JobKindCatalogSync, 3)
	job.Error = "previous error"

	job.Start()

	assert.Equal(t, SyncJobStatusRunning, job.Status)
	assert.NotNil(t, job.StartedAt)
	assert.Empty(t, job.Error)
}

func TestSyncJob_Complete(t *testing.T) {
	tests := []struct {
		name     string
		summary  appsync.SyncSummary
		expected SyncJobStatus
	}{
		{"no failures", appsync.SyncSummary{Scanned: 100, Updated: 100}, SyncJobStatusSuccess},
		{"some failures", appsync.SyncSummary{Scanned: 100, Updated: 80, Failed: 20}, SyncJobStatusPartial},
		{"all failed", appsync.SyncSummary{Scanned: 20, Failed: 20}, SyncJobStatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewSyncJob(uuid.New(), JobKindStockSync, 3)
			job.Start()

			job.Complete(tt.summary)

			assert.Equal(t, tt.expected, job.Status)
			assert.NotNil(t, job.CompletedAt)
			require.NotNil(t, job.Summary)
			assert.Equal(t, tt.summary.Scanned, job.Summary.Scanned)
		})
	}
}

func TestSyncJob_Fail(t *testing.T) {
	job := NewSyncJob(uuid.New(), JobKindReviewSync, 3)
	job.Start()

	job.Fail("supplier unavailable")

	assert.Equal(t, SyncJobStatusFailed, job.Status)
	assert.NotNil(t, job.CompletedAt)
	assert.Equal(t, "supplier unavailable", job.Error)
}

func TestSyncJob_ShouldRetry(t *testing.T) {
	tests := []struct {
		name       string
		status     SyncJobStatus
		retryCount int
		maxRetries int
		expected   bool
	}{
		{"failed with retries available", SyncJobStatusFailed, 0, 3, true},
		{"failed max retries reached", SyncJobStatusFailed, 3, 3, false},
		{"success should not retry", SyncJobStatusSuccess, 0, 3, false},
		{"partial should not retry", SyncJobStatusPartial, 0, 3, false},
		{"running should not retry", SyncJobStatusRunning, 0, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &SyncJob{
				Status:     tt.status,
				RetryCount: tt.retryCount,
				MaxRetries: tt.maxRetries,
			}
			assert.Equal(t, tt.expected, job.ShouldRetry())
		})
	}
}

func TestSyncJob_ScheduleRetry_ExponentialBackoff(t *testing.T) {
	job := NewSyncJob(uuid.New(), JobKindStockSync, 5)
	baseDelay := time.Minute

	job.Status = SyncJobStatusFailed
	job.ScheduleRetry(baseDelay)
	assert.Equal(t, 1, job.RetryCount)
	assert.Equal(t, SyncJobStatusPending, job.Status)
	require.NotNil(t, job.NextRetryAt)
	firstDelay := time.Until(*job.NextRetryAt)
	assert.True(t, firstDelay > 50*time.Second && firstDelay <= time.Minute+time.Second)

	job.Status = SyncJobStatusFailed
	job.ScheduleRetry(baseDelay)
	assert.Equal(t, 2, job.RetryCount)
	secondDelay := time.Until(*job.NextRetryAt)
	assert.True(t, secondDelay > 110*time.Second && secondDelay <= 2*time.Minute+time.Second)
}

// ---------------------------------------------------------------------------
// SyncSchedulerConfig Tests
// ---------------------------------------------------------------------------

func TestSyncSchedulerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  SyncSchedulerConfig
		wantErr bool
	}{
		{"valid default config", DefaultSyncSchedulerConfig(), false},
		{"invalid max concurrent jobs", SyncSchedulerConfig{MaxConcurrentJobs: 0, JobTimeout: time.Minute}, true},
		{"invalid job timeout", SyncSchedulerConfig{MaxConcurrentJobs: 2, JobTimeout: 0}, true},
		{"negative retry attempts", SyncSchedulerConfig{MaxConcurrentJobs: 2, JobTimeout: time.Minute, RetryAttempts: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// SyncScheduler Tests
// ---------------------------------------------------------------------------

func TestSyncScheduler_SubmitBeforeStart(t *testing.T) {
	executor := newFakeExecutor()
	scheduler, err := NewSyncScheduler(DefaultSyncSchedulerConfig(), executor, zap.NewNop())
	require.NoError(t, err)

	err = scheduler.ScheduleJob(uuid.New(), JobKindStockSync)
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestSyncScheduler_ExecutesSubmittedJob(t *testing.T) {
	executor := newFakeExecutor()
	executor.summary = appsync.SyncSummary{Job: "stock_sync", Scanned: 10, Updated: 4, Skipped: 6}

	scheduler, err := NewSyncScheduler(DefaultSyncSchedulerConfig(), executor, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, scheduler.Start(ctx))
	defer scheduler.Stop(ctx)

	require.NoError(t, scheduler.ScheduleJob(uuid.New(), JobKindStockSync))

	job := awaitJob(t, executor)
	assert.Equal(t, JobKindStockSync, job.Kind)
	assert.Equal(t, int64(1), executor.calls.Load())
}

func TestSyncScheduler_RecordsHistory(t *testing.T) {
	executor := newFakeExecutor()
	executor.summary = appsync.SyncSummary{Scanned: 5}

	config := DefaultSyncSchedulerConfig()
	config.MaxConcurrentJobs = 1

	scheduler, err := NewSyncScheduler(config, executor, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, scheduler.Start(ctx))

	require.NoError(t, scheduler.ScheduleJob(uuid.New(), JobKindReviewSync))
	require.NoError(t, scheduler.ScheduleJob(uuid.New(), JobKindStockSync))
	awaitJob(t, executor)
	awaitJob(t, executor)

	require.NoError(t, scheduler.Stop(ctx))

	history := scheduler.GetJobHistory(10)
	require.Len(t, history, 2)
	// Newest first.
	assert.Equal(t, JobKindStockSync, history[0].Kind)
	assert.Equal(t, JobKindReviewSync, history[1].Kind)
	assert.Equal(t, SyncJobStatusSuccess, history[0].Status)

	byKind := scheduler.GetJobHistoryByKind(JobKindReviewSync, 10)
	require.Len(t, byKind, 1)
	assert.Equal(t, JobKindReviewSync, byKind[0].Kind)
}

func TestSyncScheduler_FailedJobIsRetried(t *testing.T) {
	executor := newFakeExecutor()
	executor.err = errors.New("supplier down")

	config := DefaultSyncSchedulerConfig()
	config.RetryAttempts = 2
	// Backoff short enough for the retry to run inside the test.
	config.RetryDelay = time.Millisecond

	scheduler, err := NewSyncScheduler(config, executor, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, scheduler.Start(ctx))
	defer scheduler.Stop(ctx)

	require.NoError(t, scheduler.ScheduleJob(uuid.New(), JobKindReconciliationSweep))

	first := awaitJob(t, executor)
	assert.Equal(t, SyncJobStatusFailed, first.Status)

	second := awaitJob(t, executor)
	assert.Equal(t, first.ID, second.ID)
	assert.GreaterOrEqual(t, second.RetryCount, 1)
}

func TestSyncScheduler_StopIsIdempotent(t *testing.T) {
	executor := newFakeExecutor()
	scheduler, err := NewSyncScheduler(DefaultSyncSchedulerConfig(), executor, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, scheduler.Start(ctx))

	assert.NoError(t, scheduler.Stop(ctx))
	assert.NoError(t, scheduler.Stop(ctx))
}

// ---------------------------------------------------------------------------
// IntervalTrigger Tests
// ---------------------------------------------------------------------------

func TestIntervalTrigger_SubmitsDueJobs(t *testing.T) {
	executor := newFakeExecutor()
	scheduler, err := NewSyncScheduler(DefaultSyncSchedulerConfig(), executor, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, scheduler.Start(ctx))
	defer scheduler.Stop(ctx)

	config := IntervalTriggerConfig{
		StockSyncInterval: time.Hour,
		CheckInterval:     5 * time.Millisecond,
	}
	trigger := NewIntervalTrigger(config, scheduler, uuid.New(), zap.NewNop())

	require.NoError(t, trigger.Start(ctx))
	defer trigger.Stop(ctx)

	job := awaitJob(t, executor)
	assert.Equal(t, JobKindStockSync, job.Kind)

	// Within the interval no second stock sync is submitted, and the kinds
	// with a zero interval never run.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int64(1), executor.byKind[JobKindStockSync].Load())
	assert.Equal(t, int64(0), executor.byKind[JobKindCatalogSync].Load())
	assert.Equal(t, int64(0), executor.byKind[JobKindReviewSync].Load())
}

func TestIntervalTrigger_TriggerManual(t *testing.T) {
	executor := newFakeExecutor()
	scheduler, err := NewSyncScheduler(DefaultSyncSchedulerConfig(), executor, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, scheduler.Start(ctx))
	defer scheduler.Stop(ctx)

	trigger := NewIntervalTrigger(DefaultIntervalTriggerConfig(), scheduler, uuid.New(), zap.NewNop())

	require.NoError(t, trigger.TriggerManual(JobKindCatalogSync))

	job := awaitJob(t, executor)
	assert.Equal(t, JobKindCatalogSync, job.Kind)
}
