package sync

import (
	"sync/atomic"
	"time"
)

// ---------------------------------------------------------------------------
// Job Summaries
// ---------------------------------------------------------------------------

// SyncSummary reports the outcome of one sync run
type SyncSummary struct {
	Job         string        `json:"job"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	Scanned     int64         `json:"scanned"`
	Updated     int64         `json:"updated"`
	Imported    int64         `json:"imported"`
	Corrected   int64         `json:"corrected"`
	Deactivated int64         `json:"deactivated"`
	Skipped     int64         `json:"skipped"`
	Failed      int64         `json:"failed"`
}

// summaryCounters accumulates run statistics across workers
type summaryCounters struct {
	scanned     atomic.Int64
	updated     atomic.Int64
	imported    atomic.Int64
	corrected   atomic.Int64
	deactivated atomic.Int64
	skipped     atomic.Int64
	failed      atomic.Int64
}

func (c *summaryCounters) summary(job string, startedAt time.Time) SyncSummary {
	return SyncSummary{
		Job:         job,
		StartedAt:   startedAt,
		Duration:    time.Since(startedAt),
		Scanned:     c.scanned.Load(),
		Updated:     c.updated.Load(),
		Imported:    c.imported.Load(),
		Corrected:   c.corrected.Load(),
		Deactivated: c.deactivated.Load(),
		Skipped:     c.skipped.Load(),
		Failed:      c.failed.Load(),
	}
}

// ---------------------------------------------------------------------------
// Reconciliation Outcomes
// ---------------------------------------------------------------------------

// ReconcileOutcome describes what a reconciliation pass did to one variant
type ReconcileOutcome string

const (
	// OutcomeConfirmed means the stored vid was verified against the supplier
	OutcomeConfirmed ReconcileOutcome = "confirmed"
	// OutcomeCorrected means a suspect vid was replaced with the authoritative one
	OutcomeCorrected ReconcileOutcome = "corrected"
	// OutcomeDeactivated means no trustworthy identity could be established
	OutcomeDeactivated ReconcileOutcome = "deactivated"
	// OutcomeSkipped means the variant needed no reconciliation
	OutcomeSkipped ReconcileOutcome = "skipped"
)

// ReconcileResult is the decision record for one variant
type ReconcileResult struct {
	VariantID string           `json:"variant_id"`
	VID       string           `json:"vid"`
	Outcome   ReconcileOutcome `json:"outcome"`
	Rule      string           `json:"rule,omitempty"`
	Reason    string           `json:"reason,omitempty"`
}
