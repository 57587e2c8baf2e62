package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/storefront/backend/internal/infrastructure/scheduler"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// SyncHandler exposes manual control over the supplier sync jobs: trigger a
// run out of band and inspect recent run history.
type SyncHandler struct {
	BaseHandler
	scheduler  *scheduler.SyncScheduler
	supplierID uuid.UUID
	enabled    bool
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(sched *scheduler.SyncScheduler, supplierID uuid.UUID, enabled bool) *SyncHandler {
	return &SyncHandler{
		scheduler:  sched,
		supplierID: supplierID,
		enabled:    enabled,
	}
}

// TriggerSyncRequest represents a manual sync trigger request
type TriggerSyncRequest struct {
	Kind string `json:"kind" binding:"required"`
}

// SyncJobResponse represents one sync job run
type SyncJobResponse struct {
	ID          uuid.UUID  `json:"id"`
	Kind        string     `json:"kind"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	RetryCount  int        `json:"retry_count"`

	Scanned     int64 `json:"scanned"`
	Updated     int64 `json:"updated"`
	Imported    int64 `json:"imported"`
	Corrected   int64 `json:"corrected"`
	Deactivated int64 `json:"deactivated"`
	Skipped     int64 `json:"skipped"`
	Failed      int64 `json:"failed"`
}

func toSyncJobResponse(job *scheduler.SyncJob) SyncJobResponse {
	resp := SyncJobResponse{
		ID:          job.ID,
		Kind:        string(job.Kind),
		Status:      string(job.Status),
		Error:       job.Error,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
		RetryCount:  job.RetryCount,
	}
	if s := job.Summary; s != nil {
		resp.Scanned = s.Scanned
		resp.Updated = s.Updated
		resp.Imported = s.Imported
		resp.Corrected = s.Corrected
		resp.Deactivated = s.Deactivated
		resp.Skipped = s.Skipped
		resp.Failed = s.Failed
	}
	return resp
}

// TriggerSync enqueues one sync job of the requested kind. The job runs
// asynchronously; poll the history endpoint for its outcome.
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	var req TriggerSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "kind is required")
		return
	}

	kind := scheduler.SyncJobKind(req.Kind)
	if !isKnownJobKind(kind) {
		h.BadRequest(c, "unknown sync job kind: "+req.Kind)
		return
	}

	if h.scheduler == nil {
		h.ErrorWithCode(c, dto.ErrCodeInvalidState, "sync scheduler is disabled")
		return
	}
	if err := h.scheduler.ScheduleJob(h.supplierID, kind); err != nil {
		h.ErrorWithCode(c, dto.ErrCodeInvalidState, err.Error())
		return
	}

	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(gin.H{"kind": string(kind), "status": "queued"}))
}

// ListJobs returns recent sync job runs, newest first. An optional kind
// query parameter narrows the history to one job kind.
func (h *SyncHandler) ListJobs(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		var req struct {
			Limit int `form:"limit" binding:"min=1,max=100"`
		}
		if err := c.ShouldBindQuery(&req); err != nil {
			h.BadRequest(c, "limit must be between 1 and 100")
			return
		}
		limit = req.Limit
	}

	if h.scheduler == nil {
		h.Success(c, []SyncJobResponse{})
		return
	}

	var jobs []*scheduler.SyncJob
	if raw := c.Query("kind"); raw != "" {
		kind := scheduler.SyncJobKind(raw)
		if !isKnownJobKind(kind) {
			h.BadRequest(c, "unknown sync job kind: "+raw)
			return
		}
		jobs = h.scheduler.GetJobHistoryByKind(kind, limit)
	} else {
		jobs = h.scheduler.GetJobHistory(limit)
	}

	responses := make([]SyncJobResponse, 0, len(jobs))
	for _, job := range jobs {
		responses = append(responses, toSyncJobResponse(job))
	}
	h.Success(c, responses)
}

// GetStatus reports whether scheduled syncs are enabled and which job kinds
// can be triggered.
func (h *SyncHandler) GetStatus(c *gin.Context) {
	kinds := scheduler.AllJobKinds()
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, string(k))
	}
	h.Success(c, SchedulerStatusData{
		Enabled:        h.enabled,
		AvailableKinds: names,
	})
}

func isKnownJobKind(kind scheduler.SyncJobKind) bool {
	for _, k := range scheduler.AllJobKinds() {
		if k == kind {
			return true
		}
	}
	return false
}
