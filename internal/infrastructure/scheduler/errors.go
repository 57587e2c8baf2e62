package scheduler

import "errors"

// Sentinel errors for job submission and execution. Callers match them
// with errors.Is.
var (
	ErrSchedulerNotRunning = errors.New("scheduler is not running")
	ErrJobQueueFull        = errors.New("job queue is full")
	ErrInvalidConfig       = errors.New("invalid scheduler configuration")
	ErrUnknownJobKind      = errors.New("unknown sync job kind")
	ErrJobTimeout          = errors.New("sync job timed out")
)
