package scheduler

import (
	"fmt"

	"github.com/rohmanhakim/scrapeorch/internal/metadata"
	"github.com/rohmanhakim/scrapeorch/pkg/failure"
)

type SchedulerErrorCause string

const (
	ErrCauseInvalidCountry SchedulerErrorCause = "invalid country"
	ErrCauseInvalidParams  SchedulerErrorCause = "invalid job params"
)

// SchedulerError is fatal for the run: validation failures are the only
// conditions that abort a run mid-flight (spec.md §7's propagation policy).
type SchedulerError struct {
	Message string
	Cause   SchedulerErrorCause
}

func (e *SchedulerError) Error() string {
	return fmt.Sprintf("scheduler error: %s: %s", e.Cause, e.Message)
}

func (e *SchedulerError) Severity() failure.Severity {
	return failure.SeverityFatal
}

func (e *SchedulerError) IsRetryable() bool {
	return false
}

func mapSchedulerErrorToMetadataCause(_ SchedulerErrorCause) metadata.ErrorCause {
	return metadata.CauseInvariantViolation
}
