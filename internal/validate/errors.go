package validate

import (
	"fmt"

	"github.com/rohmanhakim/scrapeorch/internal/metadata"
	"github.com/rohmanhakim/scrapeorch/pkg/failure"
)

type ValidationErrorCause string

const (
	ErrCauseMissingKeyword         ValidationErrorCause = "missing keyword"
	ErrCauseInvalidCountryCode     ValidationErrorCause = "invalid country code"
	ErrCauseInvalidMaxRecords      ValidationErrorCause = "invalid max records"
	ErrCauseInvalidFilter          ValidationErrorCause = "invalid filter"
	ErrCauseInvalidReviewTimeRange ValidationErrorCause = "invalid review time range"
	ErrCauseUncontactableRecord    ValidationErrorCause = "uncontactable record"
)

type ValidationError struct {
	Message string
	Cause   ValidationErrorCause
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Cause, e.Message)
}

func (e *ValidationError) Severity() failure.Severity {
	return failure.SeverityFatal
}

func (e *ValidationError) IsRetryable() bool {
	return false
}

func mapValidationErrorToMetadataCause(cause ValidationErrorCause) metadata.ErrorCause {
	switch cause {
	case ErrCauseUncontactableRecord:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseInvariantViolation
	}
}
