package extractor

import (
	"fmt"

	"github.com/rohmanhakim/scrapeorch/internal/metadata"
	"github.com/rohmanhakim/scrapeorch/pkg/failure"
)

type ExtractionErrorCause string

const (
	ErrCauseMissingName      ExtractionErrorCause = "missing name"
	ErrCauseMalformedRating  ExtractionErrorCause = "malformed rating"
	ErrCauseMalformedReviews ExtractionErrorCause = "malformed reviews"
	ErrCauseDetailAPIFailed  ExtractionErrorCause = "detail api failed"
	ErrCauseNavigationFailed ExtractionErrorCause = "navigation failed"
)

type ExtractionError struct {
	Message   string
	Retryable bool
	Cause     ExtractionErrorCause
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction error: %s", e.Cause)
}

func (e *ExtractionError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *ExtractionError) IsRetryable() bool {
	return e.Retryable
}

// mapExtractionErrorToMetadataCause maps extractor-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapExtractionErrorToMetadataCause(err *ExtractionError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseMissingName, ErrCauseMalformedRating, ErrCauseMalformedReviews:
		return metadata.CauseContentInvalid
	case ErrCauseDetailAPIFailed, ErrCauseNavigationFailed:
		return metadata.CauseNetworkFailure
	default:
		return metadata.CauseUnknown
	}
}
