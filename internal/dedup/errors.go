package dedup

import (
	"fmt"

	"github.com/rohmanhakim/scrapeorch/internal/metadata"
	"github.com/rohmanhakim/scrapeorch/pkg/failure"
)

type DedupErrorCause string

const (
	ErrCauseCheckFailed DedupErrorCause = "check failed"
	ErrCauseMarkFailed  DedupErrorCause = "mark failed"
)

type DedupError struct {
	Message   string
	Retryable bool
	Cause     DedupErrorCause
}

func (e *DedupError) Error() string {
	return fmt.Sprintf("dedup error: %s: %s", e.Cause, e.Message)
}

func (e *DedupError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *DedupError) IsRetryable() bool {
	return e.Retryable
}

func mapDedupErrorToMetadataCause(_ DedupErrorCause) metadata.ErrorCause {
	return metadata.CauseDedupStoreFailure
}
