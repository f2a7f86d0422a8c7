package resultsink

import (
	"fmt"

	"github.com/rohmanhakim/scrapeorch/internal/metadata"
	"github.com/rohmanhakim/scrapeorch/pkg/failure"
)

type ResultSinkErrorCause string

const (
	ErrCauseDiskFull              ResultSinkErrorCause = "disk is full"
	ErrCauseWriteFailure          ResultSinkErrorCause = "write failed"
	ErrCauseHashComputationFailed ResultSinkErrorCause = "hash computation failed"
	ErrCausePathError             ResultSinkErrorCause = "path error"
	ErrCauseMarshalFailure        ResultSinkErrorCause = "marshal failed"
)

type ResultSinkError struct {
	Message   string
	Retryable bool
	Cause     ResultSinkErrorCause
	Path      string
}

func (e *ResultSinkError) Error() string {
	return fmt.Sprintf("resultsink error: %s", e.Cause)
}

func (e *ResultSinkError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *ResultSinkError) IsRetryable() bool {
	return e.Retryable
}

// mapResultSinkErrorToMetadataCause maps resultsink-local error
// semantics to the canonical metadata.ErrorCause table. Observational
// only — must never be used to derive control-flow decisions.
func mapResultSinkErrorToMetadataCause(err *ResultSinkError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseDiskFull, ErrCauseWriteFailure, ErrCausePathError:
		return metadata.CauseStorageFailure
	case ErrCauseHashComputationFailed, ErrCauseMarshalFailure:
		return metadata.CauseInvariantViolation
	default:
		return metadata.CauseUnknown
	}
}
