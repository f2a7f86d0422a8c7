package fieldformat

import (
	"fmt"

	"github.com/rohmanhakim/scrapeorch/internal/metadata"
	"github.com/rohmanhakim/scrapeorch/pkg/failure"
)

type FormatErrorCause string

const (
	ErrCauseUnparseableNumber = "unparseable number"
	ErrCauseEmptyInput        = "empty input"
)

type FormatError struct {
	Message   string
	Retryable bool
	Cause     FormatErrorCause
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("fieldformat error: %s", e.Cause)
}

func (e *FormatError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *FormatError) IsRetryable() bool {
	return e.Retryable
}

func mapFormatErrorToMetadataCause(err *FormatError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseUnparseableNumber, ErrCauseEmptyInput:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
