package zone

import (
	"fmt"

	"github.com/rohmanhakim/scrapeorch/internal/metadata"
	"github.com/rohmanhakim/scrapeorch/pkg/failure"
)

type ZoneErrorCause string

const (
	ErrCauseResolverFailed ZoneErrorCause = "resolver failed"
	ErrCauseInvalidBatch   ZoneErrorCause = "invalid batch"
)

type ZoneError struct {
	Message string
	Cause   ZoneErrorCause
}

func (e *ZoneError) Error() string {
	return fmt.Sprintf("zone error: %s: %s", e.Cause, e.Message)
}

func (e *ZoneError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

func (e *ZoneError) IsRetryable() bool {
	return false
}

func mapZoneErrorToMetadataCause(cause ZoneErrorCause) metadata.ErrorCause {
	switch cause {
	case ErrCauseResolverFailed:
		return metadata.CauseNetworkFailure
	default:
		return metadata.CauseInvariantViolation
	}
}
