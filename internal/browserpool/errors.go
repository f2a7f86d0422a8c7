package browserpool

import (
	"fmt"
	"strings"

	"github.com/rohmanhakim/scrapeorch/pkg/failure"
)

type PoolErrorCause string

const (
	ErrCausePoolClosed       PoolErrorCause = "pool closed"
	ErrCauseCapacityExhausted PoolErrorCause = "capacity exhausted"
	ErrCausePageCreationFailed PoolErrorCause = "page creation failed"
)

// PoolError is C2's closed error taxonomy.
type PoolError struct {
	Cause     PoolErrorCause
	Message   string
	Retryable bool
}

func (e *PoolError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("browserpool: %s: %s", e.Cause, e.Message)
	}
	return fmt.Sprintf("browserpool: %s", e.Cause)
}

func (e *PoolError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *PoolError) IsRetryable() bool {
	return e.Retryable
}

var ErrPoolClosed = &PoolError{Cause: ErrCausePoolClosed, Retryable: false}

// sessionClassErrorSubstrings is the string-matching fallback for the CDP
// error texts chromedp does not expose as typed sentinels. Matched
// case-insensitively against err.Error().
var sessionClassErrorSubstrings = []string{
	"websocket: close",
	"target closed",
	"session closed",
	"context deadline exceeded",
	"disconnected: unable to find context",
	"execution context was destroyed",
	"could not find node with given id",
	"protocol error",
	"408",
}

// isSessionClassError reports whether err belongs to the set of
// transport/session failures that warrant a session rotation and retry,
// rather than an immediate propagation to the caller.
func isSessionClassError(err error) bool {
	if err == nil {
		return false
	}
	lower := strings.ToLower(err.Error())
	for _, substr := range sessionClassErrorSubstrings {
		if strings.Contains(lower, substr) {
			return true
		}
	}
	return false
}
