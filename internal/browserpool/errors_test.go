package browserpool

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSessionClassErrorMatchesKnownPatterns(t *testing.T) {
	cases := []string{
		"websocket: close 1006 (abnormal closure)",
		"target closed",
		"session closed",
		"context deadline exceeded",
		"disconnected: unable to find context with specified id",
		"execution context was destroyed",
		"could not find node with given id",
		"protocol error: Target.activateTarget",
		"rpc error: code = 408",
	}
	for _, msg := range cases {
		assert.True(t, isSessionClassError(errors.New(msg)), msg)
	}
}

func TestIsSessionClassErrorRejectsUnrelatedErrors(t *testing.T) {
	assert.False(t, isSessionClassError(errors.New("name is required")))
	assert.False(t, isSessionClassError(nil))
}

func TestPoolErrorSeverityMatchesRetryable(t *testing.T) {
	retryable := &PoolError{Cause: ErrCauseCapacityExhausted, Retryable: true}
	assert.Equal(t, true, retryable.IsRetryable())

	fatal := &PoolError{Cause: ErrCausePageCreationFailed, Retryable: false}
	assert.Equal(t, false, fatal.IsRetryable())
}
