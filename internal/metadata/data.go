package metadata

import "time"

// FetchEvent records one page/REST fetch attempt for observability.
type FetchEvent struct {
	URL         string
	HTTPStatus  int
	Duration    time.Duration
	Retryable   bool
	Attempt     int
	ObservedAt  time.Time
}

// RunSummary is a terminal, derived summary of a completed job.
//
//   - Contains only aggregate counts and durations
//   - Computed by the scheduler after job termination
//   - Recorded exactly once
//   - Must not influence scheduling, retries, or termination
//   - Must be constructed without reading back prior metadata
type RunSummary struct {
	TotalZones    int
	TotalDetails  int
	TotalRecords  int
	TotalErrors   int
	DurationMs    int64
	FinalStatus   string
}

/*
ErrorCause is a closed, canonical classification used exclusively for
observability (logging, metrics, reporting).

Rules:
  - ErrorCause is for observability only.
  - It must never be used to derive retry, continuation, or abort decisions.
  - ErrorCause values MUST have stable, package-agnostic semantics.
  - Packages MAY map their local errors to ErrorCause but MUST NOT invent
    new meanings.

If a failure does not clearly match a defined cause, CauseUnknown MUST be
used.
*/
type ErrorCause int

const (
	// CauseUnknown is the safe fallback when a failure does not map
	// cleanly to any known category.
	CauseUnknown ErrorCause = iota
	// CauseNetworkFailure covers transport/remote-availability failures:
	// TCP timeouts, DNS failures, connection resets.
	CauseNetworkFailure
	// CauseSessionFailure covers browser-session-class errors: websocket
	// closed, target/session closed, browser disconnected,
	// execution-context-destroyed, protocol error.
	CauseSessionFailure
	// CauseContentInvalid covers content fetched but not processable:
	// missing name field, broken DOM preventing extraction.
	CauseContentInvalid
	// CauseDedupStoreFailure covers URL-dedup store failures (Redis
	// unreachable, pipeline error).
	CauseDedupStoreFailure
	// CauseStorageFailure covers result-sink persistence failures.
	CauseStorageFailure
	// CauseInvariantViolation covers internal consistency-check failures.
	CauseInvariantViolation
)

type ErrorRecord struct {
	PackageName string
	Action      string
	Cause       ErrorCause
	ErrorString string
	ObservedAt  time.Time
	Attrs       []Attribute
}

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{Key: key, Value: val}
}

type AttributeKey string

const (
	AttrTime       AttributeKey = "time"
	AttrURL        AttributeKey = "url"
	AttrZoneID     AttributeKey = "zone_id"
	AttrJobID      AttributeKey = "job_id"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrAttempt    AttributeKey = "attempt"
	AttrWritePath  AttributeKey = "write_path"
)
