package failure

type Severity int

// scheduler control flow
const (
	SeverityFatal Severity = iota
	SeverityRecoverable
)

type ClassifiedError interface {
	error
	Severity() Severity
}

// Retryable is an optional facet a ClassifiedError may implement to tell
// a retry policy whether another attempt is worth making. Absence of this
// interface is not the same as false; callers that care should default to
// treating an unclassified error as retryable (see retry.isErrorRetryable).
type Retryable interface {
	IsRetryable() bool
}
