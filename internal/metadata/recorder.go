package metadata

import "sync"

/*
Metadata Collected
- Fetch timestamps, HTTP status codes, durations, retry counts
- Error causes and their originating package/action
- A single terminal run summary

Logging Goals
- Debuggable job behavior
- Post-run auditability
- Failure diagnostics

Allowed:
- Primitive values, timestamps, URLs (as values), status codes,
  durations, identifiers (zone ID, job ID)
*/

// MetadataSink is implemented by Recorder and accepted by every
// component (C2-C8) that needs to report fetch/error events without
// taking a dependency on how those events are stored or surfaced.
type MetadataSink interface {
	RecordFetch(event FetchEvent)
	RecordError(record ErrorRecord)
}

// JobFinalizer is handed the run's terminal summary exactly once, after
// the scheduler has already decided the job is done. It must never be
// consulted to make that decision.
type JobFinalizer interface {
	RecordRunSummary(summary RunSummary)
}

// Recorder is an in-process MetadataSink + JobFinalizer. It keeps
// mutex-guarded slices of every event it has seen; the slices are not
// capped and grow for the lifetime of a single job.
type Recorder struct {
	mu      sync.Mutex
	jobID   string
	fetches []FetchEvent
	errors  []ErrorRecord
	summary *RunSummary
}

func NewRecorder(jobID string) *Recorder {
	return &Recorder{jobID: jobID}
}

func (r *Recorder) RecordFetch(event FetchEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches = append(r.fetches, event)
}

func (r *Recorder) RecordError(record ErrorRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, record)
}

func (r *Recorder) RecordRunSummary(summary RunSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := summary
	r.summary = &s
}

func (r *Recorder) Fetches() []FetchEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]FetchEvent, len(r.fetches))
	copy(out, r.fetches)
	return out
}

func (r *Recorder) Errors() []ErrorRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ErrorRecord, len(r.errors))
	copy(out, r.errors)
	return out
}

func (r *Recorder) Summary() (RunSummary, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.summary == nil {
		return RunSummary{}, false
	}
	return *r.summary, true
}

// NoopSink discards everything; useful as a zero-value default so
// callers never need to nil-check a MetadataSink.
type NoopSink struct{}

func (NoopSink) RecordFetch(FetchEvent)      {}
func (NoopSink) RecordError(ErrorRecord)     {}
func (NoopSink) RecordRunSummary(RunSummary) {}
