package scheduler

import (
	"time"

	"github.com/google/uuid"

	"github.com/rohmanhakim/scrapeorch/internal/extractor"
)

// JobStatus mirrors the accepted status values of the job-record
// contract consumed by the core (spec.md §6).
type JobStatus string

const (
	JobWaiting      JobStatus = "waiting"
	JobActive       JobStatus = "active"
	JobCompleted    JobStatus = "completed"
	JobFailed       JobStatus = "failed"
	JobStuckTimeout JobStatus = "stuck_timeout"
	JobDelayed      JobStatus = "delayed"
	JobPaused       JobStatus = "paused"
)

// ProgressEvent is the streaming progress shape emitted to the job handle.
type ProgressEvent struct {
	Percentage        float64
	RecordsCollected  int
	MaxRecords        int
	CurrentLocation   string
	StuckReason       string
	Status            string
}

// JobHandle is the injected job-record collaborator: polled for external
// cancellation, written to on stuck detection, and kept updated with
// progress. All failures from this collaborator are logged, never fatal.
type JobHandle interface {
	GetStatus(jobID string) (JobStatus, error)
	UpdateStatus(jobID string, status JobStatus, reason string) error
	UpdateProgress(jobID string, progress ProgressEvent) error
}

// DetailTaskStatus tracks one scheduled tier-B extraction.
type DetailTaskStatus string

const (
	TaskPending   DetailTaskStatus = "pending"
	TaskActive    DetailTaskStatus = "active"
	TaskCompleted DetailTaskStatus = "completed"
	TaskFailed    DetailTaskStatus = "failed"
	TaskStuck     DetailTaskStatus = "stuck"
)

// DetailTask is one entry in the scheduler's task registry, surviving
// task failure so activeTaskCount can always reconcile status. ID is
// the registry's map key; it exists independently of URL so retried or
// re-scheduled extractions of the same URL never collide in the map.
type DetailTask struct {
	ID        uuid.UUID
	URL       string
	StartTime time.Time
	Status    DetailTaskStatus
}

// ListingContext carries the zone/search metadata a tier-A scrape
// attaches to every listing it discovers, threaded through to tier-B
// so the final BusinessRecord can populate search_term/search_location.
type ListingContext struct {
	SearchTerm     string
	SearchType     string
	SearchLocation string
}

// RunResult is the scheduler's outcome: the ordered (capped) record
// list plus the terminal status the run observed.
type RunResult struct {
	Records     []extractor.BusinessRecord
	FinalStatus JobStatus
}
