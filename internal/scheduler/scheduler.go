// Package scheduler implements C8, the run orchestration core: it turns
// validated job parameters into a bounded sequence of zone scrapes (tier-A)
// and detail extractions (tier-B), enforcing the concurrency caps, dedup
// rules, and stuck/timeout/cancellation policies described in spec.md §4.8.
package scheduler

import (
	"context"
	"math/rand"
	"time"

	"github.com/rohmanhakim/scrapeorch/internal/candidate"
	"github.com/rohmanhakim/scrapeorch/internal/config"
	"github.com/rohmanhakim/scrapeorch/internal/dedup"
	"github.com/rohmanhakim/scrapeorch/internal/emailenrich"
	"github.com/rohmanhakim/scrapeorch/internal/metadata"
	"github.com/rohmanhakim/scrapeorch/internal/validate"
	"github.com/rohmanhakim/scrapeorch/internal/zone"
	"github.com/rohmanhakim/scrapeorch/pkg/failure"
	"github.com/rohmanhakim/scrapeorch/pkg/limiter"
	"github.com/rohmanhakim/scrapeorch/pkg/retry"
)

// LocationIndex resolves a country/state scope to a candidate city list,
// the C5 input the bucketizer partitions by population. A nil result (or
// empty slice) signals "no known city list" and the scheduler falls back
// to the coarser state/country zone grid instead.
type LocationIndex interface {
	CitiesOfState(countryCode, stateCode string) []candidate.Candidate
	CitiesOfCountry(countryCode string) []candidate.Candidate
}

// SessionCloser releases whatever browser resources a run acquired
// (the browserpool.Session backing tier-A/tier-B), always called once
// at run termination regardless of outcome.
type SessionCloser interface {
	Close()
}

// Scheduler holds a job's fixed collaborators. A single Scheduler value
// is safe to reuse across runs; all mutable per-run state lives in the
// unexported run type created fresh inside Run.
type Scheduler struct {
	cfg                config.Config
	metadataSink       metadata.MetadataSink
	jobFinalizer       metadata.JobFinalizer
	jobHandle          JobHandle
	dedupStore         dedup.Store
	zoneGenerator      zone.Generator
	locationIndex      LocationIndex
	populationResolver candidate.PopulationResolver
	validator          validate.Validator
	tierA              TierAScraper
	tierB              TierBExtractor
	sessionCloser      SessionCloser
	emailEnricher      *emailenrich.Enricher
	enrichRetryParam   retry.RetryParam
	now                func() time.Time
}

// New builds a Scheduler. jobHandle, dedupStore, locationIndex,
// sessionCloser, and emailEnricher may all be nil: the run degrades
// gracefully (no cancellation polling, dedup store treated as always-miss,
// no bucketed city discovery, no resource to close, no email step).
func New(
	cfg config.Config,
	metadataSink metadata.MetadataSink,
	jobFinalizer metadata.JobFinalizer,
	jobHandle JobHandle,
	dedupStore dedup.Store,
	zoneGenerator zone.Generator,
	locationIndex LocationIndex,
	populationResolver candidate.PopulationResolver,
	validator validate.Validator,
	tierA TierAScraper,
	tierB TierBExtractor,
	sessionCloser SessionCloser,
	emailEnricher *emailenrich.Enricher,
	enrichRetryParam retry.RetryParam,
) Scheduler {
	if metadataSink == nil {
		metadataSink = metadata.NoopSink{}
	}
	return Scheduler{
		cfg:                cfg,
		metadataSink:       metadataSink,
		jobFinalizer:       jobFinalizer,
		jobHandle:          jobHandle,
		dedupStore:         dedupStore,
		zoneGenerator:      zoneGenerator,
		locationIndex:      locationIndex,
		populationResolver: populationResolver,
		validator:          validator,
		tierA:              tierA,
		tierB:              tierB,
		sessionCloser:      sessionCloser,
		emailEnricher:      emailEnricher,
		enrichRetryParam:   enrichRetryParam,
		now:                time.Now,
	}
}

// watchdogInterval is the tick granularity of the stuck/timeout/
// cancellation check, independent of the (much larger) timeouts it
// evaluates against — fine-grained enough that a stuck or cancelled
// run is observed within a second or two, not at the scale of the
// timeouts themselves.
const watchdogInterval = 200 * time.Millisecond

// Run executes one job to completion: validation, scope selection, the
// zone/bucket discovery loop, detail-task scheduling, and termination.
// It never panics on collaborator failure — every injected dependency's
// errors are recorded via metadataSink and treated as a reason to skip
// that unit of work, not to abort the run. Only ValidateJobParams and an
// invalid country code abort before any work starts.
func (s Scheduler) Run(ctx context.Context, params validate.JobParams) (RunResult, failure.ClassifiedError) {
	if !isValidISOCountryCode(params.CountryCode) {
		err := &SchedulerError{Message: "countryCode is not a recognized ISO-3166-1 alpha-2 code", Cause: ErrCauseInvalidCountry}
		s.metadataSink.RecordError(metadata.ErrorRecord{
			PackageName: "scheduler",
			Action:      "Run",
			Cause:       mapSchedulerErrorToMetadataCause(ErrCauseInvalidCountry),
			ErrorString: err.Error(),
			ObservedAt:  s.now(),
		})
		return RunResult{}, err
	}
	if err := s.validator.ValidateJobParams(params); err != nil {
		return RunResult{}, err
	}

	start := s.now()

	r := newRun(s, ctx, params)

	deadline := time.Time{}
	if s.cfg.JobTimeout() > 0 {
		deadline = start.Add(s.cfg.JobTimeout())
	}

	wd := startWatchdog(watchdogDeps{
		interval:        watchdogInterval,
		deadline:        deadline,
		now:             s.now,
		stop:            &r.stop,
		progress:        r.progress,
		recordsSnapshot: r.recordsCount,
		percentSnapshot: r.percentage,
		jobHandle:       s.jobHandle,
		jobID:           params.JobID,
		onStuck: func(reason StuckReason) {
			r.stuckReason.Store(string(reason))
		},
		onExternalCancel: func() {
			r.externalCancel.Store(true)
		},
	})

	r.runScope()
	r.awaitDetailTasks()

	wd.Stop()
	if s.sessionCloser != nil {
		s.sessionCloser.Close()
	}

	finalStatus := r.finalStatus()
	r.emitFinalProgress(finalStatus)

	records := r.snapshotResults()
	if params.MaxRecords > 0 && len(records) > params.MaxRecords {
		records = records[:params.MaxRecords]
	}

	if s.jobFinalizer != nil {
		s.jobFinalizer.RecordRunSummary(metadata.RunSummary{
			TotalZones:   r.zonesScraped(),
			TotalDetails: r.detailsAttempted(),
			TotalRecords: len(records),
			TotalErrors:  r.errorsObserved(),
			DurationMs:   s.now().Sub(start).Milliseconds(),
			FinalStatus:  string(finalStatus),
		})
	}

	return RunResult{Records: records, FinalStatus: finalStatus}, nil
}

// newLimiter is a tiny indirection kept local to this file so run.go's
// construction of the two admission gates reads as scheduler-owned
// configuration rather than a raw pkg/limiter call scattered about.
func newLimiter(capacity int) *limiter.Limiter {
	return limiter.New(capacity)
}

// defaultRNG seeds a run's shuffle source from config when set, else
// from wall-clock time so repeated runs without an explicit seed still
// vary their batch/bucket ordering.
func defaultRNG(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
