package scheduler

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rohmanhakim/scrapeorch/internal/candidate"
	"github.com/rohmanhakim/scrapeorch/internal/collections"
	"github.com/rohmanhakim/scrapeorch/internal/extractor"
	"github.com/rohmanhakim/scrapeorch/internal/metadata"
	"github.com/rohmanhakim/scrapeorch/internal/validate"
	"github.com/rohmanhakim/scrapeorch/internal/zone"
	"github.com/rohmanhakim/scrapeorch/pkg/limiter"
)

// zoneScope names which of CreateCityZones/CreateStateZones/CreateCountryZones
// a batched-zones pass should call.
type zoneScope int

const (
	zoneScopeCity zoneScope = iota
	zoneScopeState
	zoneScopeCountry
)

// run holds everything mutable about one Scheduler.Run call. A fresh
// run is built per call so concurrent runs on the same Scheduler never
// share state.
type run struct {
	sched  Scheduler
	ctx    context.Context
	params validate.JobParams

	stop           atomic.Bool
	stuckReason    atomic.Value // string
	externalCancel atomic.Bool

	zonesCount   atomic.Int64
	detailsCount atomic.Int64
	errorsCount  atomic.Int64

	mu      sync.Mutex
	results []extractor.BusinessRecord

	zonesMu        sync.Mutex
	processedZones collections.Set[string]

	seenMu   sync.Mutex
	seenUrls collections.Set[string]

	tasksMu     sync.Mutex
	detailTasks map[uuid.UUID]*DetailTask

	detailGroup errgroup.Group

	progress      *ProgressMonitor
	cityLimiter   *limiter.Limiter
	detailLimiter *limiter.Limiter
	rng           *rand.Rand
}

func newRun(s Scheduler, ctx context.Context, params validate.JobParams) *run {
	cityCap := s.cfg.CityConcurrency()
	detailCap := s.cfg.DetailConcurrency()

	r := &run{
		sched:          s,
		ctx:            ctx,
		params:         params,
		processedZones: collections.NewSet[string](),
		seenUrls:       collections.NewSet[string](),
		detailTasks:    make(map[uuid.UUID]*DetailTask),
		progress:       NewProgressMonitor(s.cfg.StuckRecordsTimeout(), s.cfg.StuckPercentageTimeout(), s.now),
		cityLimiter:    newLimiter(cityCap),
		detailLimiter:  newLimiter(detailCap),
		rng:            defaultRNG(s.cfg.RandomSeed()),
	}
	r.stuckReason.Store("")
	return r
}

// runScope implements spec.md §4.8's scope-selection step: an exact
// city+state searches that city's zone grid directly; a state alone
// falls back to its known city list (bucketized) or, absent one, the
// state's own zone grid; no location at all does the same one level up
// against the country.
func (r *run) runScope() {
	p := r.params
	switch {
	case p.City != "" && p.StateCode != "":
		r.runBatchedZones(zoneScopeCity, p.City, p.StateCode, "", p.CountryCode, 0)
	case p.StateCode != "":
		cities := r.citiesOf(func(li LocationIndex) []candidate.Candidate { return li.CitiesOfState(p.CountryCode, p.StateCode) })
		if len(cities) == 0 {
			r.runBatchedZones(zoneScopeState, "", p.StateCode, "", p.CountryCode, 0)
		} else {
			r.runBucketed(cities)
		}
	default:
		cities := r.citiesOf(func(li LocationIndex) []candidate.Candidate { return li.CitiesOfCountry(p.CountryCode) })
		if len(cities) == 0 {
			r.runBatchedZones(zoneScopeCountry, "", "", "", p.CountryCode, 0)
		} else {
			r.runBucketed(cities)
		}
	}
}

func (r *run) citiesOf(fn func(LocationIndex) []candidate.Candidate) []candidate.Candidate {
	if r.sched.locationIndex == nil {
		return nil
	}
	return fn(r.sched.locationIndex)
}

// runBatchedZones scrapes the target's center zone, then — if the
// resolver produced bounds — walks its grid in randomly-started,
// wraparound batch order until every batch has been visited or the
// run stops/fills its budget.
func (r *run) runBatchedZones(scope zoneScope, cityName, stateCode, stateName, countryCode string, population int64) {
	if r.isStopped() {
		return
	}

	batchSize := r.sched.cfg.ZoneBatchSize()
	maxTotalZones := r.sched.cfg.MaxTotalZones()

	var result zone.Result
	var err error
	switch scope {
	case zoneScopeCity:
		result, err = r.sched.zoneGenerator.CreateCityZones(cityName, stateCode, stateName, countryCode, population, true, batchSize, maxTotalZones)
	case zoneScopeState:
		result, err = r.sched.zoneGenerator.CreateStateZones(stateCode, stateName, countryCode, true, batchSize, maxTotalZones)
	default:
		result, err = r.sched.zoneGenerator.CreateCountryZones(countryCode, true, batchSize, maxTotalZones)
	}
	if err != nil {
		r.recordError("CreateZones", err.Error())
		return
	}

	r.scrapeZone(result.Center)
	if r.isStopped() || r.remainingBudget() <= 0 {
		return
	}

	cfg := result.Config
	if cfg.Bounds == nil {
		return
	}

	totalZones := cfg.TotalPossibleZones
	if cfg.MaxTotalZones > 0 && cfg.MaxTotalZones < totalZones {
		totalZones = cfg.MaxTotalZones
	}
	if totalZones <= 0 || cfg.BatchSize <= 0 {
		return
	}
	totalBatches := (totalZones + cfg.BatchSize - 1) / cfg.BatchSize
	if totalBatches <= 0 {
		return
	}

	startBatch := r.rng.Intn(totalBatches)
	visited := make(map[int]bool, totalBatches)

	for i := 0; i < totalBatches; i++ {
		if r.isStopped() || r.remainingBudget() <= 0 {
			return
		}
		batchNumber := (startBatch + i) % totalBatches
		if visited[batchNumber] {
			continue
		}
		visited[batchNumber] = true

		zones, zerr := zone.GenerateZoneBatch(cfg, batchNumber)
		if zerr != nil {
			r.recordError("GenerateZoneBatch", zerr.Error())
			continue
		}
		r.rng.Shuffle(len(zones), func(a, b int) { zones[a], zones[b] = zones[b], zones[a] })

		var batchGroup errgroup.Group
		for _, z := range zones {
			z := z
			if r.isStopped() {
				break
			}
			batchGroup.Go(func() error {
				// allSettled: a zone's own error never cancels its siblings,
				// so it is abandoned here rather than returned to Wait.
				r.cityLimiter.Run(r.ctx, func(ctx context.Context) error {
					r.scrapeZone(z)
					return nil
				})
				return nil
			})
		}
		_ = batchGroup.Wait()
	}
}

// runBucketed implements the population-prioritized loop: every
// candidate in a bucket is scheduled under the city limiter
// concurrently, and the run waits for the whole bucket (all-settled)
// before moving on to the next, so a stuck big city never starves the
// small/unknown tiers indefinitely.
func (r *run) runBucketed(candidates []candidate.Candidate) {
	resolver := r.sched.populationResolver
	if resolver == nil {
		resolver = func(string, string, string) (int64, bool) { return 0, false }
	}
	buckets := candidate.Bucketize(r.params.CountryCode, candidates, resolver, 0, r.rng)

	for _, group := range [][]candidate.Candidate{buckets.Big, buckets.Mid, buckets.Small, buckets.Unknown} {
		if r.isStopped() || r.remainingBudget() <= 0 {
			return
		}
		var bucketGroup errgroup.Group
		for _, c := range group {
			c := c
			if r.isStopped() || r.remainingBudget() <= 0 {
				break
			}
			bucketGroup.Go(func() error {
				r.cityLimiter.Run(r.ctx, func(ctx context.Context) error {
					r.runBatchedZones(zoneScopeCity, c.CityName, c.StateCode, c.StateName, r.params.CountryCode, 0)
					return nil
				})
				return nil
			})
		}
		_ = bucketGroup.Wait()
	}
}

// scrapeZone is the per-zone tier-A pass: dedup against processedZones,
// scrape, filter survivors through the C6 dedup store and the run's
// in-process seen-URL set, then schedule tier-B for whatever remains
// within budget.
func (r *run) scrapeZone(z zone.Zone) {
	key := zoneKey(z)
	r.zonesMu.Lock()
	if r.processedZones.Contains(key) {
		r.zonesMu.Unlock()
		return
	}
	r.processedZones.Add(key)
	r.zonesMu.Unlock()
	r.zonesCount.Add(1)

	if r.isStopped() {
		return
	}
	remaining := r.remainingBudget()
	if remaining <= 0 {
		r.stop.Store(true)
		return
	}

	candidates, err := r.sched.tierA.ScrapeZone(r.ctx, r.isStopped, z, r.params.Keyword, remaining, toNumericFilter(r.params.RatingFilter), toNumericFilter(r.params.ReviewFilter))
	if err != nil {
		r.recordError("ScrapeZone", err.Error())
		return
	}

	var dup []bool
	if r.params.AvoidDuplicate && r.params.UserID != "" && r.sched.dedupStore != nil {
		urls := make([]string, len(candidates))
		for i, c := range candidates {
			urls[i] = c.DetailURL
		}
		checked, derr := r.sched.dedupStore.BatchCheck(r.ctx, r.params.UserID, urls)
		if derr != nil {
			r.recordError("BatchCheck", derr.Error())
		} else {
			dup = checked
		}
	}

	listingCtx := ListingContext{
		SearchTerm:     r.params.Keyword,
		SearchType:     "google_maps",
		SearchLocation: formatZoneLocation(z),
	}

	for i, c := range candidates {
		if r.isStopped() {
			return
		}
		if c.DetailURL == "" {
			continue
		}
		if dup != nil && i < len(dup) && dup[i] {
			continue
		}

		r.seenMu.Lock()
		if r.seenUrls.Contains(c.DetailURL) {
			r.seenMu.Unlock()
			continue
		}
		r.seenUrls.Add(c.DetailURL)
		r.seenMu.Unlock()

		if r.remainingBudget() <= 0 {
			r.stop.Store(true)
			return
		}
		r.scheduleDetail(c.DetailURL, listingCtx)
	}
}

// scheduleDetail registers a pending detail task and dispatches it,
// bypassing the detail limiter entirely when the extractor doesn't
// need a page (spec.md §4.8: "limiter-skipping for REST-only tasks is
// an intentional asymmetry").
func (r *run) scheduleDetail(url string, listingCtx ListingContext) {
	r.tasksMu.Lock()
	r.pruneStuckTasksLocked()
	active := r.activeTaskCountLocked()
	if r.params.MaxRecords > 0 && r.recordsCount()+active >= r.params.MaxRecords {
		r.tasksMu.Unlock()
		return
	}
	taskID := uuid.New()
	r.detailTasks[taskID] = &DetailTask{ID: taskID, URL: url, StartTime: r.sched.now(), Status: TaskPending}
	r.tasksMu.Unlock()
	r.detailsCount.Add(1)

	r.detailGroup.Go(func() error {
		if r.sched.tierB.NeedsPage() {
			r.detailLimiter.Run(r.ctx, func(ctx context.Context) error {
				return r.execDetailTask(ctx, taskID, url, listingCtx)
			})
			return nil
		}
		r.execDetailTask(r.ctx, taskID, url, listingCtx)
		return nil
	})
}

func (r *run) execDetailTask(ctx context.Context, taskID uuid.UUID, url string, listingCtx ListingContext) error {
	r.markTask(taskID, TaskActive)
	if r.isStopped() {
		r.markTask(taskID, TaskFailed)
		return nil
	}

	detailCtx := extractor.DetailContext{
		URL:            url,
		SearchTerm:     listingCtx.SearchTerm,
		SearchType:     listingCtx.SearchType,
		SearchLocation: listingCtx.SearchLocation,
	}

	record, err := r.sched.tierB.ExtractDetail(ctx, r.isStopped, detailCtx)
	if err != nil {
		r.markTask(taskID, TaskFailed)
		r.recordError("ExtractDetail", err.Error())
		return err
	}
	if record == nil {
		r.markTask(taskID, TaskCompleted)
		return nil
	}

	if r.params.IsExtractEmail && r.sched.emailEnricher != nil {
		enriched := r.sched.emailEnricher.Enrich(ctx, record.Website, r.sched.enrichRetryParam)
		record.Email = enriched.Email
		record.EmailStatus = string(enriched.Status)
	}

	if !r.sched.validator.AcceptRecord(record, r.params) {
		r.markTask(taskID, TaskCompleted)
		return nil
	}

	if r.pushResult(*record) && r.params.UserID != "" && r.sched.dedupStore != nil {
		if merr := r.sched.dedupStore.Mark(ctx, r.params.UserID, url); merr != nil {
			r.recordError("Mark", merr.Error())
		}
	}
	r.markTask(taskID, TaskCompleted)
	return nil
}

// pushResult appends a record unless the cap is already full, in which
// case it sets the stop flag and reports the record as rejected so the
// caller doesn't mark it in the dedup store either.
func (r *run) pushResult(record extractor.BusinessRecord) bool {
	r.mu.Lock()
	if r.params.MaxRecords > 0 && len(r.results) >= r.params.MaxRecords {
		r.mu.Unlock()
		r.stop.Store(true)
		return false
	}
	r.results = append(r.results, record)
	count := len(r.results)
	r.mu.Unlock()

	if r.params.MaxRecords > 0 && count >= r.params.MaxRecords {
		r.stop.Store(true)
	}
	r.emitProgress(count)
	return true
}

func (r *run) emitProgress(count int) {
	if r.sched.jobHandle == nil {
		return
	}
	r.sched.jobHandle.UpdateProgress(r.params.JobID, ProgressEvent{
		Percentage:       r.percentageFor(count),
		RecordsCollected: count,
		MaxRecords:       r.params.MaxRecords,
		Status:           string(JobActive),
	})
}

func (r *run) emitFinalProgress(status JobStatus) {
	count := r.recordsCount()
	if r.sched.jobHandle != nil {
		r.sched.jobHandle.UpdateProgress(r.params.JobID, ProgressEvent{
			Percentage:       r.percentageFor(count),
			RecordsCollected: count,
			MaxRecords:       r.params.MaxRecords,
			Status:           string(status),
		})
		if status == JobCompleted {
			r.sched.jobHandle.UpdateStatus(r.params.JobID, JobCompleted, "")
		}
	}
}

// awaitDetailTasks waits for in-flight detail extractions to settle. A
// stopped run still gets one grace period to let its current batch
// land cleanly, but never blocks indefinitely on a wedged task.
func (r *run) awaitDetailTasks() {
	if !r.stop.Load() {
		_ = r.detailGroup.Wait()
		return
	}
	done := make(chan struct{})
	go func() {
		_ = r.detailGroup.Wait()
		close(done)
	}()
	grace := r.sched.cfg.StuckJobGracePeriod()
	if grace <= 0 {
		grace = time.Second
	}
	select {
	case <-done:
	case <-time.After(grace):
	}
}

func (r *run) finalStatus() JobStatus {
	if r.externalCancel.Load() {
		return JobFailed
	}
	if reason, _ := r.stuckReason.Load().(string); reason != "" {
		return JobStuckTimeout
	}
	return JobCompleted
}

func (r *run) isStopped() bool { return r.stop.Load() }

func (r *run) recordsCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func (r *run) snapshotResults() []extractor.BusinessRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]extractor.BusinessRecord, len(r.results))
	copy(out, r.results)
	return out
}

func (r *run) percentage() float64 {
	return r.percentageFor(r.recordsCount())
}

func (r *run) percentageFor(count int) float64 {
	if r.params.MaxRecords <= 0 {
		return 0
	}
	pct := float64(count) / float64(r.params.MaxRecords) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

func (r *run) remainingBudget() int {
	if r.params.MaxRecords <= 0 {
		return math.MaxInt32
	}
	count := r.recordsCount()
	active := r.activeTaskCount()
	remaining := r.params.MaxRecords - count - active
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (r *run) activeTaskCount() int {
	r.tasksMu.Lock()
	defer r.tasksMu.Unlock()
	return r.activeTaskCountLocked()
}

func (r *run) activeTaskCountLocked() int {
	count := 0
	for _, t := range r.detailTasks {
		if t.Status == TaskPending || t.Status == TaskActive {
			count++
		}
	}
	return count
}

// pruneStuckTasksLocked marks any task that has run past
// TaskStuckTimeout as stuck, excluding it from the active count so a
// single wedged detail extraction doesn't permanently block the
// budget. Caller must hold tasksMu.
func (r *run) pruneStuckTasksLocked() {
	timeout := r.sched.cfg.TaskStuckTimeout()
	if timeout <= 0 {
		return
	}
	now := r.sched.now()
	for _, t := range r.detailTasks {
		if (t.Status == TaskPending || t.Status == TaskActive) && now.Sub(t.StartTime) > timeout {
			t.Status = TaskStuck
		}
	}
}

func (r *run) markTask(taskID uuid.UUID, status DetailTaskStatus) {
	r.tasksMu.Lock()
	defer r.tasksMu.Unlock()
	if t, ok := r.detailTasks[taskID]; ok {
		t.Status = status
	}
}

func (r *run) zonesScraped() int    { return int(r.zonesCount.Load()) }
func (r *run) detailsAttempted() int { return int(r.detailsCount.Load()) }
func (r *run) errorsObserved() int  { return int(r.errorsCount.Load()) }

func (r *run) recordError(action, message string) {
	r.errorsCount.Add(1)
	r.sched.metadataSink.RecordError(metadata.ErrorRecord{
		PackageName: "scheduler",
		Action:      action,
		Cause:       metadata.CauseUnknown,
		ErrorString: message,
		ObservedAt:  r.sched.now(),
	})
}

func toNumericFilter(f *validate.RangeFilter) *extractor.NumericFilter {
	if f == nil {
		return nil
	}
	return &extractor.NumericFilter{Operator: f.Operator, Value: f.Value}
}

func zoneKey(z zone.Zone) string {
	if z.Coords != nil {
		return fmt.Sprintf("%s|%.5f,%.5f", z.Label, z.Coords.Lat, z.Coords.Lng)
	}
	return fmt.Sprintf("%s|%s|%s|%s", z.Type, z.CityName, z.StateCode, z.Label)
}

