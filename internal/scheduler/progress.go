package scheduler

import (
	"sync"
	"time"
)

// StuckReason names which metric a ProgressMonitor judged stuck.
type StuckReason string

const (
	StuckNone       StuckReason = ""
	StuckRecords    StuckReason = "records"
	StuckPercentage StuckReason = "percentage"
)

// StuckStatus is the result of a progress check.
type StuckStatus struct {
	IsStuck  bool
	Reason   StuckReason
	StuckFor time.Duration
}

// ProgressMonitor tracks whether a run's record count or completion
// percentage has advanced recently. Once isStuck is set for a run, it
// stays set — it is sticky for the run's lifetime.
type ProgressMonitor struct {
	mu sync.Mutex

	stuckRecordsTimeout    time.Duration
	stuckPercentageTimeout time.Duration
	now                    func() time.Time

	lastRecordsCount     int
	lastPercentage       float64
	lastRecordsUpdate    time.Time
	lastPercentageUpdate time.Time
	sticky               bool
	stickyReason         StuckReason
}

// NewProgressMonitor builds a monitor with now defaulting to time.Now;
// tests may inject a fake clock.
func NewProgressMonitor(stuckRecordsTimeout, stuckPercentageTimeout time.Duration, now func() time.Time) *ProgressMonitor {
	if now == nil {
		now = time.Now
	}
	start := now()
	return &ProgressMonitor{
		stuckRecordsTimeout:    stuckRecordsTimeout,
		stuckPercentageTimeout: stuckPercentageTimeout,
		now:                    now,
		lastRecordsUpdate:      start,
		lastPercentageUpdate:   start,
	}
}

// UpdateProgress records a new (records, percentage) observation,
// advancing the relevant timestamp only when the value actually
// changed, then evaluates stuck status.
func (m *ProgressMonitor) UpdateProgress(records int, percentage float64) StuckStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if records != m.lastRecordsCount {
		m.lastRecordsCount = records
		m.lastRecordsUpdate = now
	}
	if percentage != m.lastPercentage {
		m.lastPercentage = percentage
		m.lastPercentageUpdate = now
	}

	recordsStuckFor := now.Sub(m.lastRecordsUpdate)
	percentageStuckFor := now.Sub(m.lastPercentageUpdate)

	recordsStuck := recordsStuckFor > m.stuckRecordsTimeout
	percentageStuck := percentageStuckFor > m.stuckPercentageTimeout

	if m.sticky {
		return StuckStatus{IsStuck: true, Reason: m.stickyReason, StuckFor: m.stuckForLocked(now)}
	}

	switch {
	case recordsStuck:
		m.sticky = true
		m.stickyReason = StuckRecords
		return StuckStatus{IsStuck: true, Reason: StuckRecords, StuckFor: recordsStuckFor}
	case percentageStuck:
		m.sticky = true
		m.stickyReason = StuckPercentage
		return StuckStatus{IsStuck: true, Reason: StuckPercentage, StuckFor: percentageStuckFor}
	default:
		return StuckStatus{}
	}
}

func (m *ProgressMonitor) stuckForLocked(now time.Time) time.Duration {
	if m.stickyReason == StuckRecords {
		return now.Sub(m.lastRecordsUpdate)
	}
	return now.Sub(m.lastPercentageUpdate)
}
