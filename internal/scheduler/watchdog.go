package scheduler

import (
	"sync/atomic"
	"time"
)

// watchdog runs a single ticking goroutine for the run's lifetime,
// checking in order: wall-clock timeout, progress-monitor stuck state,
// external job-record status. Any trigger sets the shared stop flag.
type watchdog struct {
	stopCh chan struct{}
	doneCh chan struct{}
}

type watchdogDeps struct {
	interval         time.Duration
	deadline         time.Time
	now              func() time.Time
	stop             *atomic.Bool
	progress         *ProgressMonitor
	recordsSnapshot  func() int
	percentSnapshot  func() float64
	jobHandle        JobHandle
	jobID            string
	onStuck          func(reason StuckReason)
	onExternalCancel func()
}

func startWatchdog(deps watchdogDeps) *watchdog {
	w := &watchdog{stopCh: make(chan struct{}), doneCh: make(chan struct{})}

	go func() {
		defer close(w.doneCh)
		ticker := time.NewTicker(deps.interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.stopCh:
				return
			case <-ticker.C:
				if deps.stop.Load() {
					return
				}
				if !deps.deadline.IsZero() && deps.now().After(deps.deadline) {
					deps.stop.Store(true)
					return
				}

				status := deps.progress.UpdateProgress(deps.recordsSnapshot(), deps.percentSnapshot())
				if status.IsStuck {
					if deps.jobHandle != nil {
						deps.jobHandle.UpdateStatus(deps.jobID, JobStuckTimeout, string(status.Reason))
					}
					if deps.onStuck != nil {
						deps.onStuck(status.Reason)
					}
					deps.stop.Store(true)
					return
				}

				if deps.jobHandle != nil {
					jobStatus, err := deps.jobHandle.GetStatus(deps.jobID)
					if err == nil && jobStatus == JobFailed {
						if deps.onExternalCancel != nil {
							deps.onExternalCancel()
						}
						deps.stop.Store(true)
						return
					}
				}
			}
		}
	}()

	return w
}

func (w *watchdog) Stop() {
	close(w.stopCh)
	<-w.doneCh
}
