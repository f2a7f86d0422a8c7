package browserpool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// SessionConfig mirrors the subset of internal/config.Config a Session
// needs, kept narrow so the package doesn't import the whole config
// surface.
type SessionConfig struct {
	MaxPages            int
	UserAgent           string
	BlockHeavyResources bool
	SessionMax          time.Duration
	DrainTimeout        time.Duration
	RetryLimit          int
}

// Session is C3: owns the current Pool and rotates it out once its
// session age or error budget is exceeded, transparently retrying
// withPage callers across the rotation.
type Session struct {
	cfg SessionConfig

	poolPtr        atomic.Pointer[Pool]
	startedAt      atomic.Int64
	activePages    atomic.Int64
	rotateMu       sync.Mutex
	rotateInFlight *sync.WaitGroup

	parentCtx context.Context
}

func NewSession(parent context.Context, cfg SessionConfig) *Session {
	s := &Session{cfg: cfg, parentCtx: parent}
	s.poolPtr.Store(NewPool(parent, cfg.MaxPages, cfg.UserAgent, cfg.BlockHeavyResources))
	s.startedAt.Store(time.Now().UnixNano())
	return s
}

func (s *Session) ensureActiveSession() {
	age := time.Duration(time.Now().UnixNano() - s.startedAt.Load())
	if age >= s.cfg.SessionMax {
		s.rotate("session age exceeded")
	}
}

// rotate swaps in a fresh pool, draining the old one before closing it.
// A rotation already in flight is awaited rather than duplicated.
func (s *Session) rotate(reason string) {
	s.rotateMu.Lock()
	if s.rotateInFlight != nil {
		wg := s.rotateInFlight
		s.rotateMu.Unlock()
		wg.Wait()
		return
	}
	wg := &sync.WaitGroup{}
	wg.Add(1)
	s.rotateInFlight = wg
	s.rotateMu.Unlock()

	defer func() {
		s.rotateMu.Lock()
		s.rotateInFlight = nil
		s.rotateMu.Unlock()
		wg.Done()
	}()

	oldPool := s.poolPtr.Load()
	newPool := NewPool(s.parentCtx, s.cfg.MaxPages, s.cfg.UserAgent, s.cfg.BlockHeavyResources)
	s.poolPtr.Store(newPool)
	s.startedAt.Store(time.Now().UnixNano())

	deadline := time.Now().Add(s.cfg.DrainTimeout)
	for s.activePages.Load() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	oldPool.close()
}

func (s *Session) acquire(ctx context.Context) (*Page, *PoolError) {
	s.activePages.Add(1)
	pool := s.poolPtr.Load()
	page, err := pool.acquire(ctx)
	if err != nil {
		s.activePages.Add(-1)
		if err.Cause == ErrCausePoolClosed {
			current := s.poolPtr.Load()
			if current != pool {
				s.activePages.Add(1)
				page, err = current.acquire(ctx)
				if err != nil {
					s.activePages.Add(-1)
					return nil, err
				}
				return page, nil
			}
		}
		return nil, err
	}
	return page, nil
}

func (s *Session) release(page *Page) {
	page.pool.release(page)
	s.activePages.Add(-1)
}

// WithPage acquires a page, runs fn against it, and releases it in all
// paths. On a session-class error, the session rotates and the call is
// retried up to cfg.RetryLimit additional attempts. If stop reports
// true, fn is skipped entirely and (false, nil) is returned.
func (s *Session) WithPage(ctx context.Context, stop func() bool, fn func(ctx context.Context, page *Page) error) (bool, error) {
	if stop != nil && stop() {
		return false, nil
	}

	s.ensureActiveSession()

	var lastErr error
	for attempt := 0; attempt <= s.cfg.RetryLimit; attempt++ {
		page, acquireErr := s.acquire(ctx)
		if acquireErr != nil {
			lastErr = acquireErr
			if isSessionClassError(acquireErr) {
				s.rotate("acquire failed with session-class error")
				continue
			}
			return false, acquireErr
		}

		err := fn(page.ctx, page)
		s.release(page)

		if err == nil {
			return true, nil
		}

		lastErr = err
		if isSessionClassError(err) {
			s.rotate("withPage callback failed with session-class error")
			continue
		}
		return false, err
	}

	return false, lastErr
}

// Close shuts down the session's current pool and releases all browser
// resources. Called once at job end; aborts in-flight navigations.
func (s *Session) Close() {
	s.poolPtr.Load().close()
}
