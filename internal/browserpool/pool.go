package browserpool

import (
	"context"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/rohmanhakim/scrapeorch/internal/collections"
)

// Page wraps one chromedp browser-tab context. pool is a tag back to
// the originating Pool so a release always targets the pool that
// created the page, even across a concurrent Session rotation.
type Page struct {
	ctx    context.Context
	cancel context.CancelFunc
	pool   *Pool
}

func (p *Page) Context() context.Context {
	return p.ctx
}

type acquireResult struct {
	page *Page
	err  *PoolError
}

// Pool is C2: a capacity-bounded, reusable set of browser tabs.
type Pool struct {
	mu      sync.Mutex
	closed  bool
	maxPages int
	created int
	available []*Page
	pending *collections.FIFOQueue[chan acquireResult]

	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc

	userAgent           string
	navTimeout          int64
	blockHeavyResources bool
}

// NewPool launches a headless browser allocator and returns an empty,
// ready-to-acquire-from Pool. maxPages bounds the number of concurrently
// live tabs; userAgent and blockHeavyResources are stamped onto every
// page this pool creates.
func NewPool(parent context.Context, maxPages int, userAgent string, blockHeavyResources bool) *Pool {
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(
		parent,
		append(
			chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.DisableGPU,
			chromedp.NoSandbox,
			chromedp.UserAgent(userAgent),
		)...,
	)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)

	return &Pool{
		maxPages:            maxPages,
		pending:             collections.NewFIFOQueue[chan acquireResult](),
		allocatorCtx:        allocatorCtx,
		allocatorCancel:     allocatorCancel,
		browserCtx:          browserCtx,
		browserCancel:       browserCancel,
		userAgent:           userAgent,
		blockHeavyResources: blockHeavyResources,
	}
}

// acquire returns an idle page, creates a fresh one if under capacity,
// or parks the caller on the waiter queue until one is released.
func (pool *Pool) acquire(ctx context.Context) (*Page, *PoolError) {
	pool.mu.Lock()
	if pool.closed {
		pool.mu.Unlock()
		return nil, ErrPoolClosed
	}

	if n := len(pool.available); n > 0 {
		page := pool.available[n-1]
		pool.available = pool.available[:n-1]
		pool.mu.Unlock()
		return page, nil
	}

	if pool.created < pool.maxPages {
		pool.created++
		pool.mu.Unlock()
		page, err := pool.newPage()
		if err != nil {
			pool.mu.Lock()
			pool.created--
			pool.mu.Unlock()
			return nil, err
		}
		return page, nil
	}

	waiter := make(chan acquireResult, 1)
	pool.pending.Enqueue(waiter)
	pool.mu.Unlock()

	select {
	case result := <-waiter:
		if result.err != nil {
			return nil, result.err
		}
		return result.page, nil
	case <-ctx.Done():
		return nil, &PoolError{Cause: ErrCauseCapacityExhausted, Message: ctx.Err().Error(), Retryable: true}
	}
}

func (pool *Pool) newPage() (*Page, *PoolError) {
	pageCtx, pageCancel := chromedp.NewContext(pool.browserCtx)
	page := &Page{ctx: pageCtx, cancel: pageCancel, pool: pool}

	if err := chromedp.Run(pageCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		if !pool.blockHeavyResources {
			return network.SetBlockedURLs([]string{"*.png", "*.jpg", "*.jpeg", "*.gif", "*.woff", "*.woff2", "*.mp4"}).Do(ctx)
		}
		return network.SetBlockedURLs([]string{
			"*.png", "*.jpg", "*.jpeg", "*.gif", "*.woff", "*.woff2", "*.mp4", "*.css",
		}).Do(ctx)
	})); err != nil {
		pageCancel()
		return nil, &PoolError{Cause: ErrCausePageCreationFailed, Message: err.Error(), Retryable: true}
	}

	return page, nil
}

// release hands the page back to a waiter if one is queued, else
// returns it to the idle stack. Pages released after close are
// discarded and their underlying context cancelled.
func (pool *Pool) release(page *Page) {
	pool.mu.Lock()
	if pool.closed {
		pool.mu.Unlock()
		page.cancel()
		return
	}

	if waiter, ok := pool.pending.Dequeue(); ok {
		pool.mu.Unlock()
		waiter <- acquireResult{page: page}
		return
	}

	pool.available = append(pool.available, page)
	pool.mu.Unlock()
}

// dropClosed removes a page detected closed out-of-band (navigation
// target crashed) from the idle stack, reclaiming pool capacity.
func (pool *Pool) dropClosed(page *Page) {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	for i, candidate := range pool.available {
		if candidate == page {
			pool.available = append(pool.available[:i], pool.available[i+1:]...)
			pool.created--
			return
		}
	}
}

// close rejects all waiters with PoolClosed, clears state, and tears
// down the underlying browser process.
func (pool *Pool) close() {
	pool.mu.Lock()
	if pool.closed {
		pool.mu.Unlock()
		return
	}
	pool.closed = true
	for {
		waiter, ok := pool.pending.Dequeue()
		if !ok {
			break
		}
		waiter <- acquireResult{err: ErrPoolClosed}
	}
	available := pool.available
	pool.available = nil
	pool.mu.Unlock()

	for _, page := range available {
		page.cancel()
	}
	pool.browserCancel()
	pool.allocatorCancel()
}
