package scheduler

import (
	"context"

	"github.com/rohmanhakim/scrapeorch/internal/extractor"
	"github.com/rohmanhakim/scrapeorch/internal/fetcher"
)

// TierBExtractor performs the extraction phase: given a detail URL,
// return either a BusinessRecord or nil (dropped, e.g. missing name).
type TierBExtractor interface {
	ExtractDetail(ctx context.Context, stop func() bool, detailCtx extractor.DetailContext) (*extractor.BusinessRecord, error)
	// NeedsPage reports whether this extractor requires a browser page,
	// and therefore must run through the detail concurrency limiter
	// rather than bypassing it (spec.md §4.8 tier-B scheduling).
	NeedsPage() bool
}

// PagePathTierB wraps extractor.PagePathExtractor: the C7(b) path that
// navigates a browser page per detail URL.
type PagePathTierB struct {
	extractor      extractor.PagePathExtractor
	selectors      extractor.Selectors
	reviewParams   extractor.PageExtractionParams
}

func NewPagePathTierB(pageExtractor extractor.PagePathExtractor, selectors extractor.Selectors, reviewParams extractor.PageExtractionParams) PagePathTierB {
	return PagePathTierB{extractor: pageExtractor, selectors: selectors, reviewParams: reviewParams}
}

func (t PagePathTierB) ExtractDetail(ctx context.Context, stop func() bool, detailCtx extractor.DetailContext) (*extractor.BusinessRecord, error) {
	return t.extractor.Extract(ctx, stop, t.selectors, detailCtx, t.reviewParams)
}

func (t PagePathTierB) NeedsPage() bool { return true }

// APITierB wraps a fetcher.DetailAPIFetcher + extractor.DetailParser:
// the C7(a) no-page path, bounded only by the API's own concurrency
// limiter rather than the page pool.
type APITierB struct {
	apiFetcher fetcher.DetailAPIFetcher
	parser     extractor.DetailParser
	selectors  extractor.Selectors
}

func NewAPITierB(apiFetcher fetcher.DetailAPIFetcher, parser extractor.DetailParser, selectors extractor.Selectors) APITierB {
	return APITierB{apiFetcher: apiFetcher, parser: parser, selectors: selectors}
}

func (t APITierB) ExtractDetail(ctx context.Context, stop func() bool, detailCtx extractor.DetailContext) (*extractor.BusinessRecord, error) {
	if stop() {
		return nil, nil
	}
	raw, err := t.apiFetcher.FetchDetail(ctx, detailCtx.URL, t.selectors)
	if err != nil {
		return nil, err
	}
	record, classifiedErr := t.parser.ParseRawDetail(raw, detailCtx)
	if classifiedErr != nil {
		return nil, classifiedErr
	}
	return record, nil
}

func (t APITierB) NeedsPage() bool { return false }
