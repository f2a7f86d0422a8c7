package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rohmanhakim/scrapeorch/internal/extractor"
	"github.com/rohmanhakim/scrapeorch/internal/metadata"
	"github.com/rohmanhakim/scrapeorch/pkg/failure"
	"github.com/rohmanhakim/scrapeorch/pkg/limiter"
	"github.com/rohmanhakim/scrapeorch/pkg/retry"
)

// DetailScrapeAPI is the injected collaborator for the no-page
// extraction path: a site-specific external service that renders a
// detail URL against a selector table and returns the matched fields
// without a browser page.
type DetailScrapeAPI interface {
	FetchDetail(ctx context.Context, url string, selectors extractor.Selectors) (extractor.RawDetail, error)
}

// DetailAPIFetcher wraps a DetailScrapeAPI with retry and a dedicated
// concurrency gate, independent of the page-path's detail limiter.
type DetailAPIFetcher struct {
	api          DetailScrapeAPI
	apiLimiter   *limiter.Limiter
	retryParam   retry.RetryParam
	metadataSink metadata.MetadataSink
}

func NewDetailAPIFetcher(api DetailScrapeAPI, apiLimiter *limiter.Limiter, retryParam retry.RetryParam, metadataSink metadata.MetadataSink) DetailAPIFetcher {
	return DetailAPIFetcher{api: api, apiLimiter: apiLimiter, retryParam: retryParam, metadataSink: metadataSink}
}

// FetchDetail gates the call through apiLimiter, then retries it per
// retryParam. Errors from the underlying API are retried only when they
// classify themselves as transient (failure.Retryable's IsRetryable);
// an API that returns an unclassified error is treated as non-retryable,
// matching the conservative default a fetched-but-unparseable response
// would get.
func (f DetailAPIFetcher) FetchDetail(ctx context.Context, url string, selectors extractor.Selectors) (extractor.RawDetail, failure.ClassifiedError) {
	var result retry.Result[extractor.RawDetail]

	runErr := f.apiLimiter.Run(ctx, func(ctx context.Context) error {
		result = retry.Retry(f.retryParam, func() (extractor.RawDetail, failure.ClassifiedError) {
			startedAt := time.Now()
			raw, err := f.api.FetchDetail(ctx, url, selectors)
			if err != nil {
				f.recordError(url, err)
				return extractor.RawDetail{}, &DetailAPIError{Message: err.Error(), Retryable: isAPIErrRetryable(err)}
			}
			f.recordFetch(url, startedAt)
			return raw, nil
		})
		return nil
	})
	if runErr != nil {
		return extractor.RawDetail{}, &DetailAPIError{Message: runErr.Error(), Retryable: false}
	}

	if result.IsFailure() {
		return extractor.RawDetail{}, result.Err()
	}
	return result.Value(), nil
}

func (f DetailAPIFetcher) recordFetch(url string, startedAt time.Time) {
	if f.metadataSink == nil {
		return
	}
	f.metadataSink.RecordFetch(metadata.FetchEvent{
		URL:        url,
		Duration:   time.Since(startedAt),
		Retryable:  true,
		ObservedAt: startedAt,
	})
}

func (f DetailAPIFetcher) recordError(url string, err error) {
	if f.metadataSink == nil {
		return
	}
	f.metadataSink.RecordError(metadata.ErrorRecord{
		PackageName: "fetcher",
		Action:      "DetailAPIFetcher.FetchDetail",
		Cause:       metadata.CauseNetworkFailure,
		ErrorString: err.Error(),
		ObservedAt:  time.Now(),
		Attrs:       []metadata.Attribute{metadata.NewAttr(metadata.AttrURL, url)},
	})
}

// isAPIErrRetryable reports whether err opted into failure.Retryable.
// An API error that doesn't implement it (no classified taxonomy of its
// own) is treated as non-retryable rather than blindly retried.
func isAPIErrRetryable(err error) bool {
	var r failure.Retryable
	if errors.As(err, &r) {
		return r.IsRetryable()
	}
	return false
}

// DetailAPIError classifies failures from the injected DetailScrapeAPI.
type DetailAPIError struct {
	Message   string
	Retryable bool
}

func (e *DetailAPIError) Error() string {
	return fmt.Sprintf("detail scrape api error: %s", e.Message)
}

func (e *DetailAPIError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *DetailAPIError) IsRetryable() bool {
	return e.Retryable
}
