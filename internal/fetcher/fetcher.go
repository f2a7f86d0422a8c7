package fetcher

import (
	"context"

	"github.com/rohmanhakim/scrapeorch/pkg/failure"
	"github.com/rohmanhakim/scrapeorch/pkg/retry"
)

// ContentFetcher fetches a business's website for the optional email
// enrichment step of the extraction adapter.
type ContentFetcher interface {
	Fetch(
		ctx context.Context,
		fetchParam FetchParam,
		retryParam retry.RetryParam,
	) (FetchResult, failure.ClassifiedError)
}
