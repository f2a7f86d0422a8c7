package scheduler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/scrapeorch/internal/extractor"
	"github.com/rohmanhakim/scrapeorch/internal/fetcher"
	"github.com/rohmanhakim/scrapeorch/internal/metadata"
	"github.com/rohmanhakim/scrapeorch/internal/scheduler"
	"github.com/rohmanhakim/scrapeorch/pkg/limiter"
	"github.com/rohmanhakim/scrapeorch/pkg/retry"
	"github.com/rohmanhakim/scrapeorch/pkg/timeutil"
)

type stubDetailScrapeAPI struct {
	raw extractor.RawDetail
	err error
}

func (s stubDetailScrapeAPI) FetchDetail(ctx context.Context, url string, selectors extractor.Selectors) (extractor.RawDetail, error) {
	return s.raw, s.err
}

func TestAPITierBNeedsPageIsFalse(t *testing.T) {
	tierB := scheduler.NewAPITierB(fetcher.DetailAPIFetcher{}, extractor.DetailParser{}, extractor.Selectors{})
	assert.False(t, tierB.NeedsPage())
}

func TestAPITierBExtractDetailParsesFetchedFields(t *testing.T) {
	api := stubDetailScrapeAPI{raw: extractor.RawDetail{Fields: map[string]string{"name": "Toko Kopi Sedap"}}}
	retryParam := retry.NewRetryParam(1, 1, 1, 1, timeutil.NewBackoffParam(1, 2.0, 1))
	apiFetcher := fetcher.NewDetailAPIFetcher(api, limiter.New(1), retryParam, metadata.NoopSink{})
	parser := extractor.NewDetailParser(metadata.NoopSink{})
	tierB := scheduler.NewAPITierB(apiFetcher, parser, extractor.Selectors{Name: "name"})

	record, err := tierB.ExtractDetail(context.Background(), func() bool { return false }, extractor.DetailContext{URL: "https://maps.example/place/1"})

	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "Toko Kopi Sedap", record.Name)
}

func TestAPITierBExtractDetailReturnsNilWhenStopped(t *testing.T) {
	tierB := scheduler.NewAPITierB(fetcher.DetailAPIFetcher{}, extractor.DetailParser{}, extractor.Selectors{})

	record, err := tierB.ExtractDetail(context.Background(), func() bool { return true }, extractor.DetailContext{})

	require.NoError(t, err)
	assert.Nil(t, record)
}
