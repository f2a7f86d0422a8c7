package emailenrich_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/scrapeorch/internal/emailenrich"
	"github.com/rohmanhakim/scrapeorch/internal/fetcher"
	"github.com/rohmanhakim/scrapeorch/internal/metadata"
	"github.com/rohmanhakim/scrapeorch/pkg/retry"
	"github.com/rohmanhakim/scrapeorch/pkg/timeutil"
)

func testRetryParam() retry.RetryParam {
	return retry.NewRetryParam(5*time.Millisecond, 2*time.Millisecond, 1, 2, timeutil.NewBackoffParam(5*time.Millisecond, 2.0, 50*time.Millisecond))
}

func TestEnrichNoWebsiteShortCircuits(t *testing.T) {
	sink := metadata.NewRecorder("job-1")
	enricher := emailenrich.NewEnricher(fetcher.NewHtmlFetcher(sink), sink, "test-agent")

	result := enricher.Enrich(context.Background(), "", testRetryParam())
	assert.Equal(t, emailenrich.StatusNoWebsite, result.Status)
}

func TestEnrichFindsMailtoAddress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><a href="mailto:contact@example.com">Email us</a></body></html>`))
	}))
	defer server.Close()

	sink := metadata.NewRecorder("job-1")
	enricher := emailenrich.NewEnricher(fetcher.NewHtmlFetcher(sink), sink, "test-agent")

	result := enricher.Enrich(context.Background(), server.URL, testRetryParam())
	assert.Equal(t, emailenrich.StatusFound, result.Status)
	assert.Equal(t, "contact@example.com", result.Email)
}

func TestEnrichNoneFoundWhenNoEmailPresent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body>no contact info here</body></html>`))
	}))
	defer server.Close()

	sink := metadata.NewRecorder("job-1")
	enricher := emailenrich.NewEnricher(fetcher.NewHtmlFetcher(sink), sink, "test-agent")

	result := enricher.Enrich(context.Background(), server.URL, testRetryParam())
	assert.Equal(t, emailenrich.StatusNoneFound, result.Status)
}

func TestEnrichFetchFailedOnUnreachableHost(t *testing.T) {
	sink := metadata.NewRecorder("job-1")
	enricher := emailenrich.NewEnricher(fetcher.NewHtmlFetcher(sink), sink, "test-agent")

	result := enricher.Enrich(context.Background(), "http://127.0.0.1:0", testRetryParam())
	assert.Equal(t, emailenrich.StatusFetchFailed, result.Status)
}
