package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rohmanhakim/scrapeorch/internal/extractor"
)

// RESTDetailScrapeAPI is the default DetailScrapeAPI: a JSON-over-HTTP
// client for a site-specific rendering service that takes a detail URL
// and selector table and returns already-extracted fields, bypassing the
// browser pool entirely for C7's no-page path.
type RESTDetailScrapeAPI struct {
	baseURL    string
	httpClient *http.Client
}

func NewRESTDetailScrapeAPI(baseURL string) RESTDetailScrapeAPI {
	return RESTDetailScrapeAPI{baseURL: baseURL, httpClient: &http.Client{}}
}

type scrapeAPIRequest struct {
	URL       string              `json:"url"`
	Selectors extractor.Selectors `json:"selectors"`
}

type scrapeAPIResponse struct {
	Fields map[string]string   `json:"fields"`
	Lines  map[string][]string `json:"lines"`
}

func (c RESTDetailScrapeAPI) FetchDetail(ctx context.Context, detailURL string, selectors extractor.Selectors) (extractor.RawDetail, error) {
	body, err := json.Marshal(scrapeAPIRequest{URL: detailURL, Selectors: selectors})
	if err != nil {
		return extractor.RawDetail{}, &ScrapeAPIError{Message: fmt.Sprintf("encode request: %v", err), Retryable: false}
	}

	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return extractor.RawDetail{}, &ScrapeAPIError{Message: fmt.Sprintf("invalid base URL: %v", err), Retryable: false}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return extractor.RawDetail{}, &ScrapeAPIError{Message: fmt.Sprintf("build request: %v", err), Retryable: false}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return extractor.RawDetail{}, &ScrapeAPIError{Message: fmt.Sprintf("request failed: %v", err), Retryable: true}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode == http.StatusRequestTimeout:
		return extractor.RawDetail{}, &ScrapeAPIError{Message: fmt.Sprintf("scrape api status %d", resp.StatusCode), Retryable: true}
	case resp.StatusCode >= 400:
		return extractor.RawDetail{}, &ScrapeAPIError{Message: fmt.Sprintf("scrape api status %d", resp.StatusCode), Retryable: false}
	}

	var parsed scrapeAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return extractor.RawDetail{}, &ScrapeAPIError{Message: fmt.Sprintf("decode response: %v", err), Retryable: false}
	}

	return extractor.RawDetail{Fields: parsed.Fields, Lines: parsed.Lines}, nil
}

// ScrapeAPIError classifies a RESTDetailScrapeAPI failure so
// DetailAPIFetcher's retry policy only re-attempts transient failures:
// 5xx, 429, and 408 responses plus transport errors are Retryable; a
// malformed request, bad response body, or any other 4xx is not.
type ScrapeAPIError struct {
	Message   string
	Retryable bool
}

func (e *ScrapeAPIError) Error() string {
	return fmt.Sprintf("scrape api error: %s", e.Message)
}

func (e *ScrapeAPIError) IsRetryable() bool {
	return e.Retryable
}
