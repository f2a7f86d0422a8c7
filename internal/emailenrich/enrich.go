// Package emailenrich implements the optional email-enrichment step of
// the extraction adapter: given a business's website, fetch its
// homepage and pull out a validated contact address.
package emailenrich

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mcnijman/go-emailaddress"

	"github.com/rohmanhakim/scrapeorch/internal/fetcher"
	"github.com/rohmanhakim/scrapeorch/internal/metadata"
	"github.com/rohmanhakim/scrapeorch/pkg/retry"
	"github.com/rohmanhakim/scrapeorch/pkg/urlutil"
)

// Status mirrors the business record's email_status field: whether an
// address was found, and if not, why.
type Status string

const (
	StatusFound        Status = "found"
	StatusNoWebsite     Status = "no_website"
	StatusNoneFound     Status = "none_found"
	StatusFetchFailed   Status = "fetch_failed"
)

// Result is the outcome of enriching one business record with an email.
type Result struct {
	Email  string
	Status Status
}

var mailtoPattern = regexp.MustCompile(`(?i)mailto:([^"'?\s]+)`)

// Enricher fetches a business website and extracts the first validated
// email address found in a mailto: link or anywhere in the page's raw HTML.
type Enricher struct {
	contentFetcher fetcher.ContentFetcher
	metadataSink   metadata.MetadataSink
	userAgent      string
}

func NewEnricher(contentFetcher fetcher.ContentFetcher, metadataSink metadata.MetadataSink, userAgent string) Enricher {
	return Enricher{contentFetcher: contentFetcher, metadataSink: metadataSink, userAgent: userAgent}
}

// Enrich fetches website and extracts the first validated address. A
// blank website short-circuits to StatusNoWebsite without a fetch.
func (e Enricher) Enrich(ctx context.Context, website string, retryParam retry.RetryParam) Result {
	if strings.TrimSpace(website) == "" {
		return Result{Status: StatusNoWebsite}
	}

	parsed, err := url.Parse(website)
	if err != nil {
		return Result{Status: StatusFetchFailed}
	}
	fetchURL := urlutil.Canonicalize(*parsed)

	fetchParam := fetcher.NewFetchParam(fetchURL, e.userAgent)
	result, classifiedErr := e.contentFetcher.Fetch(ctx, fetchParam, retryParam)
	if classifiedErr != nil {
		e.recordError(website, classifiedErr.Error())
		return Result{Status: StatusFetchFailed}
	}

	body := string(result.Body())
	if addr, ok := findEmail(body); ok {
		return Result{Email: addr, Status: StatusFound}
	}
	return Result{Status: StatusNoneFound}
}

func (e Enricher) recordError(website, message string) {
	if e.metadataSink == nil {
		return
	}
	e.metadataSink.RecordError(metadata.ErrorRecord{
		PackageName: "emailenrich",
		Action:      "Enricher.Enrich",
		Cause:       metadata.CauseNetworkFailure,
		ErrorString: message,
		ObservedAt:  time.Now(),
		Attrs:       []metadata.Attribute{metadata.NewAttr(metadata.AttrURL, website)},
	})
}

// findEmail prefers a mailto: link's address, falling back to a scan
// of the page's raw text for the first candidate go-emailaddress can
// validate.
func findEmail(html string) (string, bool) {
	if matches := mailtoPattern.FindStringSubmatch(html); matches != nil {
		candidate := strings.TrimSpace(matches[1])
		if addrs := emailaddress.Find([]byte(candidate), false); len(addrs) > 0 {
			return addrs[0].String(), true
		}
	}

	addrs := emailaddress.Find([]byte(html), false)
	if len(addrs) == 0 {
		return "", false
	}
	return addrs[0].String(), true
}
