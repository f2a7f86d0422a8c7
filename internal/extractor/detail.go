package extractor

import (
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/rohmanhakim/scrapeorch/internal/fieldformat"
	"github.com/rohmanhakim/scrapeorch/internal/metadata"
	"github.com/rohmanhakim/scrapeorch/pkg/failure"
)

// DetailContext carries the job-scoped fields a parsed BusinessRecord
// must be stamped with, none of which come off the detail page itself.
type DetailContext struct {
	SearchTerm     string
	SearchType     string
	SearchLocation string
	URL            string
}

// DetailParser builds a BusinessRecord from either execution path: a
// goquery document (page path) or a RawDetail response (no-page path).
// Both funnel through the same field-formatting rules so the output
// contract is identical regardless of which path produced it.
type DetailParser struct {
	metadataSink metadata.MetadataSink
	phoneRule    fieldformat.PhoneRule
	ratingRule   fieldformat.RatingRule
	reviewRule   fieldformat.ReviewCountRule
	addressRule  fieldformat.AddressRule
}

func NewDetailParser(metadataSink metadata.MetadataSink) DetailParser {
	return DetailParser{
		metadataSink: metadataSink,
		phoneRule:    fieldformat.NewPhoneRule(metadataSink),
		ratingRule:   fieldformat.NewRatingRule(metadataSink),
		reviewRule:   fieldformat.NewReviewCountRule(metadataSink),
		addressRule:  fieldformat.NewAddressRule(),
	}
}

// ParseDocument extracts a BusinessRecord from a rendered detail page.
// Used by the page path after navigation, and available to the no-page
// path too when the detail-scrape API returns rendered HTML instead of
// a field map.
func (p DetailParser) ParseDocument(doc *goquery.Document, selectors Selectors, ctx DetailContext) (*BusinessRecord, failure.ClassifiedError) {
	name := firstText(doc, selectors.Name)
	if name == "" {
		err := &ExtractionError{Message: "detail page carries no name", Retryable: false, Cause: ErrCauseMissingName}
		p.record("ParseDocument", err)
		return nil, nil
	}

	record := &BusinessRecord{
		Name:           name,
		Phone:          p.formatPhone(attrOrText(doc, selectors.Phone)),
		Website:        attrOrText(doc, selectors.Website),
		Address:        p.formatAddress(doc, selectors.Address),
		Category:       firstText(doc, selectors.Category),
		SearchTerm:     ctx.SearchTerm,
		SearchType:     ctx.SearchType,
		SearchLocation: ctx.SearchLocation,
		URL:            ctx.URL,
	}

	if ratingText := firstText(doc, selectors.Rating); ratingText != "" {
		if rating, formatErr := p.ratingRule.Format(ratingText); formatErr == nil {
			record.Rating = &rating
		}
	}
	if countText := firstText(doc, selectors.RatingCount); countText != "" {
		if count, formatErr := p.reviewRule.Format(countText); formatErr == nil {
			record.RatingCount = itoaOrEmpty(count)
		}
	}

	return record, nil
}

// ParseRawDetail extracts a BusinessRecord from the no-page path's
// structured API response.
func (p DetailParser) ParseRawDetail(raw RawDetail, ctx DetailContext) (*BusinessRecord, failure.ClassifiedError) {
	name := raw.Fields["name"]
	if name == "" {
		err := &ExtractionError{Message: "detail api response carries no name", Retryable: false, Cause: ErrCauseMissingName}
		p.record("ParseRawDetail", err)
		return nil, nil
	}

	record := &BusinessRecord{
		Name:           name,
		Phone:          p.formatPhone(raw.Fields["phone"]),
		Website:        raw.Fields["website"],
		Category:       raw.Fields["category"],
		SearchTerm:     ctx.SearchTerm,
		SearchType:     ctx.SearchType,
		SearchLocation: ctx.SearchLocation,
		URL:            ctx.URL,
	}

	if lines, ok := raw.Lines["address"]; ok {
		if address, formatErr := p.addressRule.Format(lines); formatErr == nil {
			record.Address = address
		}
	}
	if ratingText := raw.Fields["rating"]; ratingText != "" {
		if rating, formatErr := p.ratingRule.Format(ratingText); formatErr == nil {
			record.Rating = &rating
		}
	}
	if countText := raw.Fields["rating_count"]; countText != "" {
		if count, formatErr := p.reviewRule.Format(countText); formatErr == nil {
			record.RatingCount = itoaOrEmpty(count)
		}
	}

	return record, nil
}

func (p DetailParser) formatPhone(raw string) string {
	if raw == "" {
		return ""
	}
	formatted, err := p.phoneRule.Format(raw)
	if err != nil {
		return raw
	}
	return formatted
}

func (p DetailParser) formatAddress(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	var lines []string
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		lines = append(lines, sel.Text())
	})
	formatted, err := p.addressRule.Format(lines)
	if err != nil {
		return ""
	}
	return formatted
}

func (p DetailParser) record(action string, err *ExtractionError) {
	if p.metadataSink == nil {
		return
	}
	p.metadataSink.RecordError(metadata.ErrorRecord{
		PackageName: "extractor",
		Action:      action,
		Cause:       mapExtractionErrorToMetadataCause(err),
		ErrorString: err.Error(),
		ObservedAt:  time.Now(),
	})
}

func firstText(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	return doc.Find(selector).First().Text()
}

func attrOrText(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	sel := doc.Find(selector).First()
	if href, ok := sel.Attr("href"); ok {
		return href
	}
	return sel.Text()
}

func itoaOrEmpty(v int) string {
	return strconv.Itoa(v)
}
