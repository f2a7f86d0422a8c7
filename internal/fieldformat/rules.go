// Package fieldformat holds the small table of parsing/cleanup rules for
// raw card and detail text scraped off a listing page: phone-number
// whitespace normalization, address line joining, rating-string-to-float,
// and review-count-string-to-int. Centralizing them here keeps the regexes
// out of the extraction code proper.
package fieldformat

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rohmanhakim/scrapeorch/internal/metadata"
	"github.com/rohmanhakim/scrapeorch/pkg/failure"
)

// FieldRule converts one raw scraped string field into a cleaned value.
type FieldRule[T any] interface {
	Format(raw string) (T, failure.ClassifiedError)
}

var whitespaceRun = regexp.MustCompile(`\s+`)
var nonDigitRun = regexp.MustCompile(`[^\d.]`)

// PhoneRule collapses repeated whitespace in a raw phone-number string
// and trims surrounding separators, without attempting E.164 parsing.
type PhoneRule struct {
	metadataSink metadata.MetadataSink
}

func NewPhoneRule(metadataSink metadata.MetadataSink) PhoneRule {
	return PhoneRule{metadataSink: metadataSink}
}

func (r PhoneRule) Format(raw string) (string, failure.ClassifiedError) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		err := &FormatError{Message: "empty phone field", Retryable: false, Cause: ErrCauseEmptyInput}
		r.record("PhoneRule.Format", err)
		return "", err
	}
	return whitespaceRun.ReplaceAllString(trimmed, " "), nil
}

// AddressRule joins address lines scraped as separate DOM text nodes
// into a single comma-separated line, collapsing blank segments.
type AddressRule struct{}

func NewAddressRule() AddressRule {
	return AddressRule{}
}

func (AddressRule) Format(lines []string) (string, failure.ClassifiedError) {
	var parts []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, ", "), nil
}

// RatingRule parses a raw rating string ("4.5 stars", "4,5") into a float.
type RatingRule struct {
	metadataSink metadata.MetadataSink
}

func NewRatingRule(metadataSink metadata.MetadataSink) RatingRule {
	return RatingRule{metadataSink: metadataSink}
}

func (r RatingRule) Format(raw string) (float64, failure.ClassifiedError) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	numeric := nonDigitRun.ReplaceAllString(cleaned, "")
	if numeric == "" {
		err := &FormatError{Message: "no digits in rating", Retryable: false, Cause: ErrCauseUnparseableNumber}
		r.record("RatingRule.Format", err)
		return 0, err
	}
	v, parseErr := strconv.ParseFloat(numeric, 64)
	if parseErr != nil {
		err := &FormatError{Message: parseErr.Error(), Retryable: false, Cause: ErrCauseUnparseableNumber}
		r.record("RatingRule.Format", err)
		return 0, err
	}
	return v, nil
}

// ReviewCountRule parses a raw review-count string ("(1,234)", "1.2K
// reviews") into an int, understanding the "K"/"M" scraped-card suffixes.
type ReviewCountRule struct {
	metadataSink metadata.MetadataSink
}

func NewReviewCountRule(metadataSink metadata.MetadataSink) ReviewCountRule {
	return ReviewCountRule{metadataSink: metadataSink}
}

func (r ReviewCountRule) Format(raw string) (int, failure.ClassifiedError) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.Trim(cleaned, "()")
	cleaned = strings.TrimSuffix(cleaned, "reviews")
	cleaned = strings.TrimSpace(cleaned)

	multiplier := 1.0
	upper := strings.ToUpper(cleaned)
	switch {
	case strings.HasSuffix(upper, "K"):
		multiplier = 1000
		cleaned = cleaned[:len(cleaned)-1]
	case strings.HasSuffix(upper, "M"):
		multiplier = 1_000_000
		cleaned = cleaned[:len(cleaned)-1]
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		err := &FormatError{Message: "no digits in review count", Retryable: false, Cause: ErrCauseUnparseableNumber}
		r.record("ReviewCountRule.Format", err)
		return 0, err
	}

	v, parseErr := strconv.ParseFloat(cleaned, 64)
	if parseErr != nil {
		err := &FormatError{Message: parseErr.Error(), Retryable: false, Cause: ErrCauseUnparseableNumber}
		r.record("ReviewCountRule.Format", err)
		return 0, err
	}
	return int(v * multiplier), nil
}

func (r PhoneRule) record(action string, err *FormatError) {
	if r.metadataSink == nil {
		return
	}
	r.metadataSink.RecordError(metadata.ErrorRecord{
		PackageName: "fieldformat",
		Action:      action,
		Cause:       mapFormatErrorToMetadataCause(err),
		ErrorString: err.Error(),
		ObservedAt:  time.Now(),
	})
}

func (r RatingRule) record(action string, err *FormatError) {
	if r.metadataSink == nil {
		return
	}
	r.metadataSink.RecordError(metadata.ErrorRecord{
		PackageName: "fieldformat",
		Action:      action,
		Cause:       mapFormatErrorToMetadataCause(err),
		ErrorString: err.Error(),
		ObservedAt:  time.Now(),
	})
}

func (r ReviewCountRule) record(action string, err *FormatError) {
	if r.metadataSink == nil {
		return
	}
	r.metadataSink.RecordError(metadata.ErrorRecord{
		PackageName: "fieldformat",
		Action:      action,
		Cause:       mapFormatErrorToMetadataCause(err),
		ErrorString: err.Error(),
		ObservedAt:  time.Now(),
	})
}
