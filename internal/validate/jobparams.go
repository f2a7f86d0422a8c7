// Package validate enforces the job-parameter invariants of spec.md §3
// before a job reaches the scheduler, and the optional per-record
// acceptance rule a job can opt into via IsValidate.
package validate

import (
	"time"

	"github.com/rohmanhakim/scrapeorch/internal/extractor"
	"github.com/rohmanhakim/scrapeorch/internal/metadata"
	"github.com/rohmanhakim/scrapeorch/pkg/failure"
)

// FilterOperator mirrors extractor.FilterOperator so JobParams doesn't
// need to import the extractor package just for this enum.
type FilterOperator = extractor.FilterOperator

// RangeFilter is a job's ratingFilter/reviewFilter shape.
type RangeFilter struct {
	Operator FilterOperator
	Value    float64
}

// JobParams is C8's input contract, per spec.md §3.
type JobParams struct {
	Keyword                string
	CountryCode            string
	StateCode              string
	City                   string
	MaxRecords             int
	RatingFilter           *RangeFilter
	ReviewFilter           *RangeFilter
	ReviewTimeRangeYears   int
	IsExtractEmail         bool
	IsValidate             bool
	ExtractNegativeReviews bool
	AvoidDuplicate         bool
	OnlyWithoutWebsite     bool
	UserID                 string
	JobID                  string
	Locale                 string
}

// Validator checks JobParams against spec.md's declared ranges and
// optionally filters BusinessRecords at tier-B completion.
type Validator struct {
	metadataSink metadata.MetadataSink
}

func NewValidator(metadataSink metadata.MetadataSink) Validator {
	return Validator{metadataSink: metadataSink}
}

// ValidateJobParams checks the input contract: non-empty keyword,
// ISO-3166 alpha-2 country code, non-negative maxRecords, filter
// operators drawn from {gt,gte,lt,lte} with values in range, and
// reviewTimeRange within [0,10] years.
func (v Validator) ValidateJobParams(params JobParams) failure.ClassifiedError {
	if params.Keyword == "" {
		return v.fail(ErrCauseMissingKeyword, "keyword is required")
	}
	if len(params.CountryCode) != 2 {
		return v.fail(ErrCauseInvalidCountryCode, "countryCode must be ISO-3166 alpha-2")
	}
	if params.MaxRecords < 0 {
		return v.fail(ErrCauseInvalidMaxRecords, "maxRecords must be non-negative")
	}
	if params.RatingFilter != nil {
		if err := validateOperator(params.RatingFilter.Operator); err != nil {
			return v.fail(ErrCauseInvalidFilter, "ratingFilter: "+err.Error())
		}
		if params.RatingFilter.Value < 0 || params.RatingFilter.Value > 5 {
			return v.fail(ErrCauseInvalidFilter, "ratingFilter.value must be within [0,5]")
		}
	}
	if params.ReviewFilter != nil {
		if err := validateOperator(params.ReviewFilter.Operator); err != nil {
			return v.fail(ErrCauseInvalidFilter, "reviewFilter: "+err.Error())
		}
		if params.ReviewFilter.Value < 0 || params.ReviewFilter.Value > 10000 {
			return v.fail(ErrCauseInvalidFilter, "reviewFilter.value must be within [0,10000]")
		}
	}
	if params.ReviewTimeRangeYears < 0 || params.ReviewTimeRangeYears > 10 {
		return v.fail(ErrCauseInvalidReviewTimeRange, "reviewTimeRange must be within [0,10] years")
	}
	return nil
}

func validateOperator(op FilterOperator) error {
	switch op {
	case extractor.FilterGT, extractor.FilterGTE, extractor.FilterLT, extractor.FilterLTE:
		return nil
	default:
		return &ValidationError{Message: "unknown operator", Cause: ErrCauseInvalidFilter}
	}
}

// AcceptRecord applies the job's onlyWithoutWebsite filter unconditionally,
// and — when IsValidate is set — a stricter contactability check
// requiring at least one of phone/address to be non-empty (a record
// with neither is unreachable by the caller and treated as noise).
func (v Validator) AcceptRecord(record *extractor.BusinessRecord, params JobParams) bool {
	if record == nil {
		return false
	}
	if params.OnlyWithoutWebsite && record.Website != "" {
		return false
	}
	if params.IsValidate && record.Phone == "" && record.Address == "" {
		v.record("AcceptRecord", ErrCauseUncontactableRecord, "record dropped: no phone or address")
		return false
	}
	return true
}

func (v Validator) fail(cause ValidationErrorCause, message string) failure.ClassifiedError {
	err := &ValidationError{Message: message, Cause: cause}
	v.record("ValidateJobParams", cause, message)
	return err
}

func (v Validator) record(action string, cause ValidationErrorCause, message string) {
	if v.metadataSink == nil {
		return
	}
	v.metadataSink.RecordError(metadata.ErrorRecord{
		PackageName: "validate",
		Action:      action,
		Cause:       mapValidationErrorToMetadataCause(cause),
		ErrorString: message,
		ObservedAt:  time.Now(),
	})
}
