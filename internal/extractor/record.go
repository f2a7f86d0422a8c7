package extractor

import "time"

// BusinessRecord is the output contract shared by both the no-page and
// page extraction paths. Name is the only required field: a record with
// an empty Name is dropped rather than emitted.
type BusinessRecord struct {
	Name           string
	Phone          string
	Website        string
	Email          string
	EmailStatus    string
	Address        string
	Latitude       float64
	Longitude      float64
	Rating         *float64
	RatingCount    string
	Category       string
	SearchTerm     string
	SearchType     string
	SearchLocation string
	URL            string

	FilteredReviews      []Review
	FilteredReviewCount  int
}

// Review is one review surfaced by the page-path's review extraction
// step, already filtered and deduplicated.
type Review struct {
	Text         string
	Reviewer     string
	Rating       int
	Date         time.Time
	RelativeDate string
}

// RawDetail is the unparsed response shape returned by the no-page
// detail-scrape API, keyed the same way as the selector table so
// ParseRawDetail can walk it field by field.
type RawDetail struct {
	Fields map[string]string
	Lines  map[string][]string
}
