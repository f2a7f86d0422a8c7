package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FilterOperator is one of the comparison operators a job's ratingFilter
// or reviewFilter may carry.
type FilterOperator string

const (
	FilterGT  FilterOperator = "gt"
	FilterGTE FilterOperator = "gte"
	FilterLT  FilterOperator = "lt"
	FilterLTE FilterOperator = "lte"
)

// NumericFilter matches a job's ratingFilter/reviewFilter shape.
type NumericFilter struct {
	Operator FilterOperator
	Value    float64
}

func (f NumericFilter) matches(v float64) bool {
	switch f.Operator {
	case FilterGT:
		return v > f.Value
	case FilterGTE:
		return v >= f.Value
	case FilterLT:
		return v < f.Value
	case FilterLTE:
		return v <= f.Value
	default:
		return true
	}
}

// ListingCandidate is one surviving card off the tier-A listing panel:
// just enough to enqueue a tier-B task and, once extracted, to fill in
// the fields the listing panel already carried so the detail parser
// doesn't have to re-derive them.
type ListingCandidate struct {
	DetailURL   string
	Name        string
	Rating      *float64
	ReviewCount int
}

var cardRatingPattern = regexp.MustCompile(`(\d+\.?\d*)\s*stars?`)
var cardReviewAriaPattern = regexp.MustCompile(`(\d{1,3}(?:,\d{3})*|\d+)\s*Reviews?`)
var cardReviewParenPattern = regexp.MustCompile(`\(([\d,]+)\)`)

// ParseListingCards walks the lazy-loaded result panel's cards, applying
// ratingFilter/reviewFilter in place, and returns the surviving
// candidates in DOM order. A card without a resolvable detail URL or
// name is skipped.
func ParseListingCards(doc *goquery.Document, cardSelector string, ratingFilter, reviewFilter *NumericFilter) []ListingCandidate {
	var out []ListingCandidate

	doc.Find(cardSelector).Each(func(_ int, card *goquery.Selection) {
		href, ok := card.Attr("href")
		if !ok || href == "" {
			return
		}
		name := strings.TrimSpace(card.AttrOr("aria-label", ""))
		if name == "" {
			return
		}

		candidate := ListingCandidate{DetailURL: href, Name: name}

		if rating, ok := parseCardRating(card); ok {
			candidate.Rating = &rating
			if ratingFilter != nil && !ratingFilter.matches(rating) {
				return
			}
		}

		if count, ok := parseCardReviewCount(card); ok {
			candidate.ReviewCount = count
			if reviewFilter != nil && !reviewFilter.matches(float64(count)) {
				return
			}
		}

		out = append(out, candidate)
	})

	return out
}

func parseCardRating(card *goquery.Selection) (float64, bool) {
	text := card.Text()
	match := cardRatingPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseCardReviewCount(card *goquery.Selection) (int, bool) {
	ariaLabel := card.AttrOr("aria-label", "")
	if match := cardReviewAriaPattern.FindStringSubmatch(ariaLabel); match != nil {
		return parseThousandsInt(match[1])
	}

	text := card.Parent().Text()
	if match := cardReviewParenPattern.FindStringSubmatch(text); match != nil {
		return parseThousandsInt(match[1])
	}

	return 0, false
}

func parseThousandsInt(raw string) (int, bool) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	v, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, false
	}
	return v, true
}
