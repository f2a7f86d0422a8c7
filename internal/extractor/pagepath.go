package extractor

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"github.com/rohmanhakim/scrapeorch/internal/browserpool"
)

const reviewScrollStagnationSteps = 3
const reviewScrollStepCap = 40

// PageExtractionParams carries the job fields the page path's review
// step needs beyond the base record.
type PageExtractionParams struct {
	ReviewTimeRangeYears  int
	HasReviewTimeRange    bool
	ExtractNegativeReviews bool
}

// PagePathExtractor runs the page path of C7: navigate, parse the base
// record with the same logic the no-page path uses, then perform
// in-page review extraction when the page carries a reviews tab.
type PagePathExtractor struct {
	session  *browserpool.Session
	parser   DetailParser
	navTimeout time.Duration
}

func NewPagePathExtractor(session *browserpool.Session, parser DetailParser, navTimeout time.Duration) PagePathExtractor {
	return PagePathExtractor{session: session, parser: parser, navTimeout: navTimeout}
}

// Extract acquires a page via the session, navigates to ctx.URL, parses
// the base record, and — when the reviews tab is present — augments it
// with filtered, deduplicated reviews.
func (e PagePathExtractor) Extract(ctx context.Context, stop func() bool, selectors Selectors, detailCtx DetailContext, reviewParams PageExtractionParams) (*BusinessRecord, error) {
	var record *BusinessRecord

	ran, err := e.session.WithPage(ctx, stop, func(pageCtx context.Context, page *browserpool.Page) error {
		if navErr := e.navigate(pageCtx, detailCtx.URL); navErr != nil {
			return navErr
		}

		outerHTML, err := outerHTML(pageCtx)
		if err != nil {
			return err
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(outerHTML))
		if err != nil {
			return err
		}

		parsed, classifiedErr := e.parser.ParseDocument(doc, selectors, detailCtx)
		if classifiedErr != nil {
			return classifiedErr
		}
		if parsed == nil {
			return nil
		}

		if selectors.ReviewsTab != "" {
			reviews, reviewErr := e.extractReviews(pageCtx, selectors, reviewParams)
			if reviewErr == nil {
				parsed.FilteredReviews = reviews
				parsed.FilteredReviewCount = len(reviews)
			}
		}

		record = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !ran {
		return nil, nil
	}
	return record, nil
}

func (e PagePathExtractor) navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, e.navTimeout)
	defer cancel()
	if err := chromedp.Run(navCtx, chromedp.Navigate(url), chromedp.WaitReady("body")); err == nil {
		return nil
	}

	retryCtx, retryCancel := context.WithTimeout(ctx, e.navTimeout+10*time.Second)
	defer retryCancel()
	return chromedp.Run(retryCtx, chromedp.Navigate(url), chromedp.Sleep(500*time.Millisecond))
}

func outerHTML(ctx context.Context) (string, error) {
	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", err
	}
	return html, nil
}

// rawReview is the JS collector's wire shape, before rating-string and
// date parsing.
type rawReview struct {
	Text         string `json:"text"`
	Rating       string `json:"rating"`
	ReviewerName string `json:"reviewerName"`
	RelativeDate string `json:"relativeDate"`
}

func (e PagePathExtractor) extractReviews(ctx context.Context, selectors Selectors, params PageExtractionParams) ([]Review, error) {
	actions := []chromedp.Action{
		chromedp.Click(selectors.ReviewsTab, chromedp.NodeVisible),
		chromedp.WaitVisible(selectors.ReviewsContainer),
	}
	if params.ExtractNegativeReviews && selectors.ReviewsSortButton != "" {
		actions = append(actions,
			chromedp.Click(selectors.ReviewsSortButton, chromedp.NodeVisible),
			chromedp.Click(selectors.ReviewsLowestOption, chromedp.NodeVisible),
		)
	}
	if err := chromedp.Run(ctx, actions...); err != nil {
		return nil, err
	}

	if err := e.scrollUntilStable(ctx, selectors.ReviewsScrollPanel); err != nil {
		return nil, err
	}

	var rawJSON string
	if err := chromedp.Run(ctx, chromedp.Evaluate(selectors.ReviewCollectorScript, &rawJSON)); err != nil {
		return nil, err
	}

	var raw []rawReview
	if err := json.Unmarshal([]byte(rawJSON), &raw); err != nil {
		return nil, err
	}

	return filterAndDedupeReviews(raw, params), nil
}

func (e PagePathExtractor) scrollUntilStable(ctx context.Context, panelSelector string) error {
	var lastHeight int
	stagnant := 0

	for step := 0; step < reviewScrollStepCap; step++ {
		var height int
		script := `(() => { const el = document.querySelector(` + strconv.Quote(panelSelector) + `); if (!el) return 0; el.scrollTop = el.scrollHeight; return el.scrollHeight; })()`
		if err := chromedp.Run(ctx, chromedp.Evaluate(script, &height)); err != nil {
			return err
		}

		if height == lastHeight {
			stagnant++
			if stagnant >= reviewScrollStagnationSteps {
				return nil
			}
		} else {
			stagnant = 0
			lastHeight = height
		}

		chromedp.Run(ctx, chromedp.Sleep(150*time.Millisecond))
	}
	return nil
}

func filterAndDedupeReviews(raw []rawReview, params PageExtractionParams) []Review {
	seen := make(map[string]bool)
	var out []Review

	cutoff := time.Time{}
	if params.HasReviewTimeRange {
		cutoff = time.Now().AddDate(-params.ReviewTimeRangeYears, 0, 0)
	}

	for _, r := range raw {
		rating := parseStarRating(r.Rating)
		date := parseRelativeDate(r.RelativeDate)

		if params.HasReviewTimeRange && !date.IsZero() && date.Before(cutoff) {
			continue
		}
		if params.ExtractNegativeReviews && rating != 1 && rating != 2 {
			continue
		}

		key := r.Text + "|" + strconv.Itoa(rating) + "|" + r.ReviewerName
		if seen[key] {
			continue
		}
		seen[key] = true

		out = append(out, Review{
			Text:         r.Text,
			Reviewer:     r.ReviewerName,
			Rating:       rating,
			Date:         date,
			RelativeDate: r.RelativeDate,
		})
	}

	return out
}

func parseStarRating(ariaLabel string) int {
	match := cardRatingPattern.FindStringSubmatch(ariaLabel)
	if match == nil {
		return 0
	}
	v, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0
	}
	return int(v)
}

// parseRelativeDate converts a scraped "a year ago"/"3 months ago"
// style string into an approximate absolute timestamp. Returns the
// zero Time when the string doesn't match a known unit, in which case
// the caller treats the review as exempt from time-range filtering.
func parseRelativeDate(relative string) time.Time {
	fields := strings.Fields(strings.ToLower(relative))
	if len(fields) < 2 {
		return time.Time{}
	}

	amount := 1
	unitIdx := 0
	if v, err := strconv.Atoi(fields[0]); err == nil {
		amount = v
		unitIdx = 1
	} else if fields[0] == "a" || fields[0] == "an" {
		unitIdx = 1
	}
	if unitIdx >= len(fields) {
		return time.Time{}
	}

	unit := strings.TrimSuffix(fields[unitIdx], "s")
	now := time.Now()
	switch unit {
	case "day":
		return now.AddDate(0, 0, -amount)
	case "week":
		return now.AddDate(0, 0, -7*amount)
	case "month":
		return now.AddDate(0, -amount, 0)
	case "year":
		return now.AddDate(-amount, 0, 0)
	default:
		return time.Time{}
	}
}
