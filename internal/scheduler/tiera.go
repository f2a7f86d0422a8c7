package scheduler

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rohmanhakim/scrapeorch/internal/browserpool"
	"github.com/rohmanhakim/scrapeorch/internal/extractor"
	"github.com/rohmanhakim/scrapeorch/internal/zone"
)

// TierAScraper performs the discovery phase: given a zone and a
// keyword, produce a bounded list of listing candidates. Coordinates
// of a non-center zone drive a coordinate-anchored search URL; a
// center zone searches by name.
type TierAScraper interface {
	ScrapeZone(ctx context.Context, stop func() bool, z zone.Zone, keyword string, remaining int, ratingFilter, reviewFilter *extractor.NumericFilter) ([]extractor.ListingCandidate, error)
}

const (
	minListingCardTarget = 50
	listingCardMultiplier = 2.0
)

// GoogleMapsTierA is the adapter-defined tier-A scraper: it navigates
// a session page to the constructed search URL, scrolls the results
// panel until enough cards have rendered (or it stagnates), then
// parses listing cards via extractor.ParseListingCards.
type GoogleMapsTierA struct {
	session   *browserpool.Session
	selectors extractor.Selectors
	baseURL   string
}

func NewGoogleMapsTierA(session *browserpool.Session, selectors extractor.Selectors, baseURL string) GoogleMapsTierA {
	if baseURL == "" {
		baseURL = "https://www.google.com/maps/search"
	}
	return GoogleMapsTierA{session: session, selectors: selectors, baseURL: baseURL}
}

func (t GoogleMapsTierA) ScrapeZone(ctx context.Context, stop func() bool, z zone.Zone, keyword string, remaining int, ratingFilter, reviewFilter *extractor.NumericFilter) ([]extractor.ListingCandidate, error) {
	if remaining <= 0 {
		return nil, nil
	}

	searchURL := buildSearchURL(t.baseURL, keyword, z)
	targetCards := int(float64(minInt(remaining, minListingCardTarget)) * listingCardMultiplier)
	if targetCards < 1 {
		targetCards = 1
	}

	var candidates []extractor.ListingCandidate
	_, err := t.session.WithPage(ctx, stop, func(pageCtx context.Context, page *browserpool.Page) error {
		if err := navigateSearch(pageCtx, searchURL); err != nil {
			return err
		}
		if stop() {
			return nil
		}
		if err := scrollResultsUntilStable(pageCtx, t.selectors, targetCards); err != nil {
			return err
		}

		html, err := outerHTMLOf(pageCtx)
		if err != nil {
			return err
		}
		doc, err := parseHTMLDoc(html)
		if err != nil {
			return err
		}
		candidates = extractor.ParseListingCards(doc, t.selectors.Name, ratingFilter, reviewFilter)
		return nil
	})
	return candidates, err
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// buildSearchURL constructs the tier-A search URL: coordinate zones
// anchor on lat/lng, name zones append "+in+<location>".
func buildSearchURL(baseURL, keyword string, z zone.Zone) string {
	encodedKeyword := url.QueryEscape(keyword)
	if z.Coords != nil {
		return fmt.Sprintf("%s/%s/@%f,%f,14z?hl=en", baseURL, encodedKeyword, z.Coords.Lat, z.Coords.Lng)
	}
	location := formatZoneLocation(z)
	return fmt.Sprintf("%s/%s+in+%s?hl=en", baseURL, encodedKeyword, url.QueryEscape(location))
}

func formatZoneLocation(z zone.Zone) string {
	switch {
	case z.CityName != "" && z.StateName != "":
		return z.CityName + ", " + z.StateName
	case z.CityName != "":
		return z.CityName
	case z.StateName != "":
		return z.StateName
	default:
		return z.Label
	}
}
