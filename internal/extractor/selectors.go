package extractor

// Selectors is the per-adapter table of CSS selectors (and, for the
// page path's review collector, a small JS snippet) that the listing
// and detail parsers walk to build a BusinessRecord. Centralizing the
// table here keeps adapter-specific DOM knowledge out of the parsing
// code proper.
type Selectors struct {
	Name        string
	Phone       string
	Website     string
	Address     string
	Rating      string
	RatingCount string
	Category    string

	ReviewsTab         string
	ReviewsContainer   string
	ReviewsSortButton  string
	ReviewsLowestOption string
	ReviewsScrollPanel string

	// ReviewCollectorScript is evaluated in-page once the reviews panel
	// has stopped growing; it must return a JSON array of
	// {text, rating, relativeDate, reviewerName} objects.
	ReviewCollectorScript string
}

// DefaultGoogleMapsSelectors is the selector table for the search_type
// "Google Maps" adapter referenced by spec.md.
//
//nolint:gochecknoglobals // static per-adapter lookup table
var DefaultGoogleMapsSelectors = Selectors{
	Name:        "h1.DUwDvf",
	Phone:       "button[data-item-id^='phone']",
	Website:     "a[data-item-id='authority']",
	Address:     "button[data-item-id='address']",
	Rating:      "div.F7nice span[aria-hidden='true']",
	RatingCount: "div.F7nice span[aria-label*='review']",
	Category:    "button.DkEaL",

	ReviewsTab:          "button[aria-label^='Reviews']",
	ReviewsContainer:    "div.m6QErb[aria-label]",
	ReviewsSortButton:   "button[aria-label='Sort reviews']",
	ReviewsLowestOption: "div[data-index='2']",
	ReviewsScrollPanel:  "div.m6QErb.DxyBCb",

	ReviewCollectorScript: `(() => {
		const nodes = document.querySelectorAll('div.jftiEf');
		const out = [];
		for (const n of nodes) {
			const text = n.querySelector('.wiI7pd')?.textContent ?? '';
			const ratingLabel = n.querySelector('span[role="img"]')?.getAttribute('aria-label') ?? '';
			const reviewer = n.querySelector('.d4r55')?.textContent ?? '';
			const relativeDate = n.querySelector('.rsqaWe')?.textContent ?? '';
			out.push({text, rating: ratingLabel, reviewerName: reviewer, relativeDate});
		}
		return JSON.stringify(out);
	})()`,
}

// ResolveSelectors overlays a job's selector overrides onto
// DefaultGoogleMapsSelectors, field by field. A zero-value overrides
// (no job customization) returns the default table unchanged.
func ResolveSelectors(overrides Selectors) Selectors {
	return mergeSelectors(DefaultGoogleMapsSelectors, overrides)
}

// mergeSelectors overlays non-empty fields from custom onto base,
// letting a job override individual selectors without restating the
// whole table.
func mergeSelectors(base, custom Selectors) Selectors {
	merged := base
	if custom.Name != "" {
		merged.Name = custom.Name
	}
	if custom.Phone != "" {
		merged.Phone = custom.Phone
	}
	if custom.Website != "" {
		merged.Website = custom.Website
	}
	if custom.Address != "" {
		merged.Address = custom.Address
	}
	if custom.Rating != "" {
		merged.Rating = custom.Rating
	}
	if custom.RatingCount != "" {
		merged.RatingCount = custom.RatingCount
	}
	if custom.Category != "" {
		merged.Category = custom.Category
	}
	if custom.ReviewsTab != "" {
		merged.ReviewsTab = custom.ReviewsTab
	}
	if custom.ReviewsContainer != "" {
		merged.ReviewsContainer = custom.ReviewsContainer
	}
	if custom.ReviewsSortButton != "" {
		merged.ReviewsSortButton = custom.ReviewsSortButton
	}
	if custom.ReviewsLowestOption != "" {
		merged.ReviewsLowestOption = custom.ReviewsLowestOption
	}
	if custom.ReviewsScrollPanel != "" {
		merged.ReviewsScrollPanel = custom.ReviewsScrollPanel
	}
	if custom.ReviewCollectorScript != "" {
		merged.ReviewCollectorScript = custom.ReviewCollectorScript
	}
	return merged
}
