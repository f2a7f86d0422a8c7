// Package geocode provides a zone.GeoResolver implementation backed by
// the public Nominatim (OpenStreetMap) search API. It is the only
// concrete bounding-box lookup wired into the CLI; callers that need a
// different geocoding backend can satisfy zone.GeoResolver directly.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rohmanhakim/scrapeorch/internal/zone"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org/search"

// NominatimResolver looks up a country/state/city target's bounding box
// via Nominatim's /search endpoint with format=jsonv2, whose results
// carry a boundingbox field, so a single request yields both the center
// point and the box a deep search grid is built from.
type NominatimResolver struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewNominatimResolver builds a resolver. Nominatim's usage policy
// requires a descriptive User-Agent identifying the calling application;
// userAgent is sent as-is on every request.
func NewNominatimResolver(userAgent string) NominatimResolver {
	return NominatimResolver{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		userAgent:  userAgent,
	}
}

type nominatimResult struct {
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	BoundingBox []string `json:"boundingbox"`
}

// Resolve satisfies zone.GeoResolver. At least one of city or stateCode
// must be non-empty alongside countryCode; a country-only query is
// rejected here with an error before any request is sent.
func (r NominatimResolver) Resolve(countryCode, stateCode, city string) (zone.Bounds, error) {
	query := buildQuery(countryCode, stateCode, city)
	if query == "" {
		return zone.Bounds{}, fmt.Errorf("geocode: nothing to resolve for country=%q state=%q city=%q", countryCode, stateCode, city)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	reqURL := r.baseURL + "?" + url.Values{
		"q":              {query},
		"format":         {"jsonv2"},
		"limit":          {"1"},
		"addressdetails": {"0"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return zone.Bounds{}, fmt.Errorf("geocode: build request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return zone.Bounds{}, fmt.Errorf("geocode: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return zone.Bounds{}, fmt.Errorf("geocode: nominatim returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return zone.Bounds{}, fmt.Errorf("geocode: decode response: %w", err)
	}
	if len(results) == 0 {
		return zone.Bounds{}, fmt.Errorf("geocode: no match for %q", query)
	}

	return toBounds(results[0])
}

func buildQuery(countryCode, stateCode, city string) string {
	parts := make([]string, 0, 3)
	if city != "" {
		parts = append(parts, city)
	}
	if stateCode != "" {
		parts = append(parts, stateCode)
	}
	if countryCode != "" {
		parts = append(parts, countryCode)
	}
	if city == "" && stateCode == "" {
		return ""
	}
	return strings.Join(parts, ", ")
}

func toBounds(res nominatimResult) (zone.Bounds, error) {
	if len(res.BoundingBox) != 4 {
		return zone.Bounds{}, fmt.Errorf("geocode: malformed boundingbox %v", res.BoundingBox)
	}

	south, err := strconv.ParseFloat(res.BoundingBox[0], 64)
	if err != nil {
		return zone.Bounds{}, fmt.Errorf("geocode: parse south: %w", err)
	}
	north, err := strconv.ParseFloat(res.BoundingBox[1], 64)
	if err != nil {
		return zone.Bounds{}, fmt.Errorf("geocode: parse north: %w", err)
	}
	west, err := strconv.ParseFloat(res.BoundingBox[2], 64)
	if err != nil {
		return zone.Bounds{}, fmt.Errorf("geocode: parse west: %w", err)
	}
	east, err := strconv.ParseFloat(res.BoundingBox[3], 64)
	if err != nil {
		return zone.Bounds{}, fmt.Errorf("geocode: parse east: %w", err)
	}

	centerLat, err := strconv.ParseFloat(res.Lat, 64)
	if err != nil {
		return zone.Bounds{}, fmt.Errorf("geocode: parse lat: %w", err)
	}
	centerLng, err := strconv.ParseFloat(res.Lon, 64)
	if err != nil {
		return zone.Bounds{}, fmt.Errorf("geocode: parse lon: %w", err)
	}

	return zone.Bounds{
		North:     north,
		South:     south,
		East:      east,
		West:      west,
		CenterLat: centerLat,
		CenterLng: centerLng,
	}, nil
}
