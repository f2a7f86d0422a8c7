// Package zone converts a (country, state?, city?) target into a lazy,
// batched stream of search zones: a name-based center query plus, when
// deep search is requested, a coordinate grid covering the resolved
// bounding box.
package zone

// ZoneType discriminates a center query from a coordinate-anchored one.
type ZoneType string

const (
	TypeCenter      ZoneType = "center"
	TypeGrid        ZoneType = "grid"
	TypeGridOverlap ZoneType = "grid-overlap"
)

// Coords is a lat/lng pair. A center Zone carries no Coords.
type Coords struct {
	Lat float64
	Lng float64
}

// Zone is one unit of search work handed to the scheduler.
type Zone struct {
	Type       ZoneType
	CityName   string
	StateCode  string
	StateName  string
	Label      string
	Coords     *Coords
}

// Bounds is a resolved bounding box plus its center point.
type Bounds struct {
	North     float64
	South     float64
	East      float64
	West      float64
	CenterLat float64
	CenterLng float64
}

// GeoResolver looks up the bounding box for a country/state/city target.
// Implementations are an external collaborator; this package ships no
// concrete geocoding backend.
type GeoResolver interface {
	Resolve(countryCode, stateCode, city string) (Bounds, error)
}

// Config is a zone generator's persistent per-run state: the resolved
// bounds, derived grid spacing, and the batching parameters needed to
// reconstruct any batch on demand.
type Config struct {
	Target           Target
	Bounds           *Bounds
	GridSpacingKm    float64
	TotalPossibleZones int
	BatchSize        int
	MaxTotalZones    int
}

// Target names the center of a zone generation request: a city, a
// state, or a whole country, with labeling carried alongside so grid
// zones can be labeled consistently with their center zone.
type Target struct {
	CityName    string
	StateCode   string
	StateName   string
	CountryCode string
	Population  int64
}
