// Package candidate sorts a list of city candidates into population
// tiers so the scheduler can prioritize big cities first while still
// covering smaller ones.
package candidate

// Candidate is one city a run may search.
type Candidate struct {
	CityName  string
	StateCode string
	StateName string
}

// PopulationResolver is a pure lookup with no I/O at call time beyond
// a preloaded index.
type PopulationResolver func(countryCode, stateCode, cityName string) (int64, bool)

const (
	bigThreshold = 1_000_000
	midThreshold = 100_000
)

// Buckets holds candidates partitioned by population tier, each
// independently shuffled. Iteration order is Big, Mid, Small, Unknown.
type Buckets struct {
	Big     []Candidate
	Mid     []Candidate
	Small   []Candidate
	Unknown []Candidate
}

// All returns the buckets concatenated in priority order.
func (b Buckets) All() []Candidate {
	out := make([]Candidate, 0, len(b.Big)+len(b.Mid)+len(b.Small)+len(b.Unknown))
	out = append(out, b.Big...)
	out = append(out, b.Mid...)
	out = append(out, b.Small...)
	out = append(out, b.Unknown...)
	return out
}
