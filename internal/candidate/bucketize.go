package candidate

import "math/rand"

// DefaultMinPopulation is the floor below which a candidate with a
// known population is dropped as too small to be worth a dedicated zone.
const DefaultMinPopulation = 5000

// Bucketize partitions candidates into Big/Mid/Small/Unknown tiers
// using resolver, dropping known-population candidates below
// minPopulation, then shuffles each bucket independently with rng so a
// run is reproducible given a fixed seed.
func Bucketize(countryCode string, candidates []Candidate, resolver PopulationResolver, minPopulation int, rng *rand.Rand) Buckets {
	if minPopulation <= 0 {
		minPopulation = DefaultMinPopulation
	}

	var buckets Buckets
	for _, c := range candidates {
		population, known := resolver(countryCode, c.StateCode, c.CityName)
		if !known {
			buckets.Unknown = append(buckets.Unknown, c)
			continue
		}
		if population < int64(minPopulation) {
			continue
		}
		switch {
		case population >= bigThreshold:
			buckets.Big = append(buckets.Big, c)
		case population >= midThreshold:
			buckets.Mid = append(buckets.Mid, c)
		default:
			buckets.Small = append(buckets.Small, c)
		}
	}

	shuffle(buckets.Big, rng)
	shuffle(buckets.Mid, rng)
	shuffle(buckets.Small, rng)
	shuffle(buckets.Unknown, rng)

	return buckets
}

func shuffle(c []Candidate, rng *rand.Rand) {
	rng.Shuffle(len(c), func(i, j int) {
		c[i], c[j] = c[j], c[i]
	})
}
