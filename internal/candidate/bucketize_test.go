package candidate_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rohmanhakim/scrapeorch/internal/candidate"
)

func populationIndex() map[string]int64 {
	return map[string]int64{
		"US::NewYork":    8_000_000,
		"US::Austin":     900_000,
		"US::Smalltown":  2_000,
		"US::MidCity":    150_000,
	}
}

func resolverFromIndex(index map[string]int64) candidate.PopulationResolver {
	return func(countryCode, stateCode, cityName string) (int64, bool) {
		v, ok := index[countryCode+"::"+cityName]
		return v, ok
	}
}

func TestBucketizeSortsByPopulationTier(t *testing.T) {
	candidates := []candidate.Candidate{
		{CityName: "NewYork"},
		{CityName: "Austin"},
		{CityName: "MidCity"},
		{CityName: "Smalltown"},
		{CityName: "Unmapped"},
	}
	resolver := resolverFromIndex(populationIndex())
	rng := rand.New(rand.NewSource(1))

	buckets := candidate.Bucketize("US", candidates, resolver, 0, rng)

	assert.Len(t, buckets.Big, 1)
	assert.Equal(t, "NewYork", buckets.Big[0].CityName)
	assert.Len(t, buckets.Mid, 2)
	assert.Len(t, buckets.Small, 0, "Smalltown is below the default 5000 floor and should be dropped")
	assert.Len(t, buckets.Unknown, 1)
}

func TestBucketizeDropsBelowMinPopulation(t *testing.T) {
	candidates := []candidate.Candidate{{CityName: "Smalltown"}}
	resolver := resolverFromIndex(populationIndex())
	rng := rand.New(rand.NewSource(1))

	buckets := candidate.Bucketize("US", candidates, resolver, 3000, rng)
	assert.Empty(t, buckets.All())
}

func TestBucketizeIsReproducibleWithFixedSeed(t *testing.T) {
	candidates := []candidate.Candidate{
		{CityName: "A"}, {CityName: "B"}, {CityName: "C"}, {CityName: "D"},
	}
	resolver := func(countryCode, stateCode, cityName string) (int64, bool) {
		return 2_000_000, true
	}

	first := candidate.Bucketize("US", candidates, resolver, 0, rand.New(rand.NewSource(42)))
	second := candidate.Bucketize("US", candidates, resolver, 0, rand.New(rand.NewSource(42)))

	assert.Equal(t, first.Big, second.Big)
}
