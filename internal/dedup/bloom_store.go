package dedup

import (
	"context"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// BloomPrefilteredStore wraps a Store with an in-memory bloom filter
// of recently marked URLs. A bloom filter can only false-positive
// ("possibly present"), never false-negative, so when it reports
// "definitely not present" BatchCheck can return false for that URL
// without a round trip to the backing Store; any "possibly present"
// result falls through to the wrapped Store for a definitive answer.
type BloomPrefilteredStore struct {
	inner        Store
	mu           sync.RWMutex
	filter       *bloom.BloomFilter
	expectedN    uint
	falsePositive float64
}

// NewBloomPrefilteredStore wraps inner with a bloom filter sized for
// expectedN entries at the given false-positive rate.
func NewBloomPrefilteredStore(inner Store, expectedN uint, falsePositiveRate float64) *BloomPrefilteredStore {
	return &BloomPrefilteredStore{
		inner:         inner,
		filter:        bloom.NewWithEstimates(expectedN, falsePositiveRate),
		expectedN:     expectedN,
		falsePositive: falsePositiveRate,
	}
}

func (s *BloomPrefilteredStore) BatchCheck(ctx context.Context, userID string, urls []string) ([]bool, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	results := make([]bool, len(urls))
	var uncertain []string
	var uncertainIdx []int

	s.mu.RLock()
	for i, u := range urls {
		normalized := Normalize(u)
		if s.filter.TestString(s.bloomKey(userID, normalized)) {
			uncertain = append(uncertain, u)
			uncertainIdx = append(uncertainIdx, i)
		}
	}
	s.mu.RUnlock()

	if len(uncertain) == 0 {
		return results, nil
	}

	innerResults, err := s.inner.BatchCheck(ctx, userID, uncertain)
	if err != nil {
		return results, nil
	}
	for j, idx := range uncertainIdx {
		results[idx] = innerResults[j]
	}
	return results, nil
}

func (s *BloomPrefilteredStore) Mark(ctx context.Context, userID, url string) error {
	s.addToFilter(userID, Normalize(url))
	return s.inner.Mark(ctx, userID, url)
}

func (s *BloomPrefilteredStore) BatchMark(ctx context.Context, userID string, urls []string) error {
	for _, u := range urls {
		s.addToFilter(userID, Normalize(u))
	}
	return s.inner.BatchMark(ctx, userID, urls)
}

// Rebuild replaces the bloom filter's contents, used to periodically
// reset it from a fresh recent-marks snapshot.
func (s *BloomPrefilteredStore) Rebuild(userID string, recentURLs []string) {
	filter := bloom.NewWithEstimates(s.expectedN, s.falsePositive)
	for _, u := range recentURLs {
		filter.AddString(s.bloomKey(userID, Normalize(u)))
	}
	s.mu.Lock()
	s.filter = filter
	s.mu.Unlock()
}

func (s *BloomPrefilteredStore) addToFilter(userID, normalizedURL string) {
	s.mu.Lock()
	s.filter.AddString(s.bloomKey(userID, normalizedURL))
	s.mu.Unlock()
}

func (s *BloomPrefilteredStore) bloomKey(userID, normalizedURL string) string {
	return userID + "\x00" + normalizedURL
}
