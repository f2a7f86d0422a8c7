// Package dedup maintains a durable per-user set of already-seen
// listing URLs so a run never schedules tier-B extraction twice for
// the same place.
package dedup

import (
	"context"
	"time"
)

// DefaultURLTTL is how long a marked URL is remembered before expiring.
const DefaultURLTTL = 365 * 24 * time.Hour

// Store is the durable backing set of normalized URLs.
type Store interface {
	// BatchCheck reports, per URL, whether it is already present in
	// userID's set. On any backing-store error it must return all
	// false rather than block extraction.
	BatchCheck(ctx context.Context, userID string, urls []string) ([]bool, error)
	// Mark idempotently adds url to userID's set and refreshes its TTL.
	Mark(ctx context.Context, userID, url string) error
	// BatchMark marks many URLs in one pipelined round trip.
	BatchMark(ctx context.Context, userID string, urls []string) error
}
