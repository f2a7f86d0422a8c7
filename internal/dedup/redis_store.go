package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rohmanhakim/scrapeorch/internal/metadata"
)

// RedisStore is the durable Store backed by one Redis set per user,
// keyed by normalized URL members with a rolling TTL.
type RedisStore struct {
	client       *redis.Client
	ttl          time.Duration
	metadataSink metadata.MetadataSink
}

func NewRedisStore(client *redis.Client, ttl time.Duration, metadataSink metadata.MetadataSink) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultURLTTL
	}
	return &RedisStore{client: client, ttl: ttl, metadataSink: metadataSink}
}

func (s *RedisStore) key(userID string) string {
	return "scrapeorch:dedup:" + userID
}

// BatchCheck reports membership via SMIsMember. Any Redis error
// degrades to an all-false result rather than blocking extraction.
func (s *RedisStore) BatchCheck(ctx context.Context, userID string, urls []string) ([]bool, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	members := make([]interface{}, len(urls))
	for i, u := range urls {
		members[i] = Normalize(u)
	}

	result, err := s.client.SMIsMember(ctx, s.key(userID), members...).Result()
	if err != nil {
		s.recordError("BatchCheck", err.Error())
		return make([]bool, len(urls)), nil
	}
	return result, nil
}

// Mark idempotently adds url and refreshes the set's TTL.
func (s *RedisStore) Mark(ctx context.Context, userID, url string) error {
	return s.BatchMark(ctx, userID, []string{url})
}

// BatchMark adds many URLs and refreshes TTL in one pipelined round trip.
func (s *RedisStore) BatchMark(ctx context.Context, userID string, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	key := s.key(userID)

	members := make([]interface{}, len(urls))
	for i, u := range urls {
		members[i] = Normalize(u)
	}

	pipe := s.client.Pipeline()
	pipe.SAdd(ctx, key, members...)
	pipe.Expire(ctx, key, s.ttl)
	_, err := pipe.Exec(ctx)
	if err != nil {
		s.recordError("BatchMark", err.Error())
	}
	return nil
}

func (s *RedisStore) recordError(action, message string) {
	if s.metadataSink == nil {
		return
	}
	s.metadataSink.RecordError(metadata.ErrorRecord{
		PackageName: "dedup",
		Action:      action,
		Cause:       metadata.CauseDedupStoreFailure,
		ErrorString: message,
		ObservedAt:  time.Now(),
	})
}
