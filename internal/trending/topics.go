// Package trending maintains the externally curated trending-topic mention
// set consulted by the trending score.
package trending

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Source supplies the current trending-topic mention set. Topic names are
// matched against item tags and hashtags.
type Source interface {
	Topics(ctx context.Context) (map[string]struct{}, error)
}

// MemorySource is an in-memory Source. Thread-safe via RWMutex.
// Useful for tests and local development.
type MemorySource struct {
	mu     sync.RWMutex
	topics map[string]struct{}
}

// NewMemorySource creates a MemorySource seeded with the given topics.
func NewMemorySource(topics ...string) *MemorySource {
	s := &MemorySource{topics: make(map[string]struct{}, len(topics))}
	for _, t := range topics {
		s.topics[t] = struct{}{}
	}
	return s
}

// SetTopics replaces the mention set.
func (s *MemorySource) SetTopics(topics ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics = make(map[string]struct{}, len(topics))
	for _, t := range topics {
		s.topics[t] = struct{}{}
	}
}

// Topics returns a copy of the current mention set.
func (s *MemorySource) Topics(ctx context.Context) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]struct{}, len(s.topics))
	for t := range s.topics {
		out[t] = struct{}{}
	}
	return out, nil
}

// DefaultRedisKey is the Redis set key holding the current trending topics,
// maintained by an external curation job.
const DefaultRedisKey = "trending:topics"

// RedisSource reads the mention set from a Redis set. A Redis failure is
// returned to the caller, which degrades trending boosts to none rather
// than failing the request.
type RedisSource struct {
	client *redis.Client
	key    string
}

// NewRedisSource creates a RedisSource over an existing client. An empty
// key uses DefaultRedisKey.
func NewRedisSource(client *redis.Client, key string) *RedisSource {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisSource{client: client, key: key}
}

// Topics returns the members of the trending set.
func (s *RedisSource) Topics(ctx context.Context) (map[string]struct{}, error) {
	members, err := s.client.SMembers(ctx, s.key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(members))
	for _, m := range members {
		out[m] = struct{}{}
	}
	return out, nil
}
