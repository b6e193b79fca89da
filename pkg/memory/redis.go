package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists entries in a Redis sorted set keyed by an
// ever-increasing score, giving a durable, restart-surviving FIFO log that
// Search scans with the same substring-overlap ranking InMemory uses.
// Sovra is not running a vector database, so this trades precision for
// having real persistence behind the one in-pack client library
// (github.com/redis/go-redis/v9) that fits the "memory store" contract.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore constructs a RedisStore using key as the sorted-set name.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

type redisEntry struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

func (s *RedisStore) Store(ctx context.Context, content string, metadata map[string]string) error {
	payload, err := json.Marshal(redisEntry{Content: content, Metadata: metadata})
	if err != nil {
		return fmt.Errorf("marshaling memory entry: %w", err)
	}
	score := float64(s.client.ZCard(ctx, s.key).Val())
	return s.client.ZAdd(ctx, s.key, redis.Z{Score: score, Member: payload}).Err()
}

func (s *RedisStore) all(ctx context.Context) ([]Entry, error) {
	raw, err := s.client.ZRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading memory set: %w", err)
	}
	entries := make([]Entry, 0, len(raw))
	for _, r := range raw {
		var e redisEntry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			continue
		}
		entries = append(entries, Entry(e))
	}
	return entries, nil
}

func (s *RedisStore) Search(ctx context.Context, query string, topK int, filterMetadata map[string]string) ([]Entry, error) {
	entries, err := s.all(ctx)
	if err != nil {
		return nil, err
	}

	words := strings.Fields(strings.ToLower(query))
	var matched []Entry
	for _, e := range entries {
		if !matchesMetadata(e.Metadata, filterMetadata) {
			continue
		}
		if overlapScore(strings.ToLower(e.Content), words) > 0 {
			matched = append(matched, e)
		}
	}
	if len(matched) > topK {
		matched = matched[:topK]
	}
	return matched, nil
}

func (s *RedisStore) Delete(ctx context.Context, content string) error {
	entries, err := s.all(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Content == content {
			payload, _ := json.Marshal(redisEntry(e))
			if err := s.client.ZRem(ctx, s.key, payload).Err(); err != nil {
				return fmt.Errorf("removing memory entry: %w", err)
			}
		}
	}
	return nil
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.ZCard(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("counting memory set: %w", err)
	}
	return int(n), nil
}

var _ Store = (*RedisStore)(nil)
