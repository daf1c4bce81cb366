package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/yukikurage/teamtask-api/internal/repository"
)

// RevocationStore remembers logged-out token IDs until the token would have
// expired anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisRevocationStore shares revocations between API instances. Redis
// failures are reported as repository.ErrUnavailable.
type RedisRevocationStore struct {
	redis  *redis.Client
	prefix string
}

func NewRedisRevocationStore(client *redis.Client, prefix string) *RedisRevocationStore {
	if prefix == "" {
		prefix = "revoked"
	}
	return &RedisRevocationStore{redis: client, prefix: prefix}
}

func (s *RedisRevocationStore) key(tokenID string) string {
	return fmt.Sprintf("%s:%s", s.prefix, tokenID)
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, s.key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: redis: %w", repository.ErrUnavailable, err)
	}
	return nil
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: redis: %w", repository.ErrUnavailable, err)
	}
	return n > 0, nil
}

// MemoryRevocationStore keeps revocations in process. Entries are bounded
// by size and by the longest token lifetime.
type MemoryRevocationStore struct {
	cache *lru.LRU[string, time.Time]
}

func NewMemoryRevocationStore(size int, maxTTL time.Duration) *MemoryRevocationStore {
	if size < 1 {
		size = 10000
	}
	return &MemoryRevocationStore{
		cache: lru.NewLRU[string, time.Time](size, nil, maxTTL),
	}
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, tokenID string, until time.Time) error {
	if time.Now().After(until) {
		return nil
	}
	s.cache.Add(tokenID, until)
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	until, ok := s.cache.Get(tokenID)
	return ok && time.Now().Before(until), nil
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
