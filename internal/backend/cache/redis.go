package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyBatch   = "photobrowser:batch:%s"
	defaultTTL = time.Hour
)

// RedisBatchStore keeps the displayed batch in redis so several server replicas
// render the same screen.
type RedisBatchStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisBatchStore(cfg Config) (*RedisBatchStore, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address must not be empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return newRedisBatchStore(client, cfg), nil
}

func newRedisBatchStore(client *redis.Client, cfg Config) *RedisBatchStore {
	screen := cfg.Screen
	if screen == "" {
		screen = "default"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisBatchStore{
		client: client,
		key:    fmt.Sprintf(keyBatch, screen),
		ttl:    ttl,
	}
}

func (s *RedisBatchStore) SaveBatch(ctx context.Context, batch Batch) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store batch: %w", err)
	}
	slog.Debug("stored photo batch", "key", s.key, "photo_count", len(batch.Photos), "size_bytes", len(data))
	return nil
}

func (s *RedisBatchStore) LoadBatch(ctx context.Context) (*Batch, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("failed to load batch: %w", err)
	}
	var batch Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("failed to unmarshal batch: %w", err)
	}
	return &batch, nil
}

func (s *RedisBatchStore) DeleteBatch(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to delete batch: %w", err)
	}
	return nil
}

func (s *RedisBatchStore) Close() error {
	return s.client.Close()
}
