package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/khlee2637/storyforge/pkg/story"
)

const (
	storyKeyPrefix = "story:"
	storyIndexKey  = "stories"
)

// RedisStorage implements the Storage interface using Redis. Stories
// are stored as JSON under story:<uuid>, with a set of known IDs for
// listing.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(redisURL string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	return &RedisStorage{
		client: rdb,
		logger: logger,
	}
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

func (r *RedisStorage) SaveStory(ctx context.Context, s *story.Story) error {
	s.UpdatedAt = time.Now()

	data, err := json.Marshal(s)
	if err != nil {
		r.logger.Error("Failed to marshal story", "uuid", s.ID, "error", err)
		return fmt.Errorf("failed to marshal story: %w", err)
	}

	key := storyKeyPrefix + s.ID.String()
	if err := r.client.Set(ctx, key, string(data), 0).Err(); err != nil {
		r.logger.Error("Failed to save story", "uuid", s.ID, "error", err)
		return fmt.Errorf("failed to save story: %w", err)
	}

	if err := r.client.SAdd(ctx, storyIndexKey, s.ID.String()).Err(); err != nil {
		r.logger.Error("Failed to index story", "uuid", s.ID, "error", err)
		return fmt.Errorf("failed to index story: %w", err)
	}

	return nil
}

func (r *RedisStorage) GetStory(ctx context.Context, id uuid.UUID) (*story.Story, error) {
	key := storyKeyPrefix + id.String()
	cmd := r.client.Get(ctx, key)
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to load story", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to load story: %w", err)
	}

	var s story.Story
	if err := json.Unmarshal([]byte(cmd.Val()), &s); err != nil {
		r.logger.Error("Failed to unmarshal story", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal story: %w", err)
	}

	return &s, nil
}

func (r *RedisStorage) ListStories(ctx context.Context) ([]story.Summary, error) {
	ids, err := r.client.SMembers(ctx, storyIndexKey).Result()
	if err != nil {
		r.logger.Error("Failed to list story index", "error", err)
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}

	summaries := make([]story.Summary, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			r.logger.Warn("Skipping malformed story index entry", "entry", raw)
			continue
		}

		s, err := r.GetStory(ctx, id)
		if err != nil {
			if err == ErrNotFound {
				// Index entry without a record: clean it up
				r.logger.Warn("Removing stale story index entry", "uuid", id)
				_ = r.client.SRem(ctx, storyIndexKey, raw).Err()
				continue
			}
			return nil, err
		}

		summaries = append(summaries, s.Summarize())
	}

	return summaries, nil
}

func (r *RedisStorage) DeleteStory(ctx context.Context, id uuid.UUID) error {
	key := storyKeyPrefix + id.String()
	deleted, err := r.client.Del(ctx, key).Result()
	if err != nil {
		r.logger.Error("Failed to delete story", "uuid", id, "error", err)
		return fmt.Errorf("failed to delete story: %w", err)
	}
	if deleted == 0 {
		return ErrNotFound
	}

	if err := r.client.SRem(ctx, storyIndexKey, id.String()).Err(); err != nil {
		r.logger.Error("Failed to unindex story", "uuid", id, "error", err)
		return fmt.Errorf("failed to unindex story: %w", err)
	}

	return nil
}
