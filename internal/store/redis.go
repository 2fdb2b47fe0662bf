package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jamubc/gemini-mcp-tool-sub000/internal/models"
)

// RedisStore persists chat records in Redis: one JSON record per chat plus a
// sorted-set index scored by last activity for ordered listing.
type RedisStore struct {
	client *redis.Client
	logger zerolog.Logger
	now    func() time.Time
}

const chatIndexKey = "chats:index"

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, redisURL string, logger zerolog.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisStore{client: client, logger: logger, now: time.Now}, nil
}

// chatKey returns the key for a chat record.
func chatKey(id string) string {
	return fmt.Sprintf("chat:%s", id)
}

// SaveChat stores the record and refreshes its index entry.
func (s *RedisStore) SaveChat(ctx context.Context, rec *models.ChatRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, chatKey(rec.Chat.ID), data, 0)
	pipe.ZAdd(ctx, chatIndexKey, redis.Z{
		Score:  float64(rec.Chat.LastActivity.UnixMilli()),
		Member: rec.Chat.ID,
	})
	_, err = pipe.Exec(ctx)
	return err
}

// LoadChat fetches the record and writes the refreshed last-access time back.
func (s *RedisStore) LoadChat(ctx context.Context, id string) (*models.ChatRecord, error) {
	data, err := s.client.Get(ctx, chatKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec models.ChatRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}

	rec.LastAccessTime = s.now()
	if updated, err := json.Marshal(&rec); err == nil {
		if err := s.client.Set(ctx, chatKey(id), updated, 0).Err(); err != nil {
			s.logger.Warn().Err(err).Str("chat_id", id).Msg("last-access write-back failed")
		}
	}
	return &rec, nil
}

// ListChats walks the activity index newest-first and summarizes.
func (s *RedisStore) ListChats(ctx context.Context, opts ListOptions) ([]models.ChatSummary, error) {
	ids, err := s.client.ZRevRange(ctx, chatIndexKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	records := make([]*models.ChatRecord, 0, len(ids))
	for _, id := range ids {
		data, err := s.client.Get(ctx, chatKey(id)).Bytes()
		if errors.Is(err, redis.Nil) {
			// Stale index entry; repair best-effort.
			s.client.ZRem(ctx, chatIndexKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		var rec models.ChatRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			s.logger.Warn().Err(err).Str("chat_id", id).Msg("skipping unreadable chat")
			continue
		}
		records = append(records, &rec)
	}
	return summarize(records, opts), nil
}

// DeleteChat removes the record and its index entry.
func (s *RedisStore) DeleteChat(ctx context.Context, id string) (bool, error) {
	deleted, err := s.client.Del(ctx, chatKey(id)).Result()
	if err != nil {
		return false, err
	}
	s.client.ZRem(ctx, chatIndexKey, id)
	return deleted > 0, nil
}

// CleanupExpired removes chats unread for longer than olderThan.
func (s *RedisStore) CleanupExpired(ctx context.Context, olderThan time.Duration) (CleanupResult, error) {
	var result CleanupResult
	ids, err := s.client.ZRange(ctx, chatIndexKey, 0, -1).Result()
	if err != nil {
		return result, err
	}
	cutoff := s.now().Add(-olderThan)
	for _, id := range ids {
		data, err := s.client.Get(ctx, chatKey(id)).Bytes()
		if errors.Is(err, redis.Nil) {
			s.client.ZRem(ctx, chatIndexKey, id)
			continue
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("chat %s: %w", id, err))
			continue
		}
		var rec models.ChatRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("chat %s: %w", id, err))
			continue
		}
		if !rec.LastAccessTime.Before(cutoff) {
			continue
		}
		deleted, err := s.DeleteChat(ctx, id)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("chat %s: %w", id, err))
			continue
		}
		if deleted {
			result.Deleted++
		}
	}
	return result, nil
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
