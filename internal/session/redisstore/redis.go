package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"placesbot/internal/models"
	"placesbot/internal/session"
)

const keyPrefix = "placesbot"

// Store keeps sessions in Redis as JSON values. Every write overwrites the
// key; a positive ttl makes idle chats expire.
type Store struct {
	client        *redis.Client
	ttl           time.Duration
	defaultRadius int
}

var _ session.Store = (*Store)(nil)

// New wraps an existing client
func New(client *redis.Client, ttl time.Duration, defaultRadius int) *Store {
	return &Store{client: client, ttl: ttl, defaultRadius: defaultRadius}
}

// Connect creates a client for addr and checks it with PING
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return client, nil
}

func sessionKey(chatID int64) string {
	return fmt.Sprintf("%s:session:%d", keyPrefix, chatID)
}

func resultsKey(chatID int64) string {
	return fmt.Sprintf("%s:results:%d", keyPrefix, chatID)
}

func listKey(chatID int64, name string) string {
	return fmt.Sprintf("%s:list:%d:%s", keyPrefix, chatID, name)
}

func (s *Store) Load(ctx context.Context, chatID int64) (*session.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return session.New(chatID, s.defaultRadius), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %d: %w", chatID, err)
	}

	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session %d: %w", chatID, err)
	}
	return &sess, nil
}

func (s *Store) Save(ctx context.Context, sess *session.Session) error {
	return s.set(ctx, sessionKey(sess.ChatID), sess)
}

func (s *Store) Reset(ctx context.Context, chatID int64) error {
	keys := []string{sessionKey(chatID), resultsKey(chatID)}

	iter := s.client.Scan(ctx, 0, listKey(chatID, "*"), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan lists of %d: %w", chatID, err)
	}

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to reset session %d: %w", chatID, err)
	}
	return nil
}

func (s *Store) SaveResults(ctx context.Context, chatID int64, setID string, results []models.RankedResult) error {
	return s.set(ctx, resultsKey(chatID), session.StoredResults{ID: setID, Results: results})
}

func (s *Store) LoadResults(ctx context.Context, chatID int64, setID string) ([]models.RankedResult, error) {
	data, err := s.client.Get(ctx, resultsKey(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, session.ErrResultSetExpired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load results of %d: %w", chatID, err)
	}
	return session.DecodeResults(data, setID)
}

func (s *Store) SaveList(ctx context.Context, chatID int64, name string, v any) error {
	return s.set(ctx, listKey(chatID, name), v)
}

func (s *Store) LoadList(ctx context.Context, chatID int64, name string, dst any) (bool, error) {
	data, err := s.client.Get(ctx, listKey(chatID, name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load list %s of %d: %w", name, chatID, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to decode list %s: %w", name, err)
	}
	return true, nil
}

func (s *Store) set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
