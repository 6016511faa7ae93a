package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix  = "session:"
	defaultSessionTTL = 30 * 24 * time.Hour
)

// ConnectRedis создаёт клиент Redis и проверяет соединение.
// Принимает как адрес host:port, так и URL вида redis://host:port/0.
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	opts := &redis.Options{
		Addr: addr,
		DB:   0,
	}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}

	rdb := redis.NewClient(opts)

	// Проверим соединение
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	slog.Info("✅ Подключение к Redis успешно", "addr", opts.Addr)
	return rdb, nil
}

// RedisSessionStore хранит язык пользователя в Redis с TTL
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisSessionStore создаёт хранилище поверх готового клиента
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &RedisSessionStore{
		client: client,
		ttl:    ttl,
		logger: slog.Default(),
	}
}

// GetLanguage implements SessionStore. Каждое чтение продлевает TTL.
func (s *RedisSessionStore) GetLanguage(ctx context.Context, userID int64) (string, error) {
	key := s.key(userID)
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}

	// язык уже прочитан, неудачное продление TTL не мешает ответу
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		s.logger.Debug("Не удалось продлить TTL сессии", "key", key, "err", err)
	}
	return val, nil
}

// SetLanguage implements SessionStore.
func (s *RedisSessionStore) SetLanguage(ctx context.Context, userID int64, lang string) error {
	key := s.key(userID)
	if err := s.client.Set(ctx, key, lang, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close implements SessionStore.
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}

func (s *RedisSessionStore) key(userID int64) string {
	return sessionKeyPrefix + strconv.FormatInt(userID, 10) + ":lang"
}
