package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Общие ошибки хранилища сессий
var (
	ErrInvalidConfig    = errors.New("invalid session store configuration")
	ErrInvalidStoreType = errors.New("invalid session store type")
)

// SessionStore хранит выбранный пользователем язык интерфейса
type SessionStore interface {
	// GetLanguage возвращает пустую строку, если пользователь язык не выбирал.
	GetLanguage(ctx context.Context, userID int64) (string, error)
	SetLanguage(ctx context.Context, userID int64, lang string) error
	Close() error
}

// StoreType — тип бэкенда сессий
type StoreType string

const (
	StoreTypeMemory   StoreType = "memory"
	StoreTypeRedis    StoreType = "redis"
	StoreTypePostgres StoreType = "postgres"
)

// StoreOption — функциональная опция для NewSessionStore
type StoreOption func(*storeConfig)

type storeConfig struct {
	redisClient *redis.Client
	db          *sql.DB
	ttl         time.Duration
}

// WithRedisClient задаёт клиент Redis для StoreTypeRedis
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithDB задаёт пул соединений PostgreSQL для StoreTypePostgres
func WithDB(db *sql.DB) StoreOption {
	return func(c *storeConfig) {
		c.db = db
	}
}

// WithTTL задаёт время жизни сессии в Redis
func WithTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.ttl = ttl
	}
}

// NewSessionStore создаёт хранилище сессий нужного типа
func NewSessionStore(ctx context.Context, storeType StoreType, opts ...StoreOption) (SessionStore, error) {
	config := &storeConfig{}
	for _, opt := range opts {
		opt(config)
	}

	switch storeType {
	case StoreTypeMemory, "":
		return NewMemorySessionStore(), nil
	case StoreTypeRedis:
		if config.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		return NewRedisSessionStore(config.redisClient, config.ttl), nil
	case StoreTypePostgres:
		if config.db == nil {
			return nil, ErrInvalidConfig
		}
		return NewPostgresSessionStore(ctx, config.db)
	default:
		return nil, ErrInvalidStoreType
	}
}
