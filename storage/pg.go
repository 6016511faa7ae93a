package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// ConnectPostgres устанавливает соединение с PostgreSQL
func ConnectPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Проверка соединения
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	slog.Info("✅ Подключение к PostgreSQL успешно")
	return db, nil
}

const createSessionsTable = `CREATE TABLE IF NOT EXISTS user_sessions (
	user_id    BIGINT PRIMARY KEY,
	language   TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresSessionStore хранит язык пользователя в таблице user_sessions
type PostgresSessionStore struct {
	db *sql.DB
}

// NewPostgresSessionStore создаёт таблицу, если её ещё нет
func NewPostgresSessionStore(ctx context.Context, db *sql.DB) (*PostgresSessionStore, error) {
	if _, err := db.ExecContext(ctx, createSessionsTable); err != nil {
		return nil, fmt.Errorf("create user_sessions: %w", err)
	}
	return &PostgresSessionStore{db: db}, nil
}

// GetLanguage implements SessionStore.
func (s *PostgresSessionStore) GetLanguage(ctx context.Context, userID int64) (string, error) {
	var lang string
	err := s.db.QueryRowContext(ctx,
		`SELECT language FROM user_sessions WHERE user_id = $1`, userID).Scan(&lang)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("select session %d: %w", userID, err)
	}
	return lang, nil
}

// SetLanguage implements SessionStore.
func (s *PostgresSessionStore) SetLanguage(ctx context.Context, userID int64, lang string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_sessions (user_id, language, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (user_id) DO UPDATE SET language = EXCLUDED.language, updated_at = now()`,
		userID, lang)
	if err != nil {
		return fmt.Errorf("upsert session %d: %w", userID, err)
	}
	return nil
}

// Close implements SessionStore.
func (s *PostgresSessionStore) Close() error {
	return s.db.Close()
}
