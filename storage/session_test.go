package storage

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemorySessionStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySessionStore()

	lang, err := s.GetLanguage(ctx, 1)
	if err != nil || lang != "" {
		t.Fatalf("GetLanguage on empty store = (%q, %v), want empty", lang, err)
	}

	if err := s.SetLanguage(ctx, 1, "EN"); err != nil {
		t.Fatalf("SetLanguage: %v", err)
	}
	if err := s.SetLanguage(ctx, 1, "AM"); err != nil {
		t.Fatalf("SetLanguage: %v", err)
	}
	if lang, _ := s.GetLanguage(ctx, 1); lang != "AM" {
		t.Fatalf("GetLanguage = %q, want AM (last write wins)", lang)
	}
	if lang, _ := s.GetLanguage(ctx, 2); lang != "" {
		t.Fatalf("other user must not see the session, got %q", lang)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}

func TestMemorySessionStoreConcurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySessionStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lang := "AM"
			if i%2 == 0 {
				lang = "EN"
			}
			_ = s.SetLanguage(ctx, int64(i%5), lang)
			_, _ = s.GetLanguage(ctx, int64(i%5))
		}(i)
	}
	wg.Wait()

	if s.Len() != 5 {
		t.Fatalf("Len = %d, want 5", s.Len())
	}
}

func TestRedisSessionStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	s := NewRedisSessionStore(client, time.Hour)
	t.Cleanup(func() { s.Close() })

	lang, err := s.GetLanguage(ctx, 42)
	if err != nil || lang != "" {
		t.Fatalf("GetLanguage on empty store = (%q, %v), want empty", lang, err)
	}

	if err := s.SetLanguage(ctx, 42, "EN"); err != nil {
		t.Fatalf("SetLanguage: %v", err)
	}
	if got := mr.TTL("session:42:lang"); got != time.Hour {
		t.Fatalf("TTL = %v, want 1h", got)
	}

	mr.FastForward(30 * time.Minute)
	lang, err = s.GetLanguage(ctx, 42)
	if err != nil || lang != "EN" {
		t.Fatalf("GetLanguage = (%q, %v), want EN", lang, err)
	}
	if got := mr.TTL("session:42:lang"); got != time.Hour {
		t.Fatalf("TTL after read = %v, want refreshed 1h", got)
	}
}

// expireRefused отклоняет команды EXPIRE, остальные пропускает в Redis
type expireRefused struct{}

func (expireRefused) DialHook(next redis.DialHook) redis.DialHook { return next }

func (expireRefused) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "expire" {
			err := errors.New("expire refused")
			cmd.SetErr(err)
			return err
		}
		return next(ctx, cmd)
	}
}

func (expireRefused) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisSessionStoreTTLRefreshFailureIsLogged(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	client.AddHook(expireRefused{})

	var buf bytes.Buffer
	s := NewRedisSessionStore(client, time.Hour)
	s.logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	t.Cleanup(func() { s.Close() })

	if err := s.SetLanguage(ctx, 42, "EN"); err != nil {
		t.Fatalf("SetLanguage: %v", err)
	}
	lang, err := s.GetLanguage(ctx, 42)
	if err != nil || lang != "EN" {
		t.Fatalf("GetLanguage = (%q, %v), want EN despite failed TTL refresh", lang, err)
	}

	out := buf.String()
	if !strings.Contains(out, "level=DEBUG") || !strings.Contains(out, "expire refused") {
		t.Fatalf("TTL refresh failure not logged at debug level:\n%s", out)
	}
}

func TestRedisSessionStoreError(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	s := NewRedisSessionStore(client, 0)
	t.Cleanup(func() { s.Close() })

	if _, err := s.GetLanguage(context.Background(), 1); err == nil {
		t.Fatalf("expected error when redis is down")
	}
}

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	for _, addr := range []string{mr.Addr(), "redis://" + mr.Addr() + "/0"} {
		rdb, err := ConnectRedis(context.Background(), addr)
		if err != nil {
			t.Fatalf("ConnectRedis(%q): %v", addr, err)
		}
		rdb.Close()
	}
}

func TestPostgresSessionStore(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS user_sessions").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT language FROM user_sessions").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"language"}))
	mock.ExpectExec("INSERT INTO user_sessions").
		WithArgs(int64(7), "EN").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT language FROM user_sessions").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"language"}).AddRow("EN"))
	mock.ExpectClose()

	s, err := NewPostgresSessionStore(ctx, db)
	if err != nil {
		t.Fatalf("NewPostgresSessionStore: %v", err)
	}

	lang, err := s.GetLanguage(ctx, 7)
	if err != nil || lang != "" {
		t.Fatalf("GetLanguage on empty table = (%q, %v), want empty", lang, err)
	}
	if err := s.SetLanguage(ctx, 7, "EN"); err != nil {
		t.Fatalf("SetLanguage: %v", err)
	}
	lang, err = s.GetLanguage(ctx, 7)
	if err != nil || lang != "EN" {
		t.Fatalf("GetLanguage = (%q, %v), want EN", lang, err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPostgresSessionStoreQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS user_sessions").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT language FROM user_sessions").WillReturnError(boom)

	s, err := NewPostgresSessionStore(context.Background(), db)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetLanguage(context.Background(), 1); !errors.Is(err, boom) {
		t.Fatalf("GetLanguage error = %v, want wrapped %v", err, boom)
	}
}

func TestNewSessionStore(t *testing.T) {
	ctx := context.Background()

	s, err := NewSessionStore(ctx, StoreTypeMemory)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*MemorySessionStore); !ok {
		t.Fatalf("memory type = %T", s)
	}

	if _, err := NewSessionStore(ctx, StoreTypeRedis); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("redis without client: err = %v, want ErrInvalidConfig", err)
	}
	if _, err := NewSessionStore(ctx, StoreTypePostgres); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("postgres without db: err = %v, want ErrInvalidConfig", err)
	}
	if _, err := NewSessionStore(ctx, "etcd"); !errors.Is(err, ErrInvalidStoreType) {
		t.Fatalf("unknown type: err = %v, want ErrInvalidStoreType", err)
	}

	mr := miniredis.RunT(t)
	s, err = NewSessionStore(ctx, StoreTypeRedis,
		WithRedisClient(redis.NewClient(&redis.Options{Addr: mr.Addr()})),
		WithTTL(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if rs, ok := s.(*RedisSessionStore); !ok || rs.ttl != time.Minute {
		t.Fatalf("redis store = %#v", s)
	}
}
