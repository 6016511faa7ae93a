package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config — структура для хранения конфигурации приложения
type Config struct {
	Env      string
	Port     string
	LogLevel slog.Level

	TelegramToken string
	WebhookSecret string
	// BaseURL — внешний адрес сервиса, по нему регистрируется вебхук
	BaseURL string

	GeminiAPIKey string
	GeminiModel  string

	Retry RetryConfig

	UpdateTimeout time.Duration
	MaxWorkers    int

	SessionStore  string
	SessionTTL    time.Duration
	RedisAddr     string
	PostgresDSN   string
	EventsEnabled bool
}

// RetryConfig — политика повторов при обращении к модели
type RetryConfig struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	AttemptTimeout time.Duration
}

var (
	cfg     *Config
	loadErr error
	once    sync.Once
)

// LoadConfig загружает конфигурацию только один раз (singleton)
func LoadConfig() (*Config, error) {
	once.Do(func() {
		// Попробуем загрузить .env из разных мест
		envPaths := []string{".env", "../.env", "../../.env"}
		for _, path := range envPaths {
			if err := godotenv.Load(path); err == nil {
				break
			}
		}
		cfg, loadErr = Load()
	})
	return cfg, loadErr
}

// Load читает конфигурацию из переменных окружения без кеширования
func Load() (*Config, error) {
	p := &parser{}

	c := &Config{
		Env:           getEnv("APP_ENV", "production"),
		Port:          getEnv("PORT", "8080"),
		LogLevel:      p.level("LOG_LEVEL", slog.LevelInfo),
		TelegramToken: getEnv("TELEGRAM_TOKEN", ""),
		WebhookSecret: getEnv("TELEGRAM_WEBHOOK_SECRET", ""),
		BaseURL:       strings.TrimRight(getEnv("RENDER_EXTERNAL_URL", ""), "/"),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		Retry: RetryConfig{
			MaxAttempts:    p.integer("MAX_RETRIES", 3),
			BaseDelay:      p.duration("RETRY_BASE_DELAY", time.Second),
			AttemptTimeout: p.duration("ATTEMPT_TIMEOUT", 30*time.Second),
		},
		UpdateTimeout: p.duration("UPDATE_TIMEOUT", 2*time.Minute),
		MaxWorkers:    p.integer("MAX_WORKERS", 10),
		SessionStore:  strings.ToLower(getEnv("SESSION_STORE", "memory")),
		SessionTTL:    p.duration("SESSION_TTL", 30*24*time.Hour),
		RedisAddr:     getRedisAddr(),
		PostgresDSN:   getEnv("POSTGRES_DSN", ""),
		EventsEnabled: p.boolean("EVENTS_ENABLED", false),
	}
	if p.err != nil {
		return nil, p.err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("MAX_RETRIES must be >= 1")
	}
	if c.Retry.BaseDelay < 0 {
		return fmt.Errorf("RETRY_BASE_DELAY must be >= 0")
	}
	if c.MaxWorkers < 1 {
		return fmt.Errorf("MAX_WORKERS must be >= 1")
	}
	switch c.SessionStore {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("SESSION_STORE=redis requires REDIS_URL or REDIS_ADDR")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("SESSION_STORE=postgres requires POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}
	if c.EventsEnabled && c.RedisAddr == "" {
		return fmt.Errorf("EVENTS_ENABLED requires REDIS_URL or REDIS_ADDR")
	}
	return nil
}

// Missing возвращает имена обязательных, но не заданных переменных.
// Их отсутствие не останавливает сервис: бот работает в урезанном режиме.
func (c *Config) Missing() []string {
	var missing []string
	if c.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_TOKEN")
	}
	if c.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	return missing
}

// WebhookPath — путь, на который Telegram присылает обновления
func (c *Config) WebhookPath() string {
	if c.TelegramToken == "" {
		return "/telegram"
	}
	return "/" + c.TelegramToken
}

// WebhookURL — полный адрес вебхука; пустая строка, если регистрировать нечего
func (c *Config) WebhookURL() string {
	if c.BaseURL == "" || c.TelegramToken == "" {
		return ""
	}
	return c.BaseURL + c.WebhookPath()
}

// getEnv — возвращает значение или дефолт
func getEnv(key string, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getRedisAddr — извлекает адрес Redis из REDIS_URL или REDIS_ADDR
func getRedisAddr() string {
	if redisURL, ok := os.LookupEnv("REDIS_URL"); ok && redisURL != "" {
		return redisURL
	}
	if redisAddr, ok := os.LookupEnv("REDIS_ADDR"); ok && redisAddr != "" {
		return redisAddr
	}
	return ""
}

// parser запоминает первую ошибку разбора
type parser struct {
	err error
}

func (p *parser) fail(key, val string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s=%q: %w", key, val, err)
	}
}

func (p *parser) integer(key string, def int) int {
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		p.fail(key, val, err)
		return def
	}
	return n
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil {
		p.fail(key, val, err)
		return def
	}
	return d
}

func (p *parser) boolean(key string, def bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off", "":
		return false
	default:
		p.fail(key, val, fmt.Errorf("not a boolean"))
		return def
	}
}

func (p *parser) level(key string, def slog.Level) slog.Level {
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(val))); err != nil {
		p.fail(key, val, err)
		return def
	}
	return lvl
}
