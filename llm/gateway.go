package llm

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// Client — внешний сервис генерации текста
type Client interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// RetryPolicy — сколько раз повторять запрос и с какой паузой
type RetryPolicy struct {
	MaxAttempts int
	// BaseDelay — единица экспоненциальной паузы: BaseDelay * 2^attempt.
	BaseDelay time.Duration
	// AttemptTimeout ограничивает одну попытку; 0 — без ограничения.
	AttemptTimeout time.Duration
}

// DefaultRetryPolicy — 3 попытки, паузы 1s, 2s
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:    3,
	BaseDelay:      time.Second,
	AttemptTimeout: 30 * time.Second,
}

// Backoff возвращает паузу перед попыткой attempt+1
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(1<<attempt)
}

// Gateway получает ответ модели и никогда не возвращает ошибку вызывающему:
// любой сбой превращается в готовую строку для пользователя.
type Gateway struct {
	client Client
	policy RetryPolicy
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// Option настраивает Gateway
type Option func(*Gateway)

// WithLogger задаёт логгер
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithSleep подменяет ожидание между попытками
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(g *Gateway) {
		g.sleep = sleep
	}
}

// NewGateway создаёт Gateway. client == nil означает, что модель не настроена.
func NewGateway(client Client, policy RetryPolicy, opts ...Option) *Gateway {
	g := &Gateway{
		client: client,
		policy: policy,
		logger: slog.Default(),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Configured сообщает, есть ли рабочий клиент модели
func (g *Gateway) Configured() bool {
	return g.client != nil
}

// Generate возвращает ответ модели или текст ошибки для пользователя
func (g *Gateway) Generate(ctx context.Context, prompt string) string {
	if g.client == nil {
		return FallbackNotConfigured
	}

	for attempt := 0; attempt < g.policy.MaxAttempts; attempt++ {
		text, err := g.attempt(ctx, prompt)
		if err == nil {
			return text
		}

		fallback := FallbackUnknown
		switch {
		case errors.Is(err, ErrQuotaExceeded):
			g.logger.Warn("⛔ Лимит запросов к модели исчерпан", "attempt", attempt+1)
			return FallbackQuota
		case errors.Is(err, ErrInvalidKey):
			g.logger.Error("🔑 Модель отклонила API-ключ", "attempt", attempt+1, "err", err)
			return FallbackInvalidKey
		case errors.Is(err, ErrAPI), errors.Is(err, ErrEmptyResponse):
			g.logger.Error("❌ Ошибка API модели", "attempt", attempt+1, "err", err)
			fallback = FallbackTechnical
		default:
			g.logger.Error("❌ Неожиданная ошибка генерации", "attempt", attempt+1, "err", err)
		}

		if attempt == g.policy.MaxAttempts-1 {
			return fallback
		}
		if err := g.sleep(ctx, g.policy.Backoff(attempt)); err != nil {
			g.logger.Warn("⏹ Ожидание повтора прервано", "attempt", attempt+1, "err", err)
			return fallback
		}
	}

	return FallbackAllFailed
}

func (g *Gateway) attempt(ctx context.Context, prompt string) (string, error) {
	if g.policy.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.policy.AttemptTimeout)
		defer cancel()
	}

	text, err := g.client.GenerateText(ctx, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// sleepContext ждёт d, но просыпается раньше при отмене ctx
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
