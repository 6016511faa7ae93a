package jobs

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// HandlerFunc обрабатывает одно обновление Telegram
type HandlerFunc func(ctx context.Context, update tgbotapi.Update)

// DispatcherConfig — ограничения на фоновую обработку
type DispatcherConfig struct {
	MaxWorkers    int
	UpdateTimeout time.Duration
}

// Dispatcher запускает каждое обновление в своей горутине,
// чтобы долгий ответ модели не задерживал остальных пользователей.
type Dispatcher struct {
	handle   HandlerFunc
	sem      chan struct{}
	timeout  time.Duration
	logger   *slog.Logger
	wg       sync.WaitGroup
	inFlight atomic.Int64
}

// NewDispatcher создаёт диспетчер; нулевые значения заменяются разумными дефолтами
func NewDispatcher(handle HandlerFunc, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 10
	}
	if cfg.UpdateTimeout <= 0 {
		cfg.UpdateTimeout = 2 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		handle:  handle,
		sem:     make(chan struct{}, cfg.MaxWorkers),
		timeout: cfg.UpdateTimeout,
		logger:  logger,
	}
}

// Dispatch ставит обновление в обработку и сразу возвращается.
// Если все воркеры заняты, горутина ждёт слот в пределах UpdateTimeout;
// ожидание и сама обработка укладываются в один и тот же срок.
func (d *Dispatcher) Dispatch(update tgbotapi.Update) {
	d.wg.Add(1)
	d.inFlight.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.inFlight.Add(-1)

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		select {
		case d.sem <- struct{}{}:
		case <-ctx.Done():
			d.logger.Error("⏳ Обновление не дождалось свободного воркера", "update_id", update.UpdateID, "err", ctx.Err())
			return
		}
		defer func() { <-d.sem }()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("💥 Паника при обработке обновления", "update_id", update.UpdateID, "panic", r)
			}
		}()

		d.handle(ctx, update)
	}()
}

// InFlight — сколько обновлений принято и ещё не завершено,
// включая ожидающие свободного воркера
func (d *Dispatcher) InFlight() int64 {
	return d.inFlight.Load()
}

// Wait ждёт завершения всех запущенных обработчиков или отмены ctx
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
