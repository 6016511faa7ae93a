package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventsQueue — список Redis, куда складываются события диалога
const EventsQueue = "queue:events"

// Task — событие для внешней обработки (аналитика, выгрузки)
type Task struct {
	Type string    `json:"type"`
	Data any       `json:"data"`
	At   time.Time `json:"at"`
}

// Publisher отправляет события во внешнюю очередь
type Publisher interface {
	Publish(ctx context.Context, task Task) error
}

// NopPublisher ничего не отправляет
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Task) error { return nil }

// RedisPublisher кладёт события в список Redis
type RedisPublisher struct {
	rdb   *redis.Client
	queue string
}

// NewRedisPublisher создаёт издателя для очереди EventsQueue
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, queue: EventsQueue}
}

// Publish отправляет задачу в Redis-очередь
func (p *RedisPublisher) Publish(ctx context.Context, task Task) error {
	if task.At.IsZero() {
		task.At = time.Now().UTC()
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("ошибка сериализации задачи: %w", err)
	}

	if err := p.rdb.LPush(ctx, p.queue, payload).Err(); err != nil {
		return fmt.Errorf("ошибка отправки в очередь: %w", err)
	}

	slog.Debug("📨 Событие отправлено в Redis", "type", task.Type)
	return nil
}
