package jobs

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// waitFor опрашивает cond, пока оно не станет истинным
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestDispatcherHandlesBurstAboveMaxWorkers(t *testing.T) {
	release := make(chan struct{})
	var running, peak atomic.Int32
	var mu sync.Mutex
	var seen []int

	d := NewDispatcher(func(ctx context.Context, u tgbotapi.Update) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		running.Add(-1)

		mu.Lock()
		seen = append(seen, u.UpdateID)
		mu.Unlock()
	}, DispatcherConfig{MaxWorkers: 2}, quietLogger)

	for id := 1; id <= 5; id++ {
		d.Dispatch(tgbotapi.Update{UpdateID: id})
	}
	waitFor(t, func() bool { return running.Load() == 2 })
	if got := d.InFlight(); got != 5 {
		t.Fatalf("InFlight = %d, want 5 (2 running, 3 waiting)", got)
	}

	close(release)
	if err := d.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	sort.Ints(seen)
	if diff := cmp.Diff(seen, []int{1, 2, 3, 4, 5}); diff != "" {
		t.Fatalf("handled updates mismatch (-got +want):\n%s", diff)
	}
	if got := peak.Load(); got > 2 {
		t.Fatalf("%d updates ran at once, want at most 2", got)
	}
	if got := d.InFlight(); got != 0 {
		t.Fatalf("InFlight after Wait = %d", got)
	}
}

func TestDispatcherGivesUpWaitingAfterUpdateTimeout(t *testing.T) {
	release := make(chan struct{})
	var handled atomic.Int32

	d := NewDispatcher(func(ctx context.Context, u tgbotapi.Update) {
		handled.Add(1)
		if u.UpdateID == 1 {
			<-release
		}
	}, DispatcherConfig{MaxWorkers: 1, UpdateTimeout: 20 * time.Millisecond}, quietLogger)

	d.Dispatch(tgbotapi.Update{UpdateID: 1})
	waitFor(t, func() bool { return handled.Load() == 1 })
	d.Dispatch(tgbotapi.Update{UpdateID: 2})

	// второе обновление бросает ожидание, первое ещё держит слот
	waitFor(t, func() bool { return d.InFlight() == 1 })

	close(release)
	if err := d.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := handled.Load(); got != 1 {
		t.Fatalf("handled %d updates, want 1", got)
	}
}

func TestDispatcherRecoversPanic(t *testing.T) {
	var handled atomic.Int32
	d := NewDispatcher(func(ctx context.Context, u tgbotapi.Update) {
		handled.Add(1)
		if u.UpdateID == 1 {
			panic("boom")
		}
	}, DispatcherConfig{MaxWorkers: 1}, quietLogger)

	d.Dispatch(tgbotapi.Update{UpdateID: 1})
	if err := d.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	// слот освобождён, следующее обновление проходит
	d.Dispatch(tgbotapi.Update{UpdateID: 2})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Wait(ctx); err != nil {
		t.Fatalf("worker slot leaked after panic: %v", err)
	}
	if got := handled.Load(); got != 2 {
		t.Fatalf("handled %d updates, want 2", got)
	}
}

func TestDispatcherAppliesTimeout(t *testing.T) {
	got := make(chan error, 1)
	d := NewDispatcher(func(ctx context.Context, u tgbotapi.Update) {
		<-ctx.Done()
		got <- ctx.Err()
	}, DispatcherConfig{UpdateTimeout: 10 * time.Millisecond}, quietLogger)

	d.Dispatch(tgbotapi.Update{})
	select {
	case err := <-got:
		if err != context.DeadlineExceeded {
			t.Fatalf("ctx.Err() = %v, want deadline exceeded", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("update timeout not applied")
	}
}

func TestDispatcherWaitCancelled(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	d := NewDispatcher(func(ctx context.Context, u tgbotapi.Update) { <-block }, DispatcherConfig{}, quietLogger)
	d.Dispatch(tgbotapi.Update{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Wait(ctx); err != context.Canceled {
		t.Fatalf("Wait = %v, want context.Canceled", err)
	}
}

func TestRedisPublisher(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	p := NewRedisPublisher(rdb)
	err := p.Publish(context.Background(), Task{Type: "language_selected", Data: map[string]any{"user_id": 7}})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	items, err := mr.List(EventsQueue)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("queue has %d items, want 1", len(items))
	}

	var task Task
	if err := json.Unmarshal([]byte(items[0]), &task); err != nil {
		t.Fatal(err)
	}
	if task.Type != "language_selected" || task.At.IsZero() {
		t.Fatalf("unexpected task %+v", task)
	}
}

func TestNopPublisher(t *testing.T) {
	if err := (NopPublisher{}).Publish(context.Background(), Task{Type: "x"}); err != nil {
		t.Fatal(err)
	}
}
