package gateway

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func waitSnapshot[T any](t *testing.T, sub *Subscription[T]) T {
	t.Helper()
	select {
	case v := <-sub.Updates():
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a snapshot")
		panic("unreachable")
	}
}

func TestLocalSubscriptionLatestWins(t *testing.T) {
	sub, push := NewLocalSubscription[int]()

	// Three pushes with no reader in between: only the newest survives.
	push(1)
	push(2)
	push(3)

	if got := waitSnapshot(t, sub); got != 3 {
		t.Fatalf("snapshot = %d, want the latest (3)", got)
	}
}

func TestRequeryOnEachSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var version atomic.Int64
	version.Store(1)

	sub := &Subscription[int64]{
		updates: make(chan int64, 1),
		cancel:  cancel,
	}
	signals := make(chan *redis.Message)
	go sub.requery(ctx, "inv:test", signals, func(context.Context) (int64, error) {
		return version.Load(), nil
	})

	version.Store(2)
	signals <- &redis.Message{}
	if got := waitSnapshot(t, sub); got != 2 {
		t.Fatalf("snapshot after signal = %d, want 2", got)
	}

	version.Store(3)
	signals <- &redis.Message{}
	if got := waitSnapshot(t, sub); got != 3 {
		t.Fatalf("snapshot after second signal = %d, want 3", got)
	}
}

func TestRequeryFailureKeepsPreviousSnapshot(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var fail atomic.Bool
	var calls atomic.Int64

	sub := &Subscription[string]{
		updates: make(chan string, 1),
		cancel:  cancel,
	}
	signals := make(chan *redis.Message)
	go sub.requery(ctx, "inv:test", signals, func(context.Context) (string, error) {
		calls.Add(1)
		if fail.Load() {
			return "", errors.New("node down")
		}
		return "fresh", nil
	})

	// A failed requery pushes nothing; the loop stays alive and the next
	// invalidation retries.
	fail.Store(true)
	signals <- &redis.Message{}
	select {
	case v := <-sub.Updates():
		t.Fatalf("got snapshot %q after a failed requery", v)
	case <-time.After(50 * time.Millisecond):
	}

	fail.Store(false)
	signals <- &redis.Message{}
	if got := waitSnapshot(t, sub); got != "fresh" {
		t.Fatalf("snapshot after recovery = %q, want fresh", got)
	}
	if calls.Load() != 2 {
		t.Fatalf("query ran %d times, want 2", calls.Load())
	}
}

func TestRequeryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	sub := &Subscription[int]{
		updates: make(chan int, 1),
		cancel:  cancel,
	}
	signals := make(chan *redis.Message)
	go sub.requery(ctx, "inv:test", signals, func(context.Context) (int, error) {
		return 0, nil
	})

	sub.Unsubscribe()

	select {
	case _, ok := <-sub.Updates():
		if ok {
			t.Fatal("snapshot delivered after Unsubscribe")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("updates channel not closed after Unsubscribe")
	}
}
