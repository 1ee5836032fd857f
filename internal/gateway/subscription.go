package gateway

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Invalidation channels. A write to a collection publishes on the matching
// channel; every open subscription on that channel re-queries and pushes a
// fresh snapshot.
const (
	InvRooms  = "inv:rooms"
	InvStatus = "inv:status"
)

func InvRoom(roomID string) string     { return "inv:room:" + roomID }
func InvMessages(roomID string) string { return "inv:messages:" + roomID }

// Subscription is a live view of one query. Updates carries full
// snapshots, latest wins: if the consumer lags, stale snapshots are
// dropped rather than queued. Unsubscribe (or cancelling the ctx passed at
// creation) releases the underlying pub/sub resources; it is safe to call
// more than once.
type Subscription[T any] struct {
	updates chan T
	cancel  context.CancelFunc
	once    sync.Once
}

// Updates delivers snapshots. The channel closes after Unsubscribe.
func (s *Subscription[T]) Updates() <-chan T { return s.updates }

func (s *Subscription[T]) Unsubscribe() {
	s.once.Do(s.cancel)
}

// push replaces any undelivered snapshot with v.
func (s *Subscription[T]) push(v T) {
	for {
		select {
		case s.updates <- v:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}

// NewLocalSubscription builds a subscription fed directly by the returned
// push function instead of by a backend. In-memory stores and tests use it
// to stand in for the real change feed.
func NewLocalSubscription[T any]() (*Subscription[T], func(T)) {
	s := &Subscription[T]{
		updates: make(chan T, 1),
		cancel:  func() {},
	}
	return s, s.push
}

// subscribe runs query once for the initial snapshot, then re-runs it each
// time channel fires on redis pub/sub. Query errors after the initial one
// are logged and the previous snapshot stands; the next invalidation
// retries.
func subscribe[T any](ctx context.Context, rdb *redis.Client, channel string, query func(context.Context) (T, error)) (*Subscription[T], error) {
	ctx, cancel := context.WithCancel(ctx)

	// The pub/sub channel must be live before the initial query runs: an
	// invalidation for a write racing the setup is then queued behind the
	// query instead of lost. Receive blocks until the server confirmed
	// the subscription.
	pubsub := rdb.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		cancel()
		return nil, err
	}

	initial, err := query(ctx)
	if err != nil {
		pubsub.Close()
		cancel()
		return nil, err
	}

	sub := &Subscription[T]{
		updates: make(chan T, 1),
		cancel:  cancel,
	}
	sub.push(initial)

	go func() {
		defer pubsub.Close()
		sub.requery(ctx, channel, pubsub.Channel(), query)
	}()

	return sub, nil
}

// requery re-runs query on every signal and pushes the fresh snapshot.
// Closes the updates channel on teardown.
func (s *Subscription[T]) requery(ctx context.Context, channel string, signals <-chan *redis.Message, query func(context.Context) (T, error)) {
	defer close(s.updates)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-signals:
			if !ok {
				return
			}
			snapshot, err := query(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("subscription %s: requery failed: %v", channel, err)
				}
				continue
			}
			s.push(snapshot)
		}
	}
}
