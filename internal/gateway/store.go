package gateway

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/mahaj/chatify/pkg/db"
)

// stores is the shared core of the Scylla-backed store implementations.
// Documents live in Scylla; fire-and-forget writes go through the Kafka
// mutation log; invalidations fan out over Redis pub/sub.
type stores struct {
	db      *db.Session
	rdb     *redis.Client
	pub     *Publisher
	baseURL string
}

type roomStore struct{ *stores }
type messageStore struct{ *stores }
type statusStore struct{ *stores }
type blobStore struct{ *stores }

// invalidate nudges every open subscription on the given channels to
// re-query. Failures are logged only: the data change already happened,
// and the subscriber catches up on its next invalidation.
func (s *stores) invalidate(ctx context.Context, channels ...string) {
	for _, ch := range channels {
		if err := s.rdb.Publish(ctx, ch, "1").Err(); err != nil {
			log.Printf("invalidate %s: %v", ch, err)
		}
	}
}
