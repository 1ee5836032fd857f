package db

import (
	"context"
	"log"
	"time"

	"github.com/gocql/gocql"
)

type Session struct {
	*gocql.Session
}

func NewSession(hosts []string, keyspace string) (*Session, error) {
	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 5 * time.Second
	cluster.ConnectTimeout = 5 * time.Second

	// Retry policy
	cluster.RetryPolicy = &gocql.ExponentialBackoffRetryPolicy{
		NumRetries: 3,
		Min:        100 * time.Millisecond,
		Max:        1 * time.Second,
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, err
	}

	log.Println("Connected to ScyllaDB cluster")
	return &Session{Session: session}, nil
}

// BatchStmt is one statement inside an atomic batch.
type BatchStmt struct {
	Query string
	Args  []interface{}
}

// ExecuteAtomic applies all statements as a single logged batch: either
// every statement lands or none of them do. Room deletion relies on this
// to never leave messages behind without their room, or the reverse.
func (s *Session) ExecuteAtomic(ctx context.Context, stmts []BatchStmt) error {
	batch := s.Session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	for _, st := range stmts {
		batch.Query(st.Query, st.Args...)
	}
	return s.Session.ExecuteBatch(batch)
}
