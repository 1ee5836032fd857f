package main

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/mahaj/chatify/internal/config"
	"github.com/mahaj/chatify/pkg/db"
	"github.com/mahaj/chatify/pkg/snowflake"
)

// syncd is the single writer behind the fire-and-forget mutation log: it
// consumes mutations from Kafka, assigns server-side IDs and timestamps,
// applies the writes to Scylla and publishes invalidations so open
// subscriptions re-query.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to the system keyspace first to create ours.
	sysSession, err := db.NewSession(cfg.Scylla.Hosts, "system")
	if err != nil {
		log.Fatalf("Failed to connect to ScyllaDB system keyspace: %v", err)
	}
	err = sysSession.Query(`CREATE KEYSPACE IF NOT EXISTS ` + cfg.Scylla.Keyspace +
		` WITH REPLICATION = { 'class' : 'SimpleStrategy', 'replication_factor' : 1 }`).Exec()
	if err != nil {
		log.Fatalf("Failed to create keyspace: %v", err)
	}
	sysSession.Close()

	session, err := db.NewSession(cfg.Scylla.Hosts, cfg.Scylla.Keyspace)
	if err != nil {
		log.Fatalf("Failed to connect to ScyllaDB: %v", err)
	}
	defer session.Close()

	if err := session.EnsureSchema(); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}

	// Node ID should be unique per instance in a multi-writer deployment
	// (env var or service discovery); a single syncd keeps IDs monotonic
	// by construction.
	node, err := snowflake.NewNode(1)
	if err != nil {
		log.Fatalf("Failed to initialize snowflake node: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer rdb.Close()

	consumer := NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, "syncd-group", &Applier{
		db:  session,
		rdb: rdb,
		ids: node,
	})
	defer consumer.Close()

	log.Println("syncd consuming mutation log...")
	consumer.Consume(context.Background())
}
