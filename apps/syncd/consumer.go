package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mahaj/chatify/internal/gateway"
)

type Consumer struct {
	reader  *kafka.Reader
	applier *Applier
}

func NewConsumer(brokers []string, topic string, groupID string, applier *Applier) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	return &Consumer{reader: r, applier: applier}
}

func (c *Consumer) Consume(ctx context.Context) {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Error reading mutation: %v. Retrying in 1s...", err)
			time.Sleep(1 * time.Second)
			continue
		}

		var mut gateway.Mutation
		if err := json.Unmarshal(m.Value, &mut); err != nil {
			log.Printf("Failed to unmarshal mutation: %v", err)
			continue
		}

		// A failed apply is logged and the mutation dropped; a sender
		// learns about visible effects only through subscriptions, and
		// an unapplied write simply never becomes visible.
		if err := c.applier.Apply(ctx, &mut); err != nil {
			log.Printf("Failed to apply %s from %s: %v", mut.Kind, mut.Actor, err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
