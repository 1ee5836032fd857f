package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mahaj/chatify/pkg/model"
)

// Mutation kinds carried on the log. Creates carry the full document;
// deletes carry the target path. IDs and timestamps are assigned by the
// sync worker at apply time, which is what makes them server-assigned and
// monotonic.
type MutationKind string

const (
	MutCreateRoom    MutationKind = "create_room"
	MutSendMessage   MutationKind = "send_message"
	MutDeleteMessage MutationKind = "delete_message"
	MutCreateStatus  MutationKind = "create_status"
)

type Mutation struct {
	Kind      MutationKind      `json:"kind"`
	Actor     string            `json:"actor"`
	Room      *model.Room       `json:"room,omitempty"`
	Message   *model.Message    `json:"message,omitempty"`
	Status    *model.StatusPost `json:"status,omitempty"`
	RoomID    string            `json:"room_id,omitempty"`
	MessageID int64             `json:"message_id,omitempty"`
}

// Publisher appends mutations to the Kafka log. Publish returning nil
// means the write is durable on the log, not yet visible in the store;
// visibility arrives through the subscription once syncd applies it.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *Publisher) Publish(ctx context.Context, m *Mutation) error {
	value, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Value: value,
		Time:  time.Now(),
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
