package kafka

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/segmentio/kafka-go"

	"pms_sync/internal/domain"
)

// Publisher emits StayChange events keyed by reservation id so changes to
// one reservation stay ordered within a partition.
type Publisher struct {
	w *kafka.Writer
}

func New(brokers []string, topic string) *Publisher {
	return &Publisher{w: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

func (p *Publisher) Publish(ctx context.Context, changes ...domain.StayChange) error {
	msgs := make([]kafka.Message, 0, len(changes))
	for _, c := range changes {
		m, err := Message(c)
		if err != nil {
			return err
		}
		msgs = append(msgs, m)
	}
	return p.w.WriteMessages(ctx, msgs...)
}

func (p *Publisher) Close() error { return p.w.Close() }

// Message encodes one change.
func Message(c domain.StayChange) (kafka.Message, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return kafka.Message{}, err
	}
	key := c.ReservationID
	if key == "" {
		key = c.Entity + ":" + strconv.FormatInt(c.ID, 10)
	}
	return kafka.Message{
		Key:   []byte(key),
		Value: b,
		Headers: []kafka.Header{
			{Key: "entity", Value: []byte(c.Entity)},
			{Key: "op", Value: []byte(c.Op)},
		},
	}, nil
}
