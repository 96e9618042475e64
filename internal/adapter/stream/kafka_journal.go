package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rl1809/stock-transfer/internal/core/domain"
	"github.com/segmentio/kafka-go"
)

// ErrNoBrokers is returned when a Kafka journal is configured without brokers.
var ErrNoBrokers = errors.New("kafka journal: no brokers configured")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// transferEvent is the payload published for every finished command.
type transferEvent struct {
	ID         string    `json:"id"`
	Verb       string    `json:"verb"`
	Product    string    `json:"product"`
	Amount     int       `json:"amount"`
	Outcome    string    `json:"outcome"`
	RolledBack bool      `json:"rolled_back"`
	CreatedAt  time.Time `json:"created_at"`
}

// KafkaJournal publishes transfer records to a Kafka topic keyed by product.
type KafkaJournal struct {
	writer messageWriter
	topic  string
}

func NewKafkaJournal(brokers []string, topic string) (*KafkaJournal, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if topic == "" {
		return nil, errors.New("kafka journal: topic is required")
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		BatchSize:              100,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newKafkaJournal(w, topic), nil
}

func newKafkaJournal(w messageWriter, topic string) *KafkaJournal {
	return &KafkaJournal{writer: w, topic: topic}
}

func (j *KafkaJournal) Topic() string {
	return j.topic
}

func (j *KafkaJournal) Record(ctx context.Context, t domain.Transfer) error {
	payload, err := json.Marshal(transferEvent{
		ID:         t.ID,
		Verb:       string(t.Verb),
		Product:    t.Product,
		Amount:     t.Amount,
		Outcome:    t.Outcome,
		RolledBack: t.RolledBack,
		CreatedAt:  t.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode transfer %s: %w", t.ID, err)
	}

	msg := kafka.Message{
		Key:   []byte(t.Product),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "outcome", Value: []byte(t.Outcome)},
		},
	}
	if err := j.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish transfer %s: %w", t.ID, err)
	}
	return nil
}

func (j *KafkaJournal) Close() error {
	return j.writer.Close()
}
