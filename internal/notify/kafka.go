package notify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"waybilltrack/backend/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes waybill events keyed by waybill id, so every event for one
// waybill lands on the same partition.
type Kafka struct {
	writer messageWriter
}

func NewKafka(brokers string, topic string) *Kafka {
	return &Kafka{writer: &kafka.Writer{
		Addr:         kafka.TCP(splitBrokers(brokers)...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
	}}
}

func (k *Kafka) Name() string {
	return "kafka"
}

func (k *Kafka) Send(ctx context.Context, event domain.WaybillEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.IncomingID),
		Value: value,
		Time:  event.OccurredAt,
	})
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}

func splitBrokers(raw string) []string {
	brokers := make([]string, 0, 2)
	for _, broker := range strings.Split(raw, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}
