package producer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"servicos-ja/backend/internal/telemetry"
)

const writeTimeout = 5 * time.Second

// KafkaProducer writes security events to one topic, keyed by event type so
// events of a kind stay ordered within a partition.
type KafkaProducer struct {
	writer *kafka.Writer
}

// NewKafkaProducer returns a producer for the given brokers and topic.
// Caller must Close on shutdown to flush batched messages.
func NewKafkaProducer(brokers []string, topic string) (*KafkaProducer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if topic == "" {
		return nil, errors.New("kafka: topic is required")
	}
	return &KafkaProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
		},
	}, nil
}

// Emit marshals the event to JSON and writes it, bounded by a short timeout so
// a slow broker cannot stall the caller.
func (p *KafkaProducer) Emit(ctx context.Context, event *telemetry.SecurityEvent) error {
	if p == nil || event == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(event.EventType),
		Value: payload,
	})
}

// Close flushes and closes the writer.
func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
