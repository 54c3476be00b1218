package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaPublisher writes StatusChanged events as JSON, keyed by order ID so
// every event of one order lands on the same partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger zerolog.Logger
}

// NewKafkaPublisher creates a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) *KafkaPublisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(w, topic, logger)
}

func newKafkaPublisher(w messageWriter, topic string, logger zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: w,
		topic:  topic,
		logger: logger.With().Str("component", "kafka-publisher").Str("topic", topic).Logger(),
	}
}

// Publish writes one event.
func (p *KafkaPublisher) Publish(ctx context.Context, e StatusChanged) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(strconv.Itoa(e.OrderID)),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event-id", Value: []byte(e.EventID.String())},
			{Key: "action", Value: []byte(e.Action)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error().Err(err).Int("order_id", e.OrderID).Msg("failed to publish status event")
		return fmt.Errorf("failed to publish status event: %w", err)
	}

	p.logger.Debug().
		Int("order_id", e.OrderID).
		Str("action", string(e.Action)).
		Msg("status event published")
	return nil
}

// Close flushes pending writes and releases the connection.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
