package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

const DefaultTopic = "storefront-analytics"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaSink struct {
	writer messageWriter
}

func NewKafkaSink(topic string, brokers ...string) *KafkaSink {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaSink{writer: w}
}

func (s *KafkaSink) Emit(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal analytics event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(e.ClientID), // per-client ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Name)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish analytics event: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
