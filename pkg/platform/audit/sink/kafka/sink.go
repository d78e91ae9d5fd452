// Package kafka mirrors audit events onto a Kafka topic as JSON, keyed by
// subject so all events for one record land on one partition.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	audit "dhruva/pkg/platform/audit"
	platformkafka "dhruva/internal/platform/kafka"
)

// Producer is satisfied by *platformkafka.Producer.
type Producer interface {
	Produce(ctx context.Context, msg platformkafka.Message) error
}

type Sink struct {
	producer Producer
	topic    string
}

func New(producer Producer, topic string) *Sink {
	return &Sink{producer: producer, topic: topic}
}

func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	return s.producer.Produce(ctx, platformkafka.Message{
		Topic: s.topic,
		Key:   []byte(event.Subject),
		Value: payload,
		Headers: map[string]string{
			"category": string(event.Category),
			"action":   event.Action,
		},
	})
}
