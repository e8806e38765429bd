package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"reliefcheck/internal/domain"
)

// EventCaseCompleted is the event-type header of case-completed messages.
const EventCaseCompleted = "case.completed"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes case events to one topic, keyed by case id.
type Publisher struct {
	w     messageWriter
	topic string
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		topic: topic,
		w: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafkago.RequireAll,
		},
	}
}

// PublishCaseCompleted implements ports.EventPublisher.
func (p *Publisher) PublishCaseCompleted(ctx context.Context, ev domain.CaseCompleted) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode case event: %w", err)
	}
	msg := kafkago.Message{
		Key:   []byte(ev.CaseID),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "event-type", Value: []byte(EventCaseCompleted)},
			{Key: "verdict", Value: []byte(ev.Verdict)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish to %s: %w", p.topic, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.w.Close()
}
