package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const DefaultTopic = "album-votes"

/*
Kafka publishes vote events keyed by album so that the events for one album
stay on one partition and in order.

RequiredAcks is kafka.RequireAll: a vote event is only reported as published
once every in-sync replica has it.
*/
type Kafka struct {
	writer *kafka.Writer
}

func NewKafka(brokers []string, topic string) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers")
	}

	if topic == "" {
		topic = DefaultTopic
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
		MaxAttempts:            5,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: true,
	}

	return &Kafka{writer: w}, nil
}

func (k *Kafka) Publish(ctx context.Context, event Event) error {
	message, err := encode(event)
	if err != nil {
		return err
	}

	if err := k.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to kafka (%w)", err)
	}

	return nil
}

func (k *Kafka) Close() error {
	if err := k.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer (%w)", err)
	}

	return nil
}

func encode(event Event) (kafka.Message, error) {
	b, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal vote event (%w)", err)
	}

	return kafka.Message{
		Key:   []byte(event.Album),
		Value: b,
		Time:  event.Timestamp,
	}, nil
}
