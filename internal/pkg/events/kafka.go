package events

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// KafkaPublisher writes events to "<prefix>.<type>" topics through a
// synchronous producer.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	prefix   string
	logger   zerolog.Logger
}

// NewSaramaConfig returns the producer config used for event publishing
func NewSaramaConfig(clientID string) *sarama.Config {
	config := sarama.NewConfig()
	config.ClientID = clientID
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	return config
}

// NewKafkaPublisher dials brokers and returns a publisher on them
func NewKafkaPublisher(brokers []string, clientID, prefix string, logger zerolog.Logger) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewSaramaConfig(clientID))
	if err != nil {
		return nil, errors.Wrap(err, "create kafka producer")
	}
	return NewKafkaPublisherWithProducer(producer, prefix, logger), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, prefix string, logger zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		prefix:   prefix,
		logger:   logger.With().Str("component", "events").Logger(),
	}
}

// Topic returns the topic an event type is written to
func (p *KafkaPublisher) Topic(eventType Type) string {
	if p.prefix == "" {
		return string(eventType)
	}
	return p.prefix + "." + string(eventType)
}

// Publish sends event and waits for the broker acknowledgement
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrapf(err, "marshal %s event", event.Type)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.Topic(event.Type),
		Key:   sarama.StringEncoder(event.Key),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return errors.Wrapf(err, "send %s event", event.Type)
	}

	p.logger.Debug().
		Str("topic", msg.Topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Event published")
	return nil
}

// Close flushes and closes the producer
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
