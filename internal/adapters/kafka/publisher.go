// Package kafka publishes escalation events to a Kafka topic.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/example/logitrack/internal/ports/secondary"
)

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config configures a Publisher.
type Config struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// Publisher writes one Kafka message per escalation event, keyed by event ID.
type Publisher struct {
	topic  string
	writer messageWriter
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
}

var _ secondary.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a publisher backed by a kafka.Writer.
func NewPublisher(cfg Config, logger *zap.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		WriteTimeout:           writeTimeout,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: false,
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("kafka publisher created",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic))

	return newPublisher(cfg.Topic, writer, logger), nil
}

func newPublisher(topic string, writer messageWriter, logger *zap.Logger) *Publisher {
	return &Publisher{topic: topic, writer: writer, logger: logger.Named("kafka")}
}

// Name implements secondary.EventPublisher.
func (p *Publisher) Name() string { return "kafka" }

// Publish implements secondary.EventPublisher.
func (p *Publisher) Publish(ctx context.Context, event secondary.Event) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return errors.New("kafka publisher is closed")
	}

	msg := kafka.Message{
		Key:   []byte(event.ID),
		Value: event.Data,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(event.Name)},
			{Key: "channel", Value: []byte(event.Channel)},
			{Key: "content-type", Value: []byte("application/json")},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write %s to %s: %w", event.Name, p.topic, err)
	}
	return nil
}

// Close flushes pending messages and releases the writer.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}
