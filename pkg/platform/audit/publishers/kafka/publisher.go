// Package kafka publishes audit events to a Kafka topic for downstream
// SIEM and compliance consumers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"trustgate/pkg/platform/audit"
)

// Publisher produces audit events to a single topic, keyed by actor so one
// subject's trail stays ordered within a partition.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// New connects to the brokers and ensures the audit topic exists.
func New(brokers []string, topic string, opts ...Option) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	p := &Publisher{client: client, topic: topic}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.ensureTopic(context.Background()); err != nil {
		client.Close()
		return nil, err
	}

	return p, nil
}

// ensureTopic creates the audit topic if it does not exist yet.
func (p *Publisher) ensureTopic(ctx context.Context) error {
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopics(ctx, 1, 1, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	for _, result := range resp {
		if result.Err != nil && !strings.Contains(result.Err.Error(), "TOPIC_ALREADY_EXISTS") {
			return fmt.Errorf("create audit topic %s: %w", result.Topic, result.Err)
		}
	}
	return nil
}

// Emit produces one event asynchronously. Delivery failures are logged, not
// returned: the local audit store remains the source of truth.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.Actor),
		Value: payload,
	}

	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil && p.logger != nil {
			p.logger.Warn("audit event delivery failed",
				"action", string(event.Action),
				"error", err,
			)
		}
	})
	return nil
}

// Close flushes pending records and closes the client.
func (p *Publisher) Close(ctx context.Context) error {
	if err := p.client.Flush(ctx); err != nil {
		return err
	}
	p.client.Close()
	return nil
}
