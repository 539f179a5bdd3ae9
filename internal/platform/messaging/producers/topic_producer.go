package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/startup-investment-ledger/internal/config"
)

// CorrelationHeader carries the request correlation id on produced messages
const CorrelationHeader = "correlation-id"

// TopicProducer publishes JSON values to a single Kafka topic. Writes are
// synchronous so callers only mark work done once the broker acknowledged it.
type TopicProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewInvestmentEventProducer creates the producer used by the outbox poller
// for investment.recorded events
func NewInvestmentEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*TopicProducer, error) {
	return newTopicProducer(ctx, logger, cfg, cfg.InvestmentTopic)
}

// NewReconcileRequestProducer creates the producer that asks the ledger
// worker to reconcile a startup's funding counter
func NewReconcileRequestProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*TopicProducer, error) {
	return newTopicProducer(ctx, logger, cfg, cfg.ReconcileTopic)
}

func newTopicProducer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig, topic string) (*TopicProducer, error) {
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for topic %s: %w", topic, err)
	}
	defer conn.Close()

	err = ensureTopic(conn, topic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure topic %s exists: %w", topic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // Same startup key lands on the same partition
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return &TopicProducer{
		logger: logger,
		writer: writer,
		topic:  topic,
	}, nil
}

// Publish marshals value as JSON and writes it under key
func (p *TopicProducer) Publish(ctx context.Context, key string, value interface{}) error {
	return p.PublishWithCorrelation(ctx, key, value, "")
}

// PublishWithCorrelation is Publish with a correlation-id header when correlationID is set
func (p *TopicProducer) PublishWithCorrelation(ctx context.Context, key string, value interface{}, correlationID string) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message value for topic %s: %w", p.topic, err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}
	if correlationID != "" {
		msg.Headers = []kafka.Header{{Key: CorrelationHeader, Value: []byte(correlationID)}}
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish message",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish message to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published message",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *TopicProducer) Close() error {
	p.logger.Info("Closing Kafka message producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
