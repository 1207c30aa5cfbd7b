// Package kafka publishes annotated event records to the downstream topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"agegate/internal/event"
	"agegate/internal/logger"
	"agegate/internal/metrics"
)

// Producer errors
var (
	ErrProducerClosed  = errors.New("producer is closed")
	ErrSerializeFailed = errors.New("failed to serialize record")
)

// ProducerConfig tunes the Kafka writer.
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	WriteTimeout time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// Producer publishes record batches to Kafka with retry.
type Producer struct {
	cfg    ProducerConfig
	writer *kafka.Writer
	closed atomic.Bool

	sent   atomic.Uint64
	failed atomic.Uint64
}

// NewProducer creates a Kafka producer for annotated records.
func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("topic is required")
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // partition by key
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  cfg.MaxRetries + 1,
		Async:        false,
	}

	return &Producer{cfg: cfg, writer: writer}, nil
}

// PublishBatch sends a batch of records to Kafka. Records are keyed by
// their source field so events from one origin stay ordered.
func (p *Producer) PublishBatch(ctx context.Context, records []*event.Record) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if len(records) == 0 {
		return nil
	}

	log := logger.WithComponent("kafka_producer")
	start := time.Now()

	messages := make([]kafka.Message, 0, len(records))
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			log.Error().Err(fmt.Errorf("%w: %v", ErrSerializeFailed, err)).Msg("dropping record")
			p.failed.Add(1)
			metrics.KafkaPublishTotal.WithLabelValues("failed").Inc()
			continue
		}

		messages = append(messages, kafka.Message{
			Key:   partitionKey(rec),
			Value: data,
			Time:  time.Now().UTC(),
		})
	}

	if len(messages) == 0 {
		return nil
	}

	err := p.publishWithRetry(ctx, messages)
	duration := time.Since(start)
	metrics.KafkaPublishDuration.Observe(duration.Seconds())

	if err != nil {
		log.Error().
			Err(err).
			Int("batch_size", len(messages)).
			Dur("duration", duration).
			Msg("failed to publish batch to kafka")
		p.failed.Add(uint64(len(messages)))
		metrics.KafkaPublishTotal.WithLabelValues("failed").Add(float64(len(messages)))
		return err
	}

	log.Debug().
		Int("batch_size", len(messages)).
		Dur("duration", duration).
		Msg("batch published to kafka")
	p.sent.Add(uint64(len(messages)))
	metrics.KafkaPublishTotal.WithLabelValues("success").Add(float64(len(messages)))
	return nil
}

// publishWithRetry writes messages with exponential backoff retry.
func (p *Producer) publishWithRetry(ctx context.Context, messages []kafka.Message) error {
	log := logger.WithComponent("kafka_producer")
	var lastErr error
	backoff := p.cfg.RetryBackoff

	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			log.Warn().
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("retrying kafka publish")
			metrics.KafkaPublishRetries.Inc()

			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := p.writer.WriteMessages(ctx, messages...)
		if err == nil {
			return nil
		}

		lastErr = err
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", p.cfg.MaxRetries+1, lastErr)
}

// partitionKey keys messages by the record's source field when present.
func partitionKey(rec *event.Record) []byte {
	if v, ok := rec.Get("source"); ok {
		if s, ok := v.(string); ok && s != "" {
			return []byte(s)
		}
	}
	return nil // let the balancer spread keyless records
}

// Close closes the writer. Safe to call more than once.
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.writer.Close()
}

// Stats returns producer counters.
func (p *Producer) Stats() Stats {
	return Stats{Sent: p.sent.Load(), Failed: p.failed.Load()}
}

// Stats holds producer metrics
type Stats struct {
	Sent   uint64
	Failed uint64
}
