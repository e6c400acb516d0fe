package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"pair-analysis/src/logger"
	"pair-analysis/src/models"

	"github.com/segmentio/kafka-go"
)

const (
	DefaultTopic = "pair-analysis.runs"
	writeTimeout = 5 * time.Second
)

// MessageWriter is the part of kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher forwards run events to a Kafka topic as JSON, keyed by run id.
type KafkaPublisher struct {
	writer MessageWriter
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

// NewKafkaPublisher builds an asynchronous writer for cfg. It returns nil
// when no brokers are configured.
func NewKafkaPublisher(cfg models.MEventsConfig, log *logger.Logger) *KafkaPublisher {
	brokers := splitBrokers(cfg.KafkaBrokers)
	if len(brokers) == 0 {
		return nil
	}
	topic := cfg.KafkaTopic
	if topic == "" {
		topic = DefaultTopic
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    16,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Compression:  kafka.Zstd,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				log.Warning("Failed to deliver %d run events: %v", len(msgs), err)
			}
		},
	}
	log.Info("Publishing run events to %s on %v", topic, brokers)
	return NewPublisherWithWriter(w, log)
}

func NewPublisherWithWriter(w MessageWriter, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, Logger: log}
}

func splitBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// -----------------------------------------------------------------------------

func (p *KafkaPublisher) OnRunEvent(event models.MRunEvent) {
	if err := p.Publish(context.Background(), event); err != nil {
		p.Logger.Warning("%v", err)
	}
}

// Publish writes one event. Delivery errors of the async writer are logged
// by its completion callback.
func (p *KafkaPublisher) Publish(ctx context.Context, event models.MRunEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode run event: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(writeCtx, kafka.Message{Key: []byte(event.RunID), Value: data}); err != nil {
		return fmt.Errorf("kafka write failed: %w", err)
	}
	return nil
}

// Close flushes pending events.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
