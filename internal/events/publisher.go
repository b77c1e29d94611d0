// Package events provides UI event delivery and downstream event publishing.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"meeting-insight-service/internal/observability/metrics"
)

// Publisher publishes transcript lines and summaries to separate Kafka
// topics for downstream consumers. When disabled it runs in log-only mode.
type Publisher struct {
	writerTranscript *kafka.Writer
	writerSummary    *kafka.Writer
	principal        string
	topicTranscript  string
	topicSummary     string
	enabled          bool
	metrics          *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers         []string
	TopicTranscript string
	TopicSummary    string
	Principal       string
	Enabled         bool
}

// New creates a Kafka event publisher with separate topics for transcript
// lines and summaries.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:       cfg.Principal,
			topicTranscript: cfg.TopicTranscript,
			topicSummary:    cfg.TopicSummary,
			enabled:         false,
			metrics:         m,
		}
	}

	// Longer dial timeouts for DNS resolution in Kubernetes.
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	writerTranscript := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicTranscript,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	writerSummary := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicSummary,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicTranscript", cfg.TopicTranscript).
		Str("topicSummary", cfg.TopicSummary).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerTranscript: writerTranscript,
		writerSummary:    writerSummary,
		principal:        cfg.Principal,
		topicTranscript:  cfg.TopicTranscript,
		topicSummary:     cfg.TopicSummary,
		enabled:          true,
		metrics:          m,
	}
}

// PublishTranscript publishes one transcript line keyed by session.
func (p *Publisher) PublishTranscript(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerTranscript, p.topicTranscript, key, event)
}

// PublishSummary publishes a partial or final summary keyed by session.
func (p *Publisher) PublishSummary(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerSummary, p.topicSummary, key, event)
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	// If Kafka is disabled, just log.
	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(topic)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerTranscript != nil {
		if e := p.writerTranscript.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing transcript writer")
			err = e
		}
	}
	if p.writerSummary != nil {
		if e := p.writerSummary.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing summary writer")
			err = e
		}
	}
	return err
}
