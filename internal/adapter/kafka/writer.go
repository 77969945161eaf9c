// Package kafka publishes rendered charts to a Kafka topic, one message per chart.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/couchcryptid/medal-flow-etl/internal/config"
	"github.com/couchcryptid/medal-flow-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes chart documents to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic. Chart
// messages are keyed by chart name, so the Hash balancer keeps every
// revision of a chart on the same partition.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string {
	return "kafka"
}

// Load serializes the dashboard and publishes one message per chart in a
// single WriteMessages call.
func (w *Writer) Load(ctx context.Context, d domain.Dashboard) error {
	charts, err := domain.Serialize(d)
	if err != nil {
		return err
	}
	msgs := make([]kafkago.Message, len(charts))
	for i := range charts {
		msgs[i] = toMessage(charts[i])
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish charts: %w", err)
	}
	w.logger.Debug("charts published", "topic", w.writer.Topic, "render_id", d.RenderID, "messages", len(msgs))
	return nil
}

// Close flushes pending messages and closes the underlying writer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

// toMessage converts a chart message into a Kafka message. Headers are
// emitted in key order so the output is deterministic.
func toMessage(c domain.ChartMessage) kafkago.Message {
	keys := make([]string, 0, len(c.Headers))
	for k := range c.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]kafkago.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(c.Headers[k])})
	}
	return kafkago.Message{
		Key:     c.Key,
		Value:   c.Value,
		Headers: headers,
	}
}
