package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/asesor-publico/noticias/internal/config"
	"github.com/asesor-publico/noticias/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer announces published reports on a Kafka topic.
// It implements pipeline.Sink.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured announcement topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		WriteTimeout:           cfg.RequestTimeout,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "kafka" }

// Publish writes one announcement keyed by locality and civil day, so all
// announcements of a locality land on the same partition.
func (w *Writer) Publish(ctx context.Context, loc domain.LocalityContext, record domain.ReportRecord, dateKey string) error {
	msg, err := serializeToMessage(loc.ID, dateKey, record)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write announcement: %w", err)
	}
	w.logger.Debug("report announced", "locality", loc.ID, "key", string(msg.Key))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ReportRecord into a Kafka message.
func serializeToMessage(localityID, dateKey string, record domain.ReportRecord) (kafkago.Message, error) {
	data, err := domain.MarshalRecord(record)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(localityID + ":" + dateKey),
		Value: data,
		Time:  lastUpdated(record),
		Headers: []kafkago.Header{
			{Key: "locality", Value: []byte(localityID)},
			{Key: "report_date", Value: []byte(dateKey)},
			{Key: "last_updated", Value: []byte(record.LastUpdated)},
		},
	}, nil
}

func lastUpdated(record domain.ReportRecord) time.Time {
	t, err := time.Parse(time.RFC3339, record.LastUpdated)
	if err != nil {
		return time.Time{}
	}
	return t
}
