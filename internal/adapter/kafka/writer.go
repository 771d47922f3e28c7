// Package kafka publishes scored country-year records to a Kafka topic so
// downstream consumers can pick up each transform run.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/climate-risk-dashboard/internal/config"
	"github.com/couchcryptid/climate-risk-dashboard/internal/domain"
	"github.com/couchcryptid/climate-risk-dashboard/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces one message per scored record.
// It implements pipeline.Loader.
type Writer struct {
	writer  messageWriter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured score topic.
func NewWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, metrics: metrics, logger: logger}
}

// Name identifies the loader in logs and metrics.
func (w *Writer) Name() string { return "kafka" }

// Load publishes every record of the run in a single WriteMessages call.
// Records are keyed by country so a country's history stays on one partition.
func (w *Writer) Load(ctx context.Context, ds domain.ScoredDataset) error {
	if len(ds.Records) == 0 {
		return nil
	}
	scoredAt := domain.NewManifest(ds).GeneratedAt

	msgs := make([]kafkago.Message, len(ds.Records))
	for i := range ds.Records {
		msg, err := serializeToMessage(ds.Records[i], ds.Source, ds.RunID, scoredAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish scores: %w", err)
	}

	w.metrics.RecordsPublished.Add(float64(len(msgs)))
	w.logger.Info("scores published", "records", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a CountryYearRecord into a Kafka message.
func serializeToMessage(rec domain.CountryYearRecord, source, runID string, scoredAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record %s/%d: %w", rec.Country, rec.Year, err)
	}
	return kafkago.Message{
		Key:   []byte(rec.Country),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "year", Value: []byte(strconv.Itoa(rec.Year))},
			{Key: "source", Value: []byte(source)},
			{Key: "scored_at", Value: []byte(scoredAt.Format(time.RFC3339))},
			{Key: "run_id", Value: []byte(runID)},
		},
	}, nil
}
