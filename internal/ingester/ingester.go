// Package ingester consumes alert events from Kafka and archives them in ClickHouse.
// It handles batching, insert retry and graceful shutdown.
package ingester

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"

	appmodels "github.com/navid-fn/listing-radar/internal/models"
	"github.com/navid-fn/listing-radar/internal/publisher"
	"github.com/navid-fn/listing-radar/internal/storage/models"
)

// Reader is the subset of *kafka.Consumer the ingester uses.
type Reader interface {
	ReadMessage(timeout time.Duration) (*kafka.Message, error)
	CommitMessage(m *kafka.Message) ([]kafka.TopicPartition, error)
}

// AlertStorage persists archived alerts.
type AlertStorage interface {
	CreateAlerts(ctx context.Context, alerts []*models.ListingAlert) error
}

// Config holds ingester configuration parameters.
type Config struct {
	// BatchSize is the maximum number of alerts to accumulate before flushing to DB.
	BatchSize int

	// BatchTimeout is the maximum time to wait before flushing, even if batch isn't full.
	BatchTimeout time.Duration
}

// Ingester consumes alert events and writes them to ClickHouse in batches.
// Offsets are committed only after a successful insert (at-least-once).
type Ingester struct {
	reader  Reader
	storage AlertStorage
	logger  logrus.FieldLogger
	cfg     Config
}

func NewIngester(reader Reader, storage AlertStorage, logger logrus.FieldLogger, cfg Config) *Ingester {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 5 * time.Second
	}
	return &Ingester{
		reader:  reader,
		storage: storage,
		logger:  logger,
		cfg:     cfg,
	}
}

// Start runs the ingestion loop until ctx is cancelled, then flushes what is buffered.
func (ig *Ingester) Start(ctx context.Context) error {
	ig.logger.WithField("batch_size", ig.cfg.BatchSize).Info("Starting Ingester Loop")

	batch := make([]*models.ListingAlert, 0, ig.cfg.BatchSize)
	// last message per partition, committed after the batch is stored
	pending := make(map[int32]*kafka.Message)
	lastFlush := time.Now()

	flush := func(ctx context.Context) error {
		for len(batch) > 0 {
			err := ig.storage.CreateAlerts(ctx, batch)
			if err == nil {
				ig.logger.WithField("count", len(batch)).Info("Archived alert batch")
				break
			}
			ig.logger.WithError(err).WithField("count", len(batch)).Error("DB insert failed, retrying in 2s")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}

		for _, m := range pending {
			if _, err := ig.reader.CommitMessage(m); err != nil {
				ig.logger.WithError(err).Warn("Failed to commit offsets")
			}
		}

		batch = batch[:0]
		clear(pending)
		lastFlush = time.Now()
		return nil
	}

	for {
		if ctx.Err() != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return flush(shutdownCtx)
		}

		if time.Since(lastFlush) >= ig.cfg.BatchTimeout {
			if err := flush(ctx); err != nil {
				return err
			}
		}

		m, err := ig.reader.ReadMessage(ig.cfg.BatchTimeout / 5)
		if err != nil {
			var kerr kafka.Error
			if errors.As(err, &kerr) && kerr.Code() == kafka.ErrTimedOut {
				continue
			}
			ig.logger.WithError(err).Error("Kafka read error")
			continue
		}

		alert, err := ParseMessage(m.Value)
		if err != nil {
			ig.logger.WithError(err).WithField("offset", m.TopicPartition.Offset).Warn("Skipping invalid alert event")
			pending[m.TopicPartition.Partition] = m
			continue
		}

		batch = append(batch, alert)
		pending[m.TopicPartition.Partition] = m

		if len(batch) >= ig.cfg.BatchSize {
			if err := flush(ctx); err != nil {
				return err
			}
		}
	}
}

// ParseMessage decodes an alert event and validates the fields the archive needs.
func ParseMessage(value []byte) (*models.ListingAlert, error) {
	var event publisher.AlertEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return nil, fmt.Errorf("invalid alert event: %w", err)
	}
	if event.ID == "" || event.Exchange == "" || event.Ticker == "" {
		return nil, fmt.Errorf("missing required fields: id=%q exchange=%q ticker=%q", event.ID, event.Exchange, event.Ticker)
	}

	added, err := appmodels.ParseDate(event.DateAdded)
	if err != nil {
		return nil, fmt.Errorf("invalid date_added %q: %w", event.DateAdded, err)
	}

	return &models.ListingAlert{
		EventID:      event.ID,
		RunID:        event.RunID,
		Exchange:     event.Exchange,
		Coin:         event.Coin,
		Ticker:       event.Ticker,
		AffiliateURL: event.AffiliateURL,
		DateAdded:    added,
		InsertedAt:   time.Now(),
	}, nil
}
