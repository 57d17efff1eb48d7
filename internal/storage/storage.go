// Package storage archives matched alerts in ClickHouse.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"

	appmodels "github.com/navid-fn/listing-radar/internal/models"
	"github.com/navid-fn/listing-radar/internal/storage/models"
)

// Storage persists archived alerts.
// Implementations must be safe for concurrent use.
type Storage interface {
	// CreateAlerts inserts a batch of alerts into the database.
	CreateAlerts(ctx context.Context, alerts []*models.ListingAlert) error

	// Close releases database connection resources.
	Close() error
}

// clickhouseStorage implements Storage using the native ClickHouse driver.
type clickhouseStorage struct {
	conn driver.Conn
}

// NewClickHouseStorage parses the DSN, opens a connection and verifies it with a ping.
// Returns an error if connection cannot be established within 5 seconds.
func NewClickHouseStorage(dsn string) (Storage, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Ping(ctx); err != nil {
		return nil, err
	}

	return &clickhouseStorage{conn: conn}, nil
}

// CreateAlerts inserts alerts using ClickHouse batch insert.
// All rows in the batch share the same inserted_at timestamp.
func (s *clickhouseStorage) CreateAlerts(ctx context.Context, alerts []*models.ListingAlert) error {
	if len(alerts) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO listing_alert (
			event_id, run_id, exchange, coin, ticker,
			affiliate_url, date_added, inserted_at
		)
	`)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, a := range alerts {
		err := batch.Append(
			a.EventID,
			a.RunID,
			a.Exchange,
			a.Coin,
			a.Ticker,
			a.AffiliateURL,
			a.DateAdded,
			now,
		)
		if err != nil {
			return err
		}
	}

	return batch.Send()
}

// Close closes the ClickHouse connection.
func (s *clickhouseStorage) Close() error {
	return s.conn.Close()
}

// FromMatched converts matched alerts to archive rows tagged with runID.
func FromMatched(runID string, alerts []appmodels.MatchedAlert) ([]*models.ListingAlert, error) {
	rows := make([]*models.ListingAlert, 0, len(alerts))
	for _, a := range alerts {
		added, err := appmodels.ParseDate(a.DateAdded)
		if err != nil {
			return nil, fmt.Errorf("alert %s on %s: %w", a.Ticker, a.Exchange, err)
		}
		rows = append(rows, &models.ListingAlert{
			EventID:      uuid.NewString(),
			RunID:        runID,
			Exchange:     a.Exchange,
			Coin:         a.Coin,
			Ticker:       a.Ticker,
			AffiliateURL: a.AffiliateURL,
			DateAdded:    added,
		})
	}
	return rows, nil
}
