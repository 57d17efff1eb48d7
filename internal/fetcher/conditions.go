package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/navid-fn/listing-radar/configs"
	"github.com/navid-fn/listing-radar/internal/crawler"
	"github.com/navid-fn/listing-radar/internal/models"
)

type alertCondition struct {
	ID       any    `json:"id"`
	Exchange string `json:"exchange"`
	Currency string `json:"currency"`
}

// Conditions reads active new_coin alert conditions from cryptocurrencyalerting.com.
// The API already returns structured listings, so it bypasses text extraction.
type Conditions struct {
	client *crawler.Client
	cfg    configs.ConditionsConfig
	now    func() time.Time
}

func NewConditions(client *crawler.Client, cfg configs.ConditionsConfig, now func() time.Time) *Conditions {
	if cfg.APIURL == "" {
		cfg.APIURL = configs.DefaultAlertAPIURL
	}
	if now == nil {
		now = time.Now
	}
	return &Conditions{client: client, cfg: cfg, now: now}
}

func (c *Conditions) Name() string { return "conditions" }

func (c *Conditions) Listings(ctx context.Context) ([]models.ListingEvent, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: ALERT_API is missing", ErrMissingConfig)
	}

	endpoint := strings.TrimRight(c.cfg.APIURL, "/") + "/v1/alert-conditions?type=new_coin"
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.cfg.APIKey, "")
	req.Header.Set("Content-Type", "application/json")

	var conditions []alertCondition
	if err := c.client.DoJSON(ctx, req, &conditions); err != nil {
		return nil, fmt.Errorf("failed to fetch coin listing alerts: %w", err)
	}

	today := models.FormatDate(c.now())
	events := make([]models.ListingEvent, 0, len(conditions))
	for _, cond := range conditions {
		if cond.Exchange == "" {
			continue
		}
		coin := cond.Currency
		if coin == "" {
			coin = "Unknown"
		}
		events = append(events, models.ListingEvent{
			Coin:      coin,
			Ticker:    coin,
			Exchange:  cond.Exchange,
			DateAdded: today,
		})
	}
	return events, nil
}
