// Package models defines the archive record types stored in ClickHouse.
package models

import "time"

// ListingAlert is one archived alert row in the listing_alert table.
type ListingAlert struct {
	// EventID is a unique identifier for this archived row.
	EventID string `json:"event_id"`

	// RunID is the pipeline run that matched the alert.
	RunID string `json:"run_id"`

	// Exchange is the venue display name (e.g., "Binance").
	Exchange string `json:"exchange"`

	Coin   string `json:"coin"`
	Ticker string `json:"ticker"`

	// AffiliateURL is the referral link from the exchange directory.
	AffiliateURL string `json:"affiliate_url"`

	// DateAdded is the UTC extraction date.
	DateAdded time.Time `json:"date_added"`

	// InsertedAt is when the record was inserted into our database.
	InsertedAt time.Time `json:"inserted_at"`
}
