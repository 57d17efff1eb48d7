package model

import "time"

type ListingAlert struct {
	EventID      string    `gorm:"column:event_id;primaryKey" json:"event_id"`
	RunID        string    `gorm:"column:run_id" json:"run_id"`
	Exchange     string    `gorm:"column:exchange;type:LowCardinality(String)" json:"exchange"`
	Coin         string    `gorm:"column:coin" json:"coin"`
	Ticker       string    `gorm:"column:ticker" json:"ticker"`
	AffiliateURL string    `gorm:"column:affiliate_url" json:"affiliate_url"`
	DateAdded    time.Time `gorm:"column:date_added;type:Date" json:"date_added"`
	InsertedAt   time.Time `gorm:"column:inserted_at;type:DateTime;default:now()" json:"inserted_at"`
}

func (ListingAlert) TableName() string {
	return "listing_alert"
}

func (ListingAlert) TableOptions() string {
	return "ENGINE = ReplacingMergeTree(inserted_at) ORDER BY (exchange, ticker, coin)"
}
