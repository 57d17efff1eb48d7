// Package models defines the domain models used across the application.
package models

import "time"

// DateLayout is the on-disk format of DateAdded.
const DateLayout = "2006-01-02"

// Directory maps an exchange display name to its affiliate URL.
// Keys are case-sensitive.
type Directory map[string]string

// ListingEvent is a listing parsed out of a channel message or reported by an alert API.
type ListingEvent struct {
	// Coin is the display name (e.g., "Foo Protocol").
	Coin string `json:"coin"`

	// Ticker is the symbol inside the parentheses (e.g., "FOO").
	Ticker string `json:"ticker"`

	// Exchange is the venue named after "listed on".
	Exchange string `json:"exchange"`

	// DateAdded is the UTC extraction date, YYYY-MM-DD.
	DateAdded string `json:"date_added"`
}

// Key returns the identity key of the event.
func (e ListingEvent) Key() AlertKey {
	return AlertKey{Coin: e.Coin, Ticker: e.Ticker, Exchange: e.Exchange}
}

// MatchedAlert is the persisted unit of the alert store.
type MatchedAlert struct {
	Exchange     string `json:"exchange"`
	Coin         string `json:"coin"`
	Ticker       string `json:"ticker"`
	AffiliateURL string `json:"affiliate_url"`
	DateAdded    string `json:"date_added"`
}

// Key returns the identity key of the alert.
func (a MatchedAlert) Key() AlertKey {
	return AlertKey{Coin: a.Coin, Ticker: a.Ticker, Exchange: a.Exchange}
}

// AlertKey identifies duplicate alerts.
type AlertKey struct {
	Coin     string
	Ticker   string
	Exchange string
}

// FormatDate renders t as a UTC calendar date.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// Today truncates t to its UTC calendar date.
func Today(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
