// Package matcher joins extracted listings with the exchange directory and drops duplicates.
package matcher

import "github.com/navid-fn/listing-radar/internal/models"

// Match keeps events whose exchange is in dir and whose identity key is not already in
// existing, attaching the exchange's affiliate URL. Repeats within events are dropped too,
// first one wins. Input order is preserved.
func Match(events []models.ListingEvent, dir models.Directory, existing []models.MatchedAlert) []models.MatchedAlert {
	seen := make(map[models.AlertKey]struct{}, len(existing)+len(events))
	for _, a := range existing {
		seen[a.Key()] = struct{}{}
	}

	matched := make([]models.MatchedAlert, 0, len(events))
	for _, e := range events {
		url, ok := dir[e.Exchange]
		if !ok {
			continue
		}
		key := e.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		matched = append(matched, models.MatchedAlert{
			Exchange:     e.Exchange,
			Coin:         e.Coin,
			Ticker:       e.Ticker,
			AffiliateURL: url,
			DateAdded:    e.DateAdded,
		})
	}
	return matched
}
