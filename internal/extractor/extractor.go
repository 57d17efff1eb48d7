// Package extractor turns listing announcement messages into structured listing events.
package extractor

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/navid-fn/listing-radar/internal/models"
)

// markupLink matches chat link markup like <https://x.io|Foo> and keeps the label.
var markupLink = regexp.MustCompile(`<[^|>]+\|([^>]+)>`)

// Pattern captures coin, ticker and exchange, in that order.
type Pattern struct {
	Name        string
	Regex       *regexp.Regexp
	StripMarkup bool
	Description string
}

func (p *Pattern) String() string {
	return fmt.Sprintf("%s (%s): %s", p.Name, p.Description, p.Regex)
}

// Presets are keyed by the transport whose message format they fit.
var Presets = map[string]*Pattern{
	// Foo (FOO) has been listed on Binance - more details
	"slack": {
		Name:        "slack",
		Regex:       regexp.MustCompile(`(.+?) \((.+?)\) .* listed on (.+?) -`),
		StripMarkup: true,
		Description: "Exchange terminated by a hyphen, link markup stripped",
	},
	// Foo (FOO) has been listed on Binance (spot)
	"discord": {
		Name:        "discord",
		Regex:       regexp.MustCompile(`(.+?) \((.+?)\) .* listed on (.+?) \(`),
		Description: "Exchange terminated by an opening parenthesis",
	},
}

// ResolvePattern returns the preset called name, or compiles name as a custom regex.
// An empty name selects the preset for fallback.
func ResolvePattern(name, fallback string) (*Pattern, error) {
	if name == "" {
		name = fallback
	}
	if p, ok := Presets[strings.ToLower(name)]; ok {
		return p, nil
	}

	re, err := regexp.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("invalid extraction pattern: %w", err)
	}
	if re.NumSubexp() != 3 {
		return nil, fmt.Errorf("extraction pattern must have 3 capture groups, got %d", re.NumSubexp())
	}
	return &Pattern{Name: "custom", Regex: re, StripMarkup: true, Description: "Custom pattern"}, nil
}

// Extractor applies one pattern to each message independently.
type Extractor struct {
	pattern *Pattern
	now     func() time.Time
}

func New(pattern *Pattern, now func() time.Time) *Extractor {
	if now == nil {
		now = time.Now
	}
	return &Extractor{pattern: pattern, now: now}
}

// Pattern returns the pattern in use.
func (e *Extractor) Pattern() *Pattern { return e.pattern }

// Extract returns one event per matching message, in input order.
// Messages that do not match are skipped.
func (e *Extractor) Extract(messages []string) []models.ListingEvent {
	today := models.FormatDate(e.now())

	events := make([]models.ListingEvent, 0, len(messages))
	for _, msg := range messages {
		event, ok := e.parse(msg)
		if !ok {
			continue
		}
		event.DateAdded = today
		events = append(events, event)
	}
	return events
}

func (e *Extractor) parse(msg string) (models.ListingEvent, bool) {
	if e.pattern.StripMarkup {
		msg = StripMarkup(msg)
	}

	matches := e.pattern.Regex.FindStringSubmatch(msg)
	if len(matches) < 4 {
		return models.ListingEvent{}, false
	}

	return models.ListingEvent{
		Coin:     strings.TrimSpace(matches[1]),
		Ticker:   strings.TrimSpace(matches[2]),
		Exchange: strings.TrimSpace(matches[3]),
	}, true
}

// StripMarkup rewrites <target|label> link markup to its label.
func StripMarkup(msg string) string {
	return markupLink.ReplaceAllString(msg, "$1")
}
