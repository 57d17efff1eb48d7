package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/navid-fn/listing-radar/configs"
	"github.com/navid-fn/listing-radar/internal/crawler"
	"github.com/navid-fn/listing-radar/internal/extractor"
	"github.com/navid-fn/listing-radar/internal/fetcher"
	"github.com/navid-fn/listing-radar/internal/metrics"
	"github.com/navid-fn/listing-radar/internal/models"
)

// ListingSource yields the listing events of one poll.
type ListingSource interface {
	Listings(ctx context.Context) ([]models.ListingEvent, error)
	Name() string
}

// MessageSource fetches channel messages and extracts listings from their text.
type MessageSource struct {
	Fetcher   fetcher.MessageFetcher
	Extractor *extractor.Extractor

	fetched int
}

func (s *MessageSource) Name() string { return s.Fetcher.Name() }

func (s *MessageSource) Listings(ctx context.Context) ([]models.ListingEvent, error) {
	s.fetched = 0

	messages, err := s.Fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	s.fetched = len(messages)
	metrics.MessagesFetched.Add(float64(len(messages)))

	return s.Extractor.Extract(messages), nil
}

// Fetched returns how many messages the last Listings call read.
func (s *MessageSource) Fetched() int { return s.fetched }

// presets maps each text transport to its default extraction pattern.
var presets = map[string]string{
	"discord": "discord",
	"slack":   "slack",
	"webhook": "slack",
}

// PresetFor returns the default pattern preset of a text transport.
func PresetFor(transport string) string {
	if preset, ok := presets[transport]; ok {
		return preset
	}
	return "slack"
}

// NewSource builds the listing source selected by cfg.Transport.
func NewSource(cfg *configs.AppConfig, client *crawler.Client, logger logrus.FieldLogger, now func() time.Time) (ListingSource, error) {
	var f fetcher.MessageFetcher
	switch cfg.Transport {
	case "conditions":
		return fetcher.NewConditions(client, cfg.Conditions, now), nil
	case "discord":
		f = fetcher.NewDiscord(client, cfg.Discord, logger)
	case "slack":
		f = fetcher.NewSlack(client, cfg.Slack)
	case "webhook":
		f = fetcher.NewWebhook(client, cfg.Webhook)
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}

	pattern, err := extractor.ResolvePattern(cfg.ExtractPattern, PresetFor(cfg.Transport))
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"transport": cfg.Transport,
		"pattern":   pattern.Name,
		"format":    pattern.Description,
	}).Debug("Listing source configured")

	return &MessageSource{Fetcher: f, Extractor: extractor.New(pattern, now)}, nil
}
