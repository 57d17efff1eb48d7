// Package pipeline runs one poll: directory, fetch, extract, match, persist and fan out.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/navid-fn/listing-radar/internal/directory"
	"github.com/navid-fn/listing-radar/internal/fetcher"
	"github.com/navid-fn/listing-radar/internal/matcher"
	"github.com/navid-fn/listing-radar/internal/metrics"
	"github.com/navid-fn/listing-radar/internal/models"
	"github.com/navid-fn/listing-radar/internal/storage"
	storagemodels "github.com/navid-fn/listing-radar/internal/storage/models"
	"github.com/navid-fn/listing-radar/internal/store"
)

// Publisher receives alerts that were newly added to the store.
type Publisher interface {
	Publish(ctx context.Context, runID string, alerts []models.MatchedAlert) error
}

// Archive keeps a permanent copy of newly added alerts.
type Archive interface {
	CreateAlerts(ctx context.Context, alerts []*storagemodels.ListingAlert) error
}

// Pipeline wires the run stages together. Publisher and Archive are optional.
type Pipeline struct {
	Directory directory.Loader
	Source    ListingSource
	Store     *store.Store
	Publisher Publisher
	Archive   Archive
	Logger    logrus.FieldLogger
	Clock     func() time.Time
}

// Result summarizes one run.
type Result struct {
	RunID     string
	Exchanges int
	Messages  int
	Listings  int
	Matched   int
	Stored    int
}

// Run executes one pass. Only ErrChannelNotFound and ErrLocked are returned;
// other stage failures are logged and treated as empty input.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	res := Result{RunID: uuid.NewString()}
	log := p.Logger.WithFields(logrus.Fields{
		"run_id":    res.RunID,
		"transport": p.Source.Name(),
	})

	err := p.run(ctx, log, &res)

	metrics.RunDuration.Observe(time.Since(start).Seconds())
	switch {
	case errors.Is(err, store.ErrLocked):
		metrics.RunsTotal.WithLabelValues("skipped").Inc()
	case err != nil:
		metrics.RunsTotal.WithLabelValues("aborted").Inc()
	default:
		metrics.RunsTotal.WithLabelValues("ok").Inc()
	}
	return res, err
}

func (p *Pipeline) run(ctx context.Context, log logrus.FieldLogger, res *Result) error {
	dir, err := p.Directory.Load(ctx)
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("directory").Inc()
		log.WithError(err).WithField("loader", p.Directory.Name()).Warn("Failed to load exchange directory")
	}
	res.Exchanges = len(dir)
	if len(dir) == 0 {
		log.Info("No exchanges in directory, nothing to match")
		return nil
	}

	events, err := p.Source.Listings(ctx)
	if ms, ok := p.Source.(*MessageSource); ok {
		res.Messages = ms.Fetched()
	}
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("fetch").Inc()
		if errors.Is(err, fetcher.ErrChannelNotFound) {
			log.WithError(err).Error("Channel not found, aborting run")
			return err
		}
		log.WithError(err).Warn("Failed to fetch listings")
		events = nil
	}
	res.Listings = len(events)
	metrics.ListingsExtracted.Add(float64(len(events)))

	log.WithFields(logrus.Fields{
		"exchanges": res.Exchanges,
		"messages":  res.Messages,
		"listings":  res.Listings,
	}).Info("Fetched listings")

	if len(events) == 0 {
		log.Info("No new alerts found.")
		return nil
	}

	matched, err := p.persist(log, events, dir, res)
	if err != nil {
		return err
	}
	if len(matched) == 0 {
		log.Info("No new alerts found.")
		return nil
	}

	for _, a := range matched {
		log.WithField("affiliate_url", a.AffiliateURL).Infof("Updated alert: %s (%s) on %s", a.Coin, a.Ticker, a.Exchange)
	}

	p.fanOut(ctx, log, res.RunID, matched)
	return nil
}

// persist matches events under the store lock and saves the merged alerts.
func (p *Pipeline) persist(log logrus.FieldLogger, events []models.ListingEvent, dir models.Directory, res *Result) ([]models.MatchedAlert, error) {
	unlock, err := p.Store.Lock()
	if err != nil {
		if errors.Is(err, store.ErrLocked) {
			log.Warn("Alert store is locked by another run, skipping")
			return nil, err
		}
		metrics.ErrorsTotal.WithLabelValues("store").Inc()
		log.WithError(err).Error("Failed to lock alert store")
		return nil, nil
	}
	defer func() {
		if err := unlock(); err != nil {
			log.WithError(err).Warn("Failed to release store lock")
		}
	}()

	existing, err := p.Store.Load(p.now())
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("store").Inc()
		log.WithError(err).Warn("Failed to load alert store, starting empty")
		existing = []models.MatchedAlert{}
	}
	res.Stored = len(existing)

	matched := matcher.Match(events, dir, existing)
	res.Matched = len(matched)
	metrics.AlertsMatched.Add(float64(len(matched)))
	if len(matched) == 0 {
		return nil, nil
	}

	final := store.Merge(existing, matched)
	if err := p.Store.Save(final); err != nil {
		metrics.ErrorsTotal.WithLabelValues("store").Inc()
		log.WithError(err).Error("Failed to save alert store")
		return nil, nil
	}
	res.Stored = len(final)
	metrics.StoreAlerts.Set(float64(len(final)))
	return matched, nil
}

func (p *Pipeline) fanOut(ctx context.Context, log logrus.FieldLogger, runID string, matched []models.MatchedAlert) {
	if p.Publisher != nil {
		if err := p.Publisher.Publish(ctx, runID, matched); err != nil {
			metrics.ErrorsTotal.WithLabelValues("publish").Inc()
			log.WithError(err).Error("Failed to publish alerts")
		}
	}

	if p.Archive != nil {
		rows, err := storage.FromMatched(runID, matched)
		if err == nil {
			err = p.Archive.CreateAlerts(ctx, rows)
		}
		if err != nil {
			metrics.ErrorsTotal.WithLabelValues("archive").Inc()
			log.WithError(err).Error("Failed to archive alerts")
		}
	}
}

func (p *Pipeline) now() time.Time {
	if p.Clock == nil {
		return time.Now()
	}
	return p.Clock()
}

// RunEvery runs a pass immediately and then once per interval until ctx is done.
// A failed pass is logged and the next tick retries.
func (p *Pipeline) RunEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if res, err := p.Run(ctx); err != nil {
			p.Logger.WithError(err).WithField("run_id", res.RunID).Warn("Run did not complete")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
