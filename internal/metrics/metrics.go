package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_radar_runs_total",
		Help: "Total number of pipeline runs by result",
	}, []string{"result"})

	MessagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listing_radar_messages_fetched_total",
		Help: "Total number of channel messages fetched",
	})

	ListingsExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listing_radar_listings_extracted_total",
		Help: "Total number of listing events extracted",
	})

	AlertsMatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listing_radar_alerts_matched_total",
		Help: "Total number of new alerts matched against the directory",
	})

	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_radar_errors_total",
		Help: "Total number of errors by stage",
	}, []string{"stage"})

	StoreAlerts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "listing_radar_store_alerts",
		Help: "Number of alerts in the store after the last save",
	})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "listing_radar_run_duration_seconds",
		Help:    "Duration of pipeline runs",
		Buckets: prometheus.DefBuckets,
	})
)
