package service

import (
	"errors"
	"strings"
	"time"

	"github.com/navid-fn/listing-radar/internal/models"
	"github.com/navid-fn/listing-radar/internal/store"
	"github.com/navid-fn/listing-radar/server/internal/model"
	"github.com/navid-fn/listing-radar/server/internal/repository"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// ErrArchiveDisabled is returned by archive queries when no database is configured.
var ErrArchiveDisabled = errors.New("alert archive is not configured")

type AlertsService struct {
	store *store.Store
	repo  repository.AlertRepository
	now   func() time.Time
}

// NewAlertsService serves current alerts from st and history from repo. repo may be nil.
func NewAlertsService(st *store.Store, repo repository.AlertRepository, now func() time.Time) *AlertsService {
	if now == nil {
		now = time.Now
	}
	return &AlertsService{
		store: st,
		repo:  repo,
		now:   now,
	}
}

// GetCurrentAlerts reads the alert file with retention applied.
// An empty exchange returns every alert.
func (as *AlertsService) GetCurrentAlerts(exchange string) ([]models.MatchedAlert, error) {
	alerts, err := as.store.Load(as.now())
	if err != nil {
		return nil, err
	}
	if exchange == "" {
		return alerts, nil
	}

	filtered := make([]models.MatchedAlert, 0, len(alerts))
	for _, a := range alerts {
		if strings.EqualFold(a.Exchange, exchange) {
			filtered = append(filtered, a)
		}
	}
	return filtered, nil
}

func (as *AlertsService) GetHistory(exchange string, limit int) ([]model.ListingAlert, error) {
	if as.repo == nil {
		return nil, ErrArchiveDisabled
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return as.repo.GetLatestAlerts(exchange, limit)
}

func (as *AlertsService) GetCountPerExchange() (map[string]int, error) {
	if as.repo == nil {
		return nil, ErrArchiveDisabled
	}
	return as.repo.GetAlertCountGroupByExchange()
}
