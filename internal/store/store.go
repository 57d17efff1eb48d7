// Package store persists matched alerts as a JSON array on local disk.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"

	"github.com/navid-fn/listing-radar/internal/models"
)

// ErrLocked means another run holds the store lock.
var ErrLocked = errors.New("alert store is locked by another run")

type Store struct {
	path          string
	retentionDays int
	logger        logrus.FieldLogger
}

func New(path string, retentionDays int, logger logrus.FieldLogger) *Store {
	if retentionDays <= 0 {
		retentionDays = 3
	}
	return &Store{path: path, retentionDays: retentionDays, logger: logger.WithField("store", path)}
}

func (s *Store) Path() string { return s.path }

// Lock takes the advisory lock next to the store file without blocking.
// The returned func releases it.
func (s *Store) Lock() (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, err
	}

	fl := flock.New(s.path + ".lock")
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock store: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return fl.Unlock, nil
}

// Load reads the persisted alerts and drops entries outside the retention window.
// A missing file is an empty store.
func (s *Store) Load(now time.Time) ([]models.MatchedAlert, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.MatchedAlert{}, nil
		}
		return nil, err
	}

	var alerts []models.MatchedAlert
	if err := json.Unmarshal(b, &alerts); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}

	fresh, expired, invalid := Expire(alerts, now, s.retentionDays)
	if expired > 0 {
		s.logger.WithField("expired", expired).Info("Dropped stale alerts")
	}
	if invalid > 0 {
		s.logger.WithField("invalid", invalid).Warn("Dropped alerts with unparsable date_added")
	}
	return fresh, nil
}

// Save sorts alerts newest first and replaces the store file atomically.
func (s *Store) Save(alerts []models.MatchedAlert) error {
	if alerts == nil {
		alerts = []models.MatchedAlert{}
	}
	SortNewestFirst(alerts)

	b, err := json.MarshalIndent(alerts, "", "    ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmpName := s.path + ".tmp"
	tmp, err := os.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpName)

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}

// Expire keeps alerts dated on or after today minus days (UTC calendar dates).
func Expire(alerts []models.MatchedAlert, now time.Time, days int) (fresh []models.MatchedAlert, expired, invalid int) {
	cutoff := models.Today(now).AddDate(0, 0, -days)

	fresh = make([]models.MatchedAlert, 0, len(alerts))
	for _, a := range alerts {
		added, err := models.ParseDate(a.DateAdded)
		if err != nil {
			invalid++
			continue
		}
		if added.Before(cutoff) {
			expired++
			continue
		}
		fresh = append(fresh, a)
	}
	return fresh, expired, invalid
}

// Merge appends newly matched alerts after the existing ones.
func Merge(existing, matched []models.MatchedAlert) []models.MatchedAlert {
	merged := make([]models.MatchedAlert, 0, len(existing)+len(matched))
	merged = append(merged, existing...)
	return append(merged, matched...)
}

// SortNewestFirst orders by date_added descending; equal dates keep their order.
func SortNewestFirst(alerts []models.MatchedAlert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].DateAdded > alerts[j].DateAdded
	})
}
