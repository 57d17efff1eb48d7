package router

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navid-fn/listing-radar/internal/models"
	"github.com/navid-fn/listing-radar/internal/store"
	"github.com/navid-fn/listing-radar/server/internal/handler"
	"github.com/navid-fn/listing-radar/server/internal/model"
	"github.com/navid-fn/listing-radar/server/internal/repository"
	"github.com/navid-fn/listing-radar/server/internal/service"
)

type fakeAlertRepository struct {
	alerts    []model.ListingAlert
	counts    map[string]int
	err       error
	lastLimit int
	lastExch  string
}

func (f *fakeAlertRepository) GetLatestAlerts(exchange string, limit int) ([]model.ListingAlert, error) {
	f.lastExch = exchange
	f.lastLimit = limit
	return f.alerts, f.err
}

func (f *fakeAlertRepository) GetAlertCountGroupByExchange() (map[string]int, error) {
	return f.counts, f.err
}

var now = func() time.Time { return time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC) }

func newTestRouter(t *testing.T, repo repository.AlertRepository) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	st := store.New(filepath.Join(t.TempDir(), "alerts.json"), 3, logger)
	require.NoError(t, st.Save([]models.MatchedAlert{
		{Exchange: "Binance", Coin: "Foo", Ticker: "FOO", AffiliateURL: "https://aff/binance", DateAdded: "2024-06-05"},
		{Exchange: "OKX", Coin: "Bar", Ticker: "BAR", AffiliateURL: "https://aff/okx", DateAdded: "2024-06-04"},
		{Exchange: "OKX", Coin: "Stale", Ticker: "STL", AffiliateURL: "https://aff/okx", DateAdded: "2024-05-20"},
	}))

	svc := service.NewAlertsService(st, repo, now)
	return NewRouter(&Config{AlertHandler: handler.NewAlertHandler(svc, logger)})
}

func get(r *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestGetCurrentAlerts(t *testing.T) {
	r := newTestRouter(t, nil)

	testCases := []struct {
		name   string
		target string
		coins  []string
	}{
		{name: "All alerts within retention", target: "/v1/alerts", coins: []string{"Foo", "Bar"}},
		{name: "Filtered by exchange", target: "/v1/alerts?exchange=okx", coins: []string{"Bar"}},
		{name: "Unknown exchange", target: "/v1/alerts?exchange=Kraken", coins: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := get(r, tc.target)
			require.Equal(t, http.StatusOK, w.Code)

			var alerts []models.MatchedAlert
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alerts))

			var coins []string
			for _, a := range alerts {
				coins = append(coins, a.Coin)
			}
			assert.Equal(t, tc.coins, coins)
		})
	}
}

func TestHistoryWithoutArchive(t *testing.T) {
	r := newTestRouter(t, nil)

	assert.Equal(t, http.StatusServiceUnavailable, get(r, "/v1/alerts/history").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(r, "/v1/alerts/count").Code)
}

func TestHistory(t *testing.T) {
	repo := &fakeAlertRepository{alerts: []model.ListingAlert{
		{EventID: "e1", Exchange: "Binance", Coin: "Foo", Ticker: "FOO"},
	}}
	r := newTestRouter(t, repo)

	w := get(r, "/v1/alerts/history?exchange=Binance")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Binance", repo.lastExch)
	assert.Equal(t, service.DefaultHistoryLimit, repo.lastLimit)

	var alerts []model.ListingAlert
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alerts))
	require.Len(t, alerts, 1)
	assert.Equal(t, "e1", alerts[0].EventID)

	get(r, "/v1/alerts/history?limit=100000")
	assert.Equal(t, service.MaxHistoryLimit, repo.lastLimit)

	assert.Equal(t, http.StatusBadRequest, get(r, "/v1/alerts/history?limit=abc").Code)
}

func TestHistoryRepositoryError(t *testing.T) {
	r := newTestRouter(t, &fakeAlertRepository{err: errors.New("connection refused")})

	w := get(r, "/v1/alerts/history")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestCount(t *testing.T) {
	r := newTestRouter(t, &fakeAlertRepository{counts: map[string]int{"Binance": 4, "OKX": 2}})

	w := get(r, "/v1/alerts/count")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"Binance": 4, "OKX": 2}`, w.Body.String())

	w = get(r, "/v1/alerts/count?exchange=OKX")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"OKX": 2}`, w.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t, nil)

	w := get(r, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())

	w = get(r, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
