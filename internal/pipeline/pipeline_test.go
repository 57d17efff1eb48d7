package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navid-fn/listing-radar/configs"
	"github.com/navid-fn/listing-radar/internal/crawler"
	"github.com/navid-fn/listing-radar/internal/fetcher"
	"github.com/navid-fn/listing-radar/internal/models"
	storagemodels "github.com/navid-fn/listing-radar/internal/storage/models"
	"github.com/navid-fn/listing-radar/internal/store"
)

var fixedNow = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }

type staticDirectory struct {
	dir models.Directory
	err error
}

func (d staticDirectory) Load(context.Context) (models.Directory, error) { return d.dir, d.err }
func (d staticDirectory) Name() string                                   { return "static" }

type staticSource struct {
	events []models.ListingEvent
	err    error
	calls  int
}

func (s *staticSource) Listings(context.Context) ([]models.ListingEvent, error) {
	s.calls++
	return s.events, s.err
}
func (s *staticSource) Name() string { return "static" }

type recordingPublisher struct {
	runID  string
	alerts []models.MatchedAlert
}

func (p *recordingPublisher) Publish(_ context.Context, runID string, alerts []models.MatchedAlert) error {
	p.runID = runID
	p.alerts = alerts
	return nil
}

type failingArchive struct{ rows []*storagemodels.ListingAlert }

func (a *failingArchive) CreateAlerts(_ context.Context, rows []*storagemodels.ListingAlert) error {
	a.rows = rows
	return errors.New("archive down")
}

func silentLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func binanceDirectory() staticDirectory {
	return staticDirectory{dir: models.Directory{"Binance": "https://aff/binance"}}
}

func newWebhookSource(t *testing.T, payload string) ListingSource {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, payload)
	}))
	t.Cleanup(srv.Close)

	cfg := &configs.AppConfig{
		Transport: "webhook",
		Webhook:   configs.WebhookConfig{URL: srv.URL, Method: http.MethodGet},
	}
	client := crawler.NewClient(crawler.DefaultHTTPConfig(100, 2*time.Second))
	source, err := NewSource(cfg, client, silentLogger(), fixedNow)
	require.NoError(t, err)
	return source
}

func newPipeline(t *testing.T, dir staticDirectory, source ListingSource) *Pipeline {
	t.Helper()
	logger := silentLogger()
	return &Pipeline{
		Directory: dir,
		Source:    source,
		Store:     store.New(filepath.Join(t.TempDir(), "alerts.json"), 3, logger),
		Logger:    logger,
		Clock:     fixedNow,
	}
}

func readStore(t *testing.T, path string) []map[string]string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var out []map[string]string
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

func TestRunMatchesNewListing(t *testing.T) {
	source := newWebhookSource(t, `[{"text": "Foo (FOO) has been listed on Binance - details"}]`)
	p := newPipeline(t, binanceDirectory(), source)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 1, res.Exchanges)
	assert.Equal(t, 1, res.Messages)
	assert.Equal(t, 1, res.Listings)
	assert.Equal(t, 1, res.Matched)
	assert.Equal(t, 1, res.Stored)

	assert.Equal(t, []map[string]string{{
		"exchange":      "Binance",
		"coin":          "Foo",
		"ticker":        "FOO",
		"affiliate_url": "https://aff/binance",
		"date_added":    "2024-06-01",
	}}, readStore(t, p.Store.Path()))
}

func TestRunUnknownExchangeLeavesStoreUnchanged(t *testing.T) {
	source := newWebhookSource(t, `[{"text": "Foo (FOO) has been listed on Kraken - details"}]`)
	p := newPipeline(t, binanceDirectory(), source)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Listings)
	assert.Equal(t, 0, res.Matched)

	_, err = os.Stat(p.Store.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestRunMalformedWebhookPayload(t *testing.T) {
	source := newWebhookSource(t, `{"text": "Foo (FOO) has been listed on Binance - details"}`)
	p := newPipeline(t, binanceDirectory(), source)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Listings)

	_, err = os.Stat(p.Store.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestRunChannelNotFoundAborts(t *testing.T) {
	source := &staticSource{err: fmt.Errorf("resolve channel: %w", fetcher.ErrChannelNotFound)}
	p := newPipeline(t, binanceDirectory(), source)

	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, fetcher.ErrChannelNotFound)
}

func TestRunOtherFetchErrorsAreSwallowed(t *testing.T) {
	source := &staticSource{err: fmt.Errorf("%w: token", fetcher.ErrMissingConfig)}
	p := newPipeline(t, binanceDirectory(), source)

	_, err := p.Run(context.Background())
	assert.NoError(t, err)
}

func TestRunEmptyDirectorySkipsFetch(t *testing.T) {
	source := &staticSource{}
	p := newPipeline(t, staticDirectory{dir: models.Directory{}, err: errors.New("sheet unavailable")}, source)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Exchanges)
	assert.Equal(t, 0, source.calls)
}

func TestRunMergesWithExistingAndFansOut(t *testing.T) {
	source := &staticSource{events: []models.ListingEvent{
		{Coin: "Foo", Ticker: "FOO", Exchange: "Binance", DateAdded: "2024-06-01"},
		{Coin: "Bar", Ticker: "BAR", Exchange: "Binance", DateAdded: "2024-06-01"},
	}}
	p := newPipeline(t, binanceDirectory(), source)
	pub := &recordingPublisher{}
	archive := &failingArchive{}
	p.Publisher = pub
	p.Archive = archive

	require.NoError(t, p.Store.Save([]models.MatchedAlert{
		{Exchange: "Binance", Coin: "Foo", Ticker: "FOO", AffiliateURL: "https://old", DateAdded: "2024-05-31"},
		{Exchange: "Binance", Coin: "Old", Ticker: "OLD", AffiliateURL: "https://old", DateAdded: "2024-05-01"},
	}))

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Matched)
	assert.Equal(t, 2, res.Stored)

	saved := readStore(t, p.Store.Path())
	require.Len(t, saved, 2)
	assert.Equal(t, "Bar", saved[0]["coin"])
	assert.Equal(t, "Foo", saved[1]["coin"])
	assert.Equal(t, "https://old", saved[1]["affiliate_url"])

	require.Len(t, pub.alerts, 1)
	assert.Equal(t, "Bar", pub.alerts[0].Coin)
	assert.Equal(t, res.RunID, pub.runID)

	require.Len(t, archive.rows, 1)
	assert.Equal(t, res.RunID, archive.rows[0].RunID)
}

func TestRunSkipsWhenStoreLocked(t *testing.T) {
	source := &staticSource{events: []models.ListingEvent{
		{Coin: "Foo", Ticker: "FOO", Exchange: "Binance", DateAdded: "2024-06-01"},
	}}
	p := newPipeline(t, binanceDirectory(), source)

	unlock, err := store.New(p.Store.Path(), 3, silentLogger()).Lock()
	require.NoError(t, err)
	defer unlock()

	_, err = p.Run(context.Background())
	assert.ErrorIs(t, err, store.ErrLocked)
}

func TestNewSource(t *testing.T) {
	client := crawler.NewClient(nil)

	testCases := []struct {
		name      string
		transport string
		pattern   string
		expected  string
		wantErr   bool
	}{
		{name: "Slack preset", transport: "slack", expected: "slack"},
		{name: "Discord preset", transport: "discord", expected: "discord"},
		{name: "Webhook uses slack preset", transport: "webhook", expected: "slack"},
		{name: "Pattern override", transport: "discord", pattern: "slack", expected: "slack"},
		{name: "Conditions has no pattern", transport: "conditions"},
		{name: "Unknown transport", transport: "irc", wantErr: true},
		{name: "Bad custom pattern", transport: "slack", pattern: "(a)(b)", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &configs.AppConfig{Transport: tc.transport, ExtractPattern: tc.pattern}
			source, err := NewSource(cfg, client, silentLogger(), fixedNow)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.transport, source.Name())

			if ms, ok := source.(*MessageSource); ok {
				assert.Equal(t, tc.expected, ms.Extractor.Pattern().Name)
			} else {
				assert.Equal(t, "conditions", tc.transport)
			}
		})
	}
}

func TestRunEveryStopsOnCancel(t *testing.T) {
	source := &staticSource{}
	p := newPipeline(t, binanceDirectory(), source)

	ctx, cancel := context.WithTimeout(context.Background(), 70*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		p.RunEvery(ctx, 20*time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunEvery did not return after cancel")
	}
	assert.GreaterOrEqual(t, source.calls, 2)
}
