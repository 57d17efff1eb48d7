package directory

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navid-fn/listing-radar/configs"
	"github.com/navid-fn/listing-radar/internal/crawler"
	"github.com/navid-fn/listing-radar/internal/models"
)

func TestFromRows(t *testing.T) {
	testCases := []struct {
		name     string
		rows     [][]string
		expected models.Directory
		err      error
	}{
		{
			name: "Header resolved by name",
			rows: [][]string{
				{"Link", "Notes", "Name"},
				{"https://aff/binance", "", "Binance"},
				{"https://aff/kraken", "x", "Kraken"},
			},
			expected: models.Directory{"Binance": "https://aff/binance", "Kraken": "https://aff/kraken"},
		},
		{
			name: "Ragged and empty rows skipped",
			rows: [][]string{
				{"Name", "Link"},
				{"Binance"},
				{},
				{"", "https://aff/none"},
				{"OKX", "https://aff/okx"},
			},
			expected: models.Directory{"OKX": "https://aff/okx"},
		},
		{
			name: "Duplicate name keeps last row",
			rows: [][]string{
				{"Name", "Link"},
				{"Binance", "https://old"},
				{"Binance", "https://new"},
			},
			expected: models.Directory{"Binance": "https://new"},
		},
		{
			name:     "No rows",
			rows:     nil,
			expected: models.Directory{},
			err:      ErrNoRows,
		},
		{
			name:     "Missing link column",
			rows:     [][]string{{"Name", "URL"}, {"Binance", "https://aff"}},
			expected: models.Directory{},
			err:      ErrMissingColumns,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir, err := FromRows(tc.rows)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.expected, dir)
			if len(tc.rows) > 0 {
				assert.LessOrEqual(t, len(dir), len(tc.rows)-1)
			}
		})
	}
}

func newTestClient() *crawler.Client {
	return crawler.NewClient(crawler.DefaultHTTPConfig(100, time.Second))
}

func TestSheetsLoad(t *testing.T) {
	var gotPath, gotQuery, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("X-Goog-Api-Key")
		w.Write([]byte(`{"range":"Sheet1!A1:Z1000","values":[["Name","Link"],["Binance","https://aff/binance"],["Kraken"]]}`))
	}))
	defer srv.Close()

	s := NewSheets(newTestClient(), configs.SheetsConfig{SheetID: "sheet-1", APIKey: "k3y", APIURL: srv.URL})
	dir, err := s.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, models.Directory{"Binance": "https://aff/binance"}, dir)
	assert.Equal(t, "/v4/spreadsheets/sheet-1/values/A1:Z1000", gotPath)
	assert.Equal(t, "k3y", gotKey)
	assert.Empty(t, gotQuery)
}

func TestSheetsLoadFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	t.Run("Non-success status", func(t *testing.T) {
		s := NewSheets(newTestClient(), configs.SheetsConfig{SheetID: "id", APIKey: "key", APIURL: srv.URL})
		dir, err := s.Load(context.Background())

		var statusErr *crawler.StatusError
		assert.True(t, errors.As(err, &statusErr))
		assert.Empty(t, dir)
	})

	t.Run("Unreachable host keeps the key out of the error", func(t *testing.T) {
		down := httptest.NewServer(http.NotFoundHandler())
		down.Close()

		s := NewSheets(newTestClient(), configs.SheetsConfig{SheetID: "id", APIKey: "SUPERSECRET", APIURL: down.URL})
		dir, err := s.Load(context.Background())

		require.Error(t, err)
		assert.NotContains(t, err.Error(), "SUPERSECRET")
		assert.Empty(t, dir)
	})

	t.Run("Missing credentials", func(t *testing.T) {
		s := NewSheets(newTestClient(), configs.SheetsConfig{SheetID: "id", APIURL: srv.URL})
		dir, err := s.Load(context.Background())

		assert.ErrorIs(t, err, ErrMissingConfig)
		assert.Empty(t, dir)
	})
}

func TestFileLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exchanges.yaml")
	content := `exchanges:
  - name: Binance
    link: https://aff/binance
  - name: MEXC
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	dir, err := NewFile(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Directory{"Binance": "https://aff/binance"}, dir)

	_, err = NewFile(filepath.Join(t.TempDir(), "missing.yaml")).Load(context.Background())
	assert.Error(t, err)
}
