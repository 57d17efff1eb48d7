package directory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/navid-fn/listing-radar/configs"
	"github.com/navid-fn/listing-radar/internal/crawler"
	"github.com/navid-fn/listing-radar/internal/models"
)

type valuesResponse struct {
	Range  string     `json:"range"`
	Values [][]string `json:"values"`
}

// Sheets reads the directory from a spreadsheet values range authenticated by an API key.
type Sheets struct {
	client *crawler.Client
	cfg    configs.SheetsConfig
}

func NewSheets(client *crawler.Client, cfg configs.SheetsConfig) *Sheets {
	if cfg.Range == "" {
		cfg.Range = configs.DefaultSheetRange
	}
	if cfg.APIURL == "" {
		cfg.APIURL = configs.DefaultSheetsAPIURL
	}
	return &Sheets{client: client, cfg: cfg}
}

func (s *Sheets) Name() string { return "google-sheets" }

func (s *Sheets) Load(ctx context.Context) (models.Directory, error) {
	if s.cfg.SheetID == "" || s.cfg.APIKey == "" {
		return models.Directory{}, fmt.Errorf("%w: GOOGLE_SHEET_ID or GOOGLE_SHEET_API is missing", ErrMissingConfig)
	}

	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s",
		strings.TrimRight(s.cfg.APIURL, "/"),
		url.PathEscape(s.cfg.SheetID),
		url.PathEscape(s.cfg.Range),
	)
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return models.Directory{}, err
	}
	req.Header.Set("X-Goog-Api-Key", s.cfg.APIKey)

	var resp valuesResponse
	if err := s.client.DoJSON(ctx, req, &resp); err != nil {
		return models.Directory{}, fmt.Errorf("failed to fetch sheet: %w", err)
	}
	return FromRows(resp.Values)
}
