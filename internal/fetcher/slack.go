package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/navid-fn/listing-radar/configs"
	"github.com/navid-fn/listing-radar/internal/crawler"
)

type slackHistoryResponse struct {
	OK       bool   `json:"ok"`
	Error    string `json:"error"`
	Messages []struct {
		Text *string `json:"text"`
	} `json:"messages"`
}

// Slack reads conversations.history with a bot token.
type Slack struct {
	client *crawler.Client
	cfg    configs.SlackConfig
}

func NewSlack(client *crawler.Client, cfg configs.SlackConfig) *Slack {
	if cfg.APIURL == "" {
		cfg.APIURL = configs.DefaultSlackAPIURL
	}
	return &Slack{client: client, cfg: cfg}
}

func (s *Slack) Name() string { return "slack" }

func (s *Slack) Fetch(ctx context.Context) ([]string, error) {
	if s.cfg.BotToken == "" || s.cfg.ChannelID == "" {
		return nil, fmt.Errorf("%w: SLACK_BOT_TOKEN or SLACK_CHANNEL_ID is missing", ErrMissingConfig)
	}

	params := url.Values{}
	params.Set("channel", s.cfg.ChannelID)
	params.Set("limit", strconv.Itoa(PageSize))
	endpoint := strings.TrimRight(s.cfg.APIURL, "/") + "/conversations.history?" + params.Encode()

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.BotToken)
	req.Header.Set("Content-Type", "application/json")

	body, status, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	var data slackHistoryResponse
	if err := json.Unmarshal(body, &data); err != nil {
		if status != http.StatusOK {
			return nil, &crawler.StatusError{Code: status}
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if status != http.StatusOK {
		return nil, &crawler.StatusError{Code: status, Body: data.Error}
	}
	if !data.OK {
		return nil, &APIError{Message: data.Error}
	}

	texts := make([]string, 0, len(data.Messages))
	for _, m := range data.Messages {
		if m.Text == nil || *m.Text == "" {
			continue
		}
		texts = append(texts, *m.Text)
	}
	return limit(texts), nil
}
