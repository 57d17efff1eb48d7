package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/navid-fn/listing-radar/configs"
	"github.com/navid-fn/listing-radar/internal/crawler"
)

// Webhook pulls a JSON array of message objects from a pre-shared URL.
type Webhook struct {
	client *crawler.Client
	cfg    configs.WebhookConfig
}

func NewWebhook(client *crawler.Client, cfg configs.WebhookConfig) *Webhook {
	if cfg.Method != http.MethodPost {
		cfg.Method = http.MethodGet
	}
	return &Webhook{client: client, cfg: cfg}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Fetch(ctx context.Context) ([]string, error) {
	if w.cfg.URL == "" {
		return nil, fmt.Errorf("%w: WEBHOOK_URL is missing", ErrMissingConfig)
	}

	var body *bytes.Reader
	if w.cfg.Method == http.MethodPost {
		body = bytes.NewReader([]byte("{}"))
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(w.cfg.Method, w.cfg.URL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var raw json.RawMessage
	if err := w.client.DoJSON(ctx, req, &raw); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected a list of messages", ErrMalformedPayload)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	texts := make([]string, 0, len(entries))
	for _, entry := range entries {
		if text := messageText(entry); text != "" {
			texts = append(texts, text)
		}
	}
	return limit(texts), nil
}

// messageText returns the "text" field of a message object, falling back to "content".
// Non-object entries and entries without a string text yield "".
func messageText(entry json.RawMessage) string {
	var fields map[string]any
	if err := json.Unmarshal(entry, &fields); err != nil {
		return ""
	}
	for _, key := range []string{"text", "content"} {
		if s, ok := fields[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
