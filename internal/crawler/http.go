package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// maxBodyBytes bounds how much of a response is read into memory.
const maxBodyBytes = 8 << 20

type HTTPConfig struct {
	RateLimiter    *rate.Limiter
	RequestTimeout time.Duration
}

func DefaultHTTPConfig(requestsPerSecond float64, requestTimeout time.Duration) *HTTPConfig {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}
	return &HTTPConfig{
		RateLimiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 10),
		RequestTimeout: requestTimeout,
	}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// Client is the outbound HTTP client shared by the directory loaders and the fetchers.
// Every request waits on the rate limiter first.
type Client struct {
	config     *HTTPConfig
	httpClient *http.Client
}

func NewClient(config *HTTPConfig) *Client {
	if config == nil {
		config = DefaultHTTPConfig(0, 0)
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.RequestTimeout},
	}
}

// Do sends req and returns the response body and status code regardless of status.
func (c *Client) Do(ctx context.Context, req *http.Request) ([]byte, int, error) {
	if err := c.config.RateLimiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, 0, fmt.Errorf("HTTP request failed: %w", redact(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// DoJSON sends req and decodes a 2xx JSON body into out.
func (c *Client) DoJSON(ctx context.Context, req *http.Request, out any) error {
	body, status, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return &StatusError{Code: status, Body: truncate(string(body), 200)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal: %w", err)
	}
	return nil
}

// redact strips the query and userinfo from the URL of a transport error.
func redact(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	u, perr := url.Parse(uerr.URL)
	if perr != nil {
		return &url.Error{Op: uerr.Op, URL: "<redacted>", Err: uerr.Err}
	}
	if u.RawQuery != "" {
		u.RawQuery = "redacted"
	}
	u.User = nil
	return &url.Error{Op: uerr.Op, URL: u.String(), Err: uerr.Err}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
