// Package fetcher retrieves recent listing announcements from chat channels and alert APIs.
package fetcher

import (
	"context"
	"errors"
	"fmt"
)

// PageSize is how many recent messages each transport asks for.
const PageSize = 10

var (
	// ErrMissingConfig means a credential or ID required by the transport is empty.
	ErrMissingConfig = errors.New("transport is not configured")

	// ErrChannelNotFound means the bot could not resolve the configured channel.
	// It is the only fetch failure that aborts a run.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrMalformedPayload means the response did not have the expected shape.
	ErrMalformedPayload = errors.New("malformed payload")
)

// APIError carries an application-level error reported inside a 200 response.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %s", e.Message)
}

// MessageFetcher returns the raw text of up to PageSize recent channel messages.
type MessageFetcher interface {
	Fetch(ctx context.Context) ([]string, error)
	Name() string
}

// limit trims texts to PageSize entries.
func limit(texts []string) []string {
	if len(texts) > PageSize {
		return texts[:PageSize]
	}
	return texts
}
