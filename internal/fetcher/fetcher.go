// Package fetcher is the rate-shaped HTTP transport under the upstream client.
package fetcher

import (
	"context"
	"fmt"
	"net/http"
)

// Fetcher performs one upstream GET. It never retries; callers wrap it in a
// resilience.Policy.
type Fetcher interface {
	// Get fetches rawURL and returns the response body. Non-200 responses
	// return a *StatusError, wrapped as transient when the status is retryable.
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// StatusError reports an unexpected HTTP status from the upstream.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d %s from %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}
