package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// defaultTimeout is the default http client timeout.
	defaultTimeout = time.Second * 5
	// maxErrorBodySize is the maximum number of response body bytes quoted in status errors.
	maxErrorBodySize = 256
)

// StatusError represents a non-success http response. The url excludes query parameters
// since they may carry api keys.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

// Error returns the error string.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// newHTTPClient creates a http client with the provided timeout, falling back to the default
// timeout when none is provided.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &http.Client{Timeout: timeout}
}

// get performs a GET request against the provided url and returns the response body. Responses
// without a 200 status code are returned as a *StatusError.
func get(ctx context.Context, httpc *http.Client, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := httpc.Do(req)
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		snippet := body
		if len(snippet) > maxErrorBodySize {
			snippet = snippet[:maxErrorBodySize]
		}

		return nil, &StatusError{
			URL:        req.URL.Scheme + "://" + req.URL.Host + req.URL.Path,
			StatusCode: resp.StatusCode,
			Body:       string(snippet),
		}
	}

	return body, nil
}
