package feeds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client fetches raw GTFS-RT payloads. Decoding lives in decode.go so the
// two halves stay independently testable.
type Client struct {
	httpClient *http.Client
	apiKey     string
}

func NewClient(timeout time.Duration, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
	}
}

// Fetch issues a bounded GET and returns the raw protobuf body. Every
// transport-level failure comes back as a *NetworkError.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}

	// The public feeds work without a key; attach one when configured.
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{URL: url, Err: fmt.Errorf("status code %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}

	return data, nil
}
