// Package apiclient handles all communication with the remote facility
// store API.
package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

type APIClient struct {
	BaseURL    string
	HttpClient *http.Client
}

// New creates a new client for interacting with the facility store.
func New(baseURL string) *APIClient {
	return &APIClient{
		BaseURL:    baseURL,
		HttpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// do is the single, unified helper for making store requests.
func (c *APIClient) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create store request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("store unavailable: %w", err)
	}
	return resp, nil
}
