// Package agent talks to the local device agent that fronts the platform
// geolocation and permission services.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/facilform-dev/facilform/internal/domain"
	"github.com/facilform-dev/facilform/internal/geo"
	"github.com/facilform-dev/facilform/internal/logger"
)

const changePollInterval = 5 * time.Second

// Client implements geo.PermissionService and geo.PositionService over the
// agent's HTTP API.
type Client struct {
	BaseURL    string
	HttpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HttpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

var _ geo.PermissionService = (*Client)(nil)
var _ geo.PositionService = (*Client)(nil)

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create agent request: %w", err)
	}

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return fmt.Errorf("device agent unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("device agent returned status %d for %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse agent response: %w", err)
	}
	return nil
}

func (c *Client) Query(ctx context.Context) (geo.PermissionState, error) {
	var body struct {
		State string `json:"state"`
	}
	if err := c.get(ctx, "/v1/permission", &body); err != nil {
		return geo.PermissionPrompt, err
	}
	return parseState(body.State), nil
}

func (c *Client) Current(ctx context.Context) (domain.Coordinates, error) {
	var body struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := c.get(ctx, "/v1/position", &body); err != nil {
		return domain.Coordinates{}, err
	}
	return domain.Coordinates{Lat: body.Latitude, Lng: body.Longitude}, nil
}

// Changes polls the agent for permission state and forwards transitions.
// The channel closes when ctx is cancelled.
func (c *Client) Changes(ctx context.Context) <-chan geo.PermissionState {
	out := make(chan geo.PermissionState, 1)
	go func() {
		defer close(out)
		last := geo.PermissionState(-1)
		ticker := time.NewTicker(changePollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				state, err := c.Query(ctx)
				if err != nil {
					logger.Log.Debug("permission poll failed", "err", err)
					continue
				}
				if state != last {
					last = state
					select {
					case out <- state:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return out
}

func parseState(s string) geo.PermissionState {
	switch s {
	case "granted":
		return geo.PermissionGranted
	case "denied":
		return geo.PermissionDenied
	default:
		return geo.PermissionPrompt
	}
}
