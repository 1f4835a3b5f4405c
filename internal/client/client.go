package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client calls the action endpoints of the API server. Calls are never
// retried.
type Client struct {
	logger     *zap.Logger
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL
func New(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		logger:  logger.Named("client"),
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// EventsURL returns the streaming endpoint of the server
func (c *Client) EventsURL() string {
	return c.baseURL + "/api/events"
}

type actionResponse struct {
	Success bool   `json:"success"`
	AlertID string `json:"alertId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Trigger starts a new alert and returns its id
func (c *Client) Trigger(ctx context.Context) (string, error) {
	resp, err := c.post(ctx, "/api/trigger-alert", nil)
	if err != nil {
		return "", fmt.Errorf("failed to trigger alert: %w", err)
	}
	return resp.AlertID, nil
}

// SimulateFailure fails the named agent
func (c *Client) SimulateFailure(ctx context.Context, agent string) error {
	if _, err := c.post(ctx, "/api/simulate-failure", map[string]string{"agent": agent}); err != nil {
		return fmt.Errorf("failed to simulate failure: %w", err)
	}
	return nil
}

// Reset resets the whole simulation
func (c *Client) Reset(ctx context.Context) error {
	if _, err := c.post(ctx, "/api/reset", nil); err != nil {
		return fmt.Errorf("failed to reset: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (*actionResponse, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("Calling action endpoint", zap.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var out actionResponse
	decodeErr := json.Unmarshal(raw, &out)

	if out.Error != "" {
		return nil, fmt.Errorf("%s", out.Error)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP request failed with status: %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	return &out, nil
}
