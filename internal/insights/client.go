// Package insights calls the hosted narrative-analysis endpoint. The endpoint
// is an opaque text-generation service: it may be slow, it may fail, and the
// only contract is free-text in, free-text out.
package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"resilience-alerting/internal/config"
)

// Client wraps the analysis endpoint.
type Client struct {
	url    string
	client *http.Client
	logger *logrus.Logger
}

// New builds a Client from config. Returns nil when no endpoint is configured.
func New(cfg config.Config, logger *logrus.Logger) *Client {
	if cfg.Insights.URL == "" {
		return nil
	}
	return &Client{
		url:    cfg.Insights.URL,
		client: &http.Client{Timeout: time.Duration(cfg.Insights.TimeoutSeconds) * time.Second},
		logger: logger,
	}
}

type request struct {
	Query   string                 `json:"query"`
	Context map[string]interface{} `json:"context,omitempty"`
}

type response struct {
	Text string `json:"text"`
}

// Analyze submits a free-text query with contextual metadata and returns the
// generated narrative.
func (c *Client) Analyze(ctx context.Context, query string, contextData map[string]interface{}) (string, error) {
	body, err := json.Marshal(request{Query: query, Context: contextData})
	if err != nil {
		return "", fmt.Errorf("failed to encode insight request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create insight request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("insight endpoint call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("insight endpoint returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read insight response: %w", err)
	}
	var out response
	if err := json.Unmarshal(data, &out); err != nil {
		// The endpoint sometimes answers with bare text instead of JSON.
		return string(data), nil
	}
	return out.Text, nil
}
