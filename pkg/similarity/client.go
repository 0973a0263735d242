// Package similarity is a client for the external similarity service, an
// optional HTTP endpoint that serves precomputed nearest-investor lookups.
// Candidate generation prefers it when configured and falls back to the
// in-database vector search on any error.
package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
)

// ClientOptions configures the similarity service client.
type ClientOptions struct {
	// BaseURL is the service base URL, without a trailing slash.
	BaseURL string
	// APIKey is sent as the x-api-key header.
	APIKey string
	// RetryMax is the maximum number of retries (default: 3)
	RetryMax int
	// Timeout is the HTTP client timeout (default: 10 seconds)
	Timeout time.Duration
}

// Client is the similarity service client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *retryablehttp.Client
}

// NewClient creates a similarity client with default settings.
func NewClient(baseURL, apiKey string) *Client {
	return NewClientWithOptions(ClientOptions{
		BaseURL: baseURL,
		APIKey:  apiKey,
	})
}

// NewClientWithOptions creates a similarity client with custom options.
func NewClientWithOptions(opts ClientOptions) *Client {
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")

	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RetryMax == 0 {
		opts.RetryMax = 3
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.HTTPClient.Timeout = opts.Timeout
	retryClient.Logger = nil // Disable logging by default

	return &Client{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		httpClient: retryClient,
	}
}

// NearestRequest is the query body for a nearest-investor lookup.
type NearestRequest struct {
	StartupID     uuid.UUID `json:"startup_id"`
	Limit         int       `json:"limit"`
	MinSimilarity float64   `json:"min_similarity"`
}

// NearestResult is one investor hit.
type NearestResult struct {
	InvestorID uuid.UUID `json:"investor_id"`
	Similarity float64   `json:"similarity"`
}

// nearestResponse wraps the service response.
type nearestResponse struct {
	Results []NearestResult `json:"results"`
}

// NearestInvestors queries the service for the investors most similar to the
// given startup. Cancelling ctx aborts the request, retries included.
func (c *Client) NearestInvestors(ctx context.Context, req NearestRequest) ([]NearestResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v1/nearest-investors", c.baseURL)

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, "POST", reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			slog.Error("Failed to read error response body", "error", err)
		}
		return nil, fmt.Errorf("similarity request failed with status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var nearest nearestResponse
	if err := json.Unmarshal(body, &nearest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nearest.Results, nil
}
