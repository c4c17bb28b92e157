// Package emailcheck provides a client for an external email validation
// service, used to filter export rosters down to deliverable addresses.
package emailcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// defaultBatchSize bounds how many addresses go in one validation request.
const defaultBatchSize = 100

// Result is the validation verdict for a single address.
type Result struct {
	Email  string `json:"email"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Deliverable reports whether the address is safe to send to.
func (r Result) Deliverable() bool {
	return r.Status == "valid"
}

// Config holds the validation service settings.
type Config struct {
	BaseURL   string
	APIKey    string
	BatchSize int
	Timeout   time.Duration
}

// Client calls the email validation service in batches.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	batchSize  int
}

// NewClient creates a validation client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("email validation base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("email validation API key is required")
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		batchSize: batchSize,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// ValidateBatch checks a list of addresses and returns a verdict for each.
// Addresses the service does not report on come back with status "unknown".
func (c *Client) ValidateBatch(ctx context.Context, emails []string) ([]Result, error) {
	results := make([]Result, 0, len(emails))

	for start := 0; start < len(emails); start += c.batchSize {
		end := start + c.batchSize
		if end > len(emails) {
			end = len(emails)
		}

		batch, err := c.validateChunk(ctx, emails[start:end])
		if err != nil {
			return nil, err
		}
		results = append(results, batch...)
	}

	return results, nil
}

// FilterDeliverable returns the subset of addresses the service considers
// safe to send to.
func (c *Client) FilterDeliverable(ctx context.Context, emails []string) ([]string, error) {
	results, err := c.ValidateBatch(ctx, emails)
	if err != nil {
		return nil, err
	}

	deliverable := make([]string, 0, len(results))
	for _, r := range results {
		if r.Deliverable() {
			deliverable = append(deliverable, r.Email)
		}
	}
	return deliverable, nil
}

func (c *Client) validateChunk(ctx context.Context, emails []string) ([]Result, error) {
	requestBody := map[string]any{
		"emails": emails,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/validate/batch", strings.NewReader(string(jsonBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("email validation API error (status %d): %s", resp.StatusCode, string(body))
	}

	var response batchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	byEmail := make(map[string]Result, len(response.Results))
	for _, r := range response.Results {
		byEmail[r.Email] = r
	}

	// Preserve request order and fill gaps.
	results := make([]Result, 0, len(emails))
	for _, email := range emails {
		if r, ok := byEmail[email]; ok {
			results = append(results, r)
			continue
		}
		results = append(results, Result{Email: email, Status: "unknown"})
	}

	return results, nil
}

// batchResponse represents the validation API response structure.
type batchResponse struct {
	Results []Result `json:"results"`
}
