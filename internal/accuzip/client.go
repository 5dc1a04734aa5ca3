package accuzip

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ignite/directmail/internal/pkg/httpretry"
)

const defaultPageSize = 500

// Client is the AccuZIP API client.
type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
	httpClient httpretry.HTTPDoer
}

// NewClient creates a new AccuZIP API client.
func NewClient(config Config) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	pageSize := config.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Client{
		baseURL:  strings.TrimRight(config.BaseURL, "/"),
		apiKey:   config.APIKey,
		pageSize: pageSize,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: timeout,
		}, config.MaxRetries),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// PageSize is the number of rows requested per search page.
func (c *Client) PageSize() int { return c.pageSize }

// doRequest performs an authenticated request to the AccuZIP API
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// Search returns one page (1-based) of households matching the criteria.
func (c *Client) Search(ctx context.Context, criteria ListCriteria, page int) (*SearchPage, error) {
	if err := criteria.Validate(); err != nil {
		return nil, fmt.Errorf("invalid criteria: %w", err)
	}
	if page < 1 {
		page = 1
	}

	params := BuildSearchParams(criteria)
	params.Page = page
	params.PageSize = c.pageSize

	respBody, err := c.doRequest(ctx, http.MethodPost, "/v1/lists/search", params)
	if err != nil {
		return nil, err
	}

	var response SearchResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if !response.Success {
		return nil, fmt.Errorf("API returned error: %s", response.Message)
	}

	return &SearchPage{
		Records: response.Records,
		Total:   response.Total,
		Page:    page,
		HasMore: page*c.pageSize < response.Total && len(response.Records) > 0,
	}, nil
}

// Count returns how many households match the criteria without pulling them.
func (c *Client) Count(ctx context.Context, criteria ListCriteria) (int, error) {
	if err := criteria.Validate(); err != nil {
		return 0, fmt.Errorf("invalid criteria: %w", err)
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, "/v1/lists/count", BuildSearchParams(criteria))
	if err != nil {
		return 0, err
	}

	var response CountResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}
	if !response.Success {
		return 0, fmt.Errorf("API returned error: %s", response.Message)
	}
	return response.Count, nil
}
