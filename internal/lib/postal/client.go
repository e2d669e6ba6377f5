package postal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// Client calls the ViaCEP HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client with a dial timeout of connectTimeout and an
// overall request timeout of requestTimeout. Requests carrying a New Relic
// transaction in their context are recorded as external segments.
func NewClient(baseURL string, connectTimeout, requestTimeout time.Duration) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   requestTimeout,
			Transport: newrelic.NewRoundTripper(transport),
		},
	}
}

// Fetch issues GET {base}/{code}/json/. code must already be normalized.
func (c *Client) Fetch(ctx context.Context, code string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s/json/", c.baseURL, code), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &result, nil
}
