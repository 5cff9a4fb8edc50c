package flex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Fetcher retrieves the raw equipment tree for one pullsheet id.
type Fetcher interface {
	FetchPullsheet(ctx context.Context, pullsheetID string) ([]Section, error)
}

// Client is the HTTP client for the Flex row-data API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a Flex API client. baseURL is the API root without a
// trailing slash; timeout bounds each request.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// codeList names the optional row fields the parser needs Flex to include.
var codeList = []string{"quantity", "upstreamLink", "note", "isVirtual"}

// FetchPullsheet retrieves and decodes the row data for one equipment list.
func (c *Client) FetchPullsheet(ctx context.Context, pullsheetID string) ([]Section, error) {
	q := url.Values{}
	q["codeList"] = codeList
	q.Set("node", "root")

	endpoint := fmt.Sprintf("%s/line-item/%s/row-data/?%s", c.baseURL, url.PathEscape(pullsheetID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build flex request: %w", err)
	}
	req.Header.Set("X-Auth-Token", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch flex pullsheet %s: %w", pullsheetID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("fetch flex pullsheet %s: unexpected status %s", pullsheetID, resp.Status)
	}

	sections, err := DecodeSections(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch flex pullsheet %s: %w", pullsheetID, err)
	}
	return sections, nil
}
