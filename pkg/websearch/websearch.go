// Package websearch provides the generic web-search capability backed by the
// Brave Search API.
package websearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	contractx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/contract"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultCount = 5
	maxCount     = 10
	endpoint     = "https://api.search.brave.com/res/v1/web/search"
)

type Config struct {
	APIKey  string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Country string        `envconfig:"COUNTRY" split_words:"true" default:"DE"`
	Lang    string        `envconfig:"LANG" split_words:"true" default:"de"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

// Client implements contract.SearchProvider.
type Client struct {
	cfg    Config
	client *http.Client
}

var _ contractx.SearchProvider = (*Client)(nil)

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Search runs one query and renders the results as a numbered block the
// model can quote from.
func (c *Client) Search(ctx context.Context, query string, count int) (string, error) {
	if count <= 0 {
		count = defaultCount
	}
	if count > maxCount {
		count = maxCount
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("count", strconv.Itoa(count))
	if c.cfg.Country != "" {
		q.Set("country", c.cfg.Country)
	}
	if c.cfg.Lang != "" {
		q.Set("search_lang", c.cfg.Lang)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("brave API returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var braveResp struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.Unmarshal(body, &braveResp); err != nil {
		return "", fmt.Errorf("parse search response: %w", err)
	}

	if len(braveResp.Web.Results) == 0 {
		return "No results found.", nil
	}

	var b strings.Builder
	for i, r := range braveResp.Web.Results {
		fmt.Fprintf(&b, "%d. %s\n%s\n%s\n\n", i+1, r.Title, r.URL, r.Description)
	}
	return strings.TrimSpace(b.String()), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
