// Package exa provides a client for the Exa semantic search API.
package exa

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/signal-scout/internal/resilience"
)

const defaultBaseURL = "https://api.exa.ai"

// Client performs semantic searches against the Exa API.
type Client interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SearchRequest is the request body for POST /search.
type SearchRequest struct {
	Query      string    `json:"query"`
	Type       string    `json:"type,omitempty"` // "auto" unless overridden
	NumResults int       `json:"numResults,omitempty"`
	Contents   *Contents `json:"contents,omitempty"`
}

// Contents asks Exa to include page text with each result.
type Contents struct {
	Text TextContents `json:"text"`
}

// TextContents bounds the text returned per result.
type TextContents struct {
	MaxCharacters int `json:"maxCharacters,omitempty"`
}

// SearchResponse is the response from POST /search.
type SearchResponse struct {
	RequestID   string   `json:"requestId"`
	Results     []Result `json:"results"`
	CostDollars *Cost    `json:"costDollars,omitempty"`
}

// Result is a single search result.
type Result struct {
	ID            string  `json:"id"`
	URL           string  `json:"url"`
	Title         string  `json:"title"`
	PublishedDate string  `json:"publishedDate,omitempty"`
	Score         float64 `json:"score"`
	Text          string  `json:"text,omitempty"`
}

// Cost is Exa's reported dollar cost for the request.
type Cost struct {
	Total float64 `json:"total"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetryConfig overrides the default retry behavior.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	retry   resilience.RetryConfig
}

// NewClient creates an Exa API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry: resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if req.Type == "" {
		req.Type = "auto"
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "exa: marshal request")
	}

	cfg := c.retry
	cfg.OnRetry = resilience.RetryLogger("exa", "search")
	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (*SearchResponse, error) {
		return c.searchOnce(ctx, body)
	})
}

// searchOnce runs a single attempt. Transport failures and retryable
// statuses come back as transient so the retry wrapper acts on them.
func (c *httpClient) searchOnce(ctx context.Context, body []byte) (*SearchResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "exa: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "exa: send request"), 0)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "exa: read response")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, resilience.NewAuthError(eris.Errorf("exa: credential rejected with status %d", resp.StatusCode), resp.StatusCode)
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return nil, resilience.NewTransientError(eris.Errorf("exa: status %d: %s", resp.StatusCode, string(respBody)), resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, eris.Errorf("exa: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result SearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "exa: unmarshal response")
	}

	return &result, nil
}
