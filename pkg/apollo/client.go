// Package apollo provides a client for the Apollo.io people search and
// enrichment API.
package apollo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/signal-scout/internal/resilience"
)

const defaultBaseURL = "https://api.apollo.io/v1"

// Client performs people lookups against the Apollo API.
type Client interface {
	// SearchPeople finds people at an organization matching titles/seniorities.
	SearchPeople(ctx context.Context, req SearchPeopleRequest) (*SearchPeopleResponse, error)
	// MatchPerson fetches full profile detail (including email) for a person ID.
	MatchPerson(ctx context.Context, personID string) (*Person, error)
}

// SearchPeopleRequest is the request body for POST /mixed_people/search.
type SearchPeopleRequest struct {
	OrganizationDomains []string `json:"q_organization_domains,omitempty"`
	OrganizationNames   []string `json:"q_organization_names,omitempty"`
	Titles              []string `json:"person_titles,omitempty"`
	Seniorities         []string `json:"person_seniorities,omitempty"`
	PerPage             int      `json:"per_page,omitempty"`
	Page                int      `json:"page,omitempty"`
}

// SearchPeopleResponse is the response from POST /mixed_people/search.
type SearchPeopleResponse struct {
	People []Person `json:"people"`
}

// Person is a person record as returned by Apollo.
type Person struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Title       string `json:"title"`
	Email       string `json:"email"`
	LinkedInURL string `json:"linkedin_url"`
}

// matchResponse wraps the person in POST /people/match responses.
type matchResponse struct {
	Person *Person `json:"person"`
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

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
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
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates an Apollo API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 20 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(2), 1),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SearchPeople(ctx context.Context, req SearchPeopleRequest) (*SearchPeopleResponse, error) {
	if req.PerPage == 0 {
		req.PerPage = 5
	}

	var result SearchPeopleResponse
	if err := c.post(ctx, "/mixed_people/search", req, &result); err != nil {
		return nil, eris.Wrap(err, "apollo: search people")
	}
	return &result, nil
}

func (c *httpClient) MatchPerson(ctx context.Context, personID string) (*Person, error) {
	if personID == "" {
		return nil, eris.New("apollo: empty person id")
	}

	var result matchResponse
	body := map[string]string{"id": personID}
	if err := c.post(ctx, "/people/match", body, &result); err != nil {
		return nil, eris.Wrap(err, "apollo: match person")
	}
	if result.Person == nil {
		return nil, eris.Errorf("apollo: no person for id %s", personID)
	}
	return result.Person, nil
}

func (c *httpClient) post(ctx context.Context, path string, reqBody, out any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	cfg := c.retry
	cfg.OnRetry = resilience.RetryLogger("apollo", path)
	return resilience.Do(ctx, cfg, func(ctx context.Context) error {
		return c.postOnce(ctx, path, body, out)
	})
}

// postOnce runs a single rate-limited attempt. Transport failures and
// retryable statuses come back as transient so the retry wrapper acts on
// them.
func (c *httpClient) postOnce(ctx context.Context, path string, body []byte, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "rate limit wait")
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return resilience.NewTransientError(eris.Wrap(err, "send request"), 0)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response")
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return resilience.NewAuthError(eris.Errorf("credential rejected with status %d", resp.StatusCode), resp.StatusCode)
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return resilience.NewTransientError(eris.Errorf("status %d: %s", resp.StatusCode, string(respBody)), resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return eris.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return eris.Wrap(json.Unmarshal(respBody, out), "unmarshal response")
}
