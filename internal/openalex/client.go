// Package openalex looks up citation counts for DOIs on OpenAlex.
package openalex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kangning-huang/scholarsync/internal/publication"
)

const (
	// BaseURL is the OpenAlex REST API base URL.
	BaseURL = "https://api.openalex.org"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit stays well under the polite-pool allowance of 10 req/s.
	RateLimit = 5.0

	// BatchSize keeps the pipe-separated DOI filter within URL length limits.
	BatchSize = 25

	perPage = 50
)

// Client is a rate-limited HTTP client for the OpenAlex works endpoint.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	mailto     string
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithMailto sets the contact address that places requests in the polite pool.
func WithMailto(addr string) ClientOption {
	return func(c *Client) {
		c.mailto = addr
	}
}

// WithRateLimit overrides the request rate. Zero or less disables limiting.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithLogger sets the logger used for skipped batches.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a new OpenAlex client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
		logger:     slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type worksResponse struct {
	Results []work `json:"results"`
}

type work struct {
	DOI          string `json:"doi"`
	CitedByCount *int   `json:"cited_by_count"`
}

// CitationCounts returns cited_by_count keyed by normalized DOI. DOIs are
// looked up in batches of BatchSize. A failing batch is logged and skipped:
// the map holds every batch that succeeded and the error joins the
// *BatchError values of the ones that did not. Context cancellation stops
// the lookup and is returned as is.
func (c *Client) CitationCounts(ctx context.Context, dois []string) (map[string]int, error) {
	counts := make(map[string]int)
	unique := dedupeDOIs(dois)

	var errs []error
	for i, start := 0, 0; start < len(unique); i, start = i+1, start+BatchSize {
		end := min(start+BatchSize, len(unique))
		batch := unique[start:end]

		works, err := c.lookup(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return counts, ctx.Err()
			}
			c.logger.Warn("openalex batch skipped", "batch", i, "size", len(batch), "error", err)
			errs = append(errs, &BatchError{Index: i, Size: len(batch), Err: err})
			continue
		}

		for _, w := range works {
			if w.DOI == "" || w.CitedByCount == nil {
				continue
			}
			counts[publication.NormalizeDOI(w.DOI)] = *w.CitedByCount
		}
	}

	return counts, errors.Join(errs...)
}

// WorksURL builds the batch lookup URL for already-normalized DOIs.
func (c *Client) WorksURL(dois []string) string {
	filter := make([]string, len(dois))
	for i, d := range dois {
		filter[i] = "https://doi.org/" + d
	}

	params := url.Values{}
	params.Set("filter", "doi:"+strings.Join(filter, "|"))
	params.Set("select", "doi,cited_by_count")
	params.Set("per_page", fmt.Sprint(perPage))
	if c.mailto != "" {
		params.Set("mailto", c.mailto)
	}
	return c.baseURL + "/works?" + params.Encode()
}

func (c *Client) lookup(ctx context.Context, dois []string) ([]work, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.WorksURL(dois), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var parsed worksResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return parsed.Results, nil
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}
	return nil
}

func dedupeDOIs(dois []string) []string {
	seen := make(map[string]struct{}, len(dois))
	out := make([]string, 0, len(dois))
	for _, d := range dois {
		n := publication.NormalizeDOI(d)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
