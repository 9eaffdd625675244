// Package fetch retrieves remote documents with bounded, linearly backed-off
// retries and explicit detection of bot-blocking pages.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultAttempts is the total number of tries per request.
	DefaultAttempts = 3

	// DefaultBaseDelay is multiplied by the attempt number between tries.
	DefaultBaseDelay = 2 * time.Second

	// DefaultTimeout bounds each individual attempt.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent mimics a desktop browser; Scholar serves a reduced
	// page to unknown agents.
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// maxBodyBytes caps how much of a response is read.
	maxBodyBytes = 16 << 20
)

// DefaultBlockedMarkers are lower-case substrings that identify CAPTCHA and
// rate-limit interstitials.
var DefaultBlockedMarkers = []string{
	"gs_captcha_f",
	"unusual traffic from your computer",
	"not a robot",
	"/sorry/index",
	"g-recaptcha",
}

// State is the position of a single Get call in its retry lifecycle.
type State int

const (
	StateIdle State = iota
	StateAttempting
	StateSucceeded
	StateBlocked
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAttempting:
		return "attempting"
	case StateSucceeded:
		return "succeeded"
	case StateBlocked:
		return "blocked"
	case StateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result is the outcome of a Get call. It is returned alongside errors so
// callers can log the final state and attempt count.
type Result struct {
	URL        string
	Body       []byte
	StatusCode int
	Attempts   int
	State      State
}

// Client performs GET requests with retry and block detection.
type Client struct {
	httpClient *http.Client
	attempts   int
	baseDelay  time.Duration
	timeout    time.Duration
	userAgent  string
	headers    map[string]string
	markers    [][]byte
	logger     *slog.Logger
	sleep      func(context.Context, time.Duration) error
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithAttempts sets the total number of tries. Values below 1 are ignored.
func WithAttempts(n int) ClientOption {
	return func(c *Client) {
		if n >= 1 {
			c.attempts = n
		}
	}
}

// WithBaseDelay sets the linear backoff unit.
func WithBaseDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.baseDelay = d
	}
}

// WithTimeout sets the per-attempt deadline.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHeader adds a request header to every attempt.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithBlockedMarkers replaces the bot-detection markers. Matching is
// case-insensitive. An empty list disables block detection.
func WithBlockedMarkers(markers []string) ClientOption {
	return func(c *Client) {
		c.markers = lowerAll(markers)
	}
}

// WithLogger sets the logger used for attempt diagnostics.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSleep replaces the backoff sleeper (for testing).
func WithSleep(fn func(context.Context, time.Duration) error) ClientOption {
	return func(c *Client) {
		c.sleep = fn
	}
}

// NewClient creates a fetch client with browser-like defaults.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{},
		attempts:   DefaultAttempts,
		baseDelay:  DefaultBaseDelay,
		timeout:    DefaultTimeout,
		userAgent:  DefaultUserAgent,
		headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.5",
		},
		markers: lowerAll(DefaultBlockedMarkers),
		logger:  slog.New(slog.DiscardHandler),
		sleep:   sleepContext,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Attempts returns the configured retry budget.
func (c *Client) Attempts() int {
	return c.attempts
}

// Get fetches url. A blocked page fails immediately with *BlockedError;
// transient failures are retried with delay attempt × base delay until the
// budget is spent, which yields *FetchError.
func (c *Client) Get(ctx context.Context, url string) (*Result, error) {
	res := &Result{URL: url, State: StateIdle}
	var last error

	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			delay := time.Duration(attempt-1) * c.baseDelay
			if err := c.sleep(ctx, delay); err != nil {
				return res, err
			}
		}

		res.State = StateAttempting
		res.Attempts = attempt

		body, status, err := c.do(ctx, url)
		res.StatusCode = status

		if marker := c.blockedMarker(body); marker != "" {
			res.State = StateBlocked
			c.logger.Error("fetch blocked", "url", url, "attempt", attempt, "status", status, "marker", marker)
			return res, &BlockedError{URL: url, Marker: marker, Attempt: attempt, StatusCode: status}
		}

		if err == nil {
			res.Body = body
			res.State = StateSucceeded
			c.logger.Debug("fetch succeeded", "url", url, "attempt", attempt, "bytes", len(body))
			return res, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}

		last = err
		c.logger.Warn("fetch attempt failed",
			"url", url,
			"attempt", attempt,
			"of", c.attempts,
			"status", status,
			"error", err)
	}

	res.State = StateExhausted
	return res, &FetchError{URL: url, Attempts: c.attempts, Last: last}
}

// do performs one attempt under its own deadline.
func (c *Client) do(ctx context.Context, url string) ([]byte, int, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, &TransientError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &TransientError{
			URL:     url,
			Timeout: errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil,
			Err:     err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, &TransientError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Timeout:    errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil,
			Err:        fmt.Errorf("reading body: %w", err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return body, resp.StatusCode, &TransientError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	return body, resp.StatusCode, nil
}

// blockedMarker returns the first marker found in body, or "".
func (c *Client) blockedMarker(body []byte) string {
	if len(body) == 0 || len(c.markers) == 0 {
		return ""
	}
	lower := bytes.ToLower(body)
	for _, m := range c.markers {
		if bytes.Contains(lower, m) {
			return string(m)
		}
	}
	return ""
}

func lowerAll(markers []string) [][]byte {
	out := make([][]byte, 0, len(markers))
	for _, m := range markers {
		if m == "" {
			continue
		}
		out = append(out, bytes.ToLower([]byte(m)))
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
