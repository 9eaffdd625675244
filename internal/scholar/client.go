// Package scholar fetches and extracts citation data from a Google Scholar
// author profile.
package scholar

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kangning-huang/scholarsync/internal/fetch"
	"github.com/kangning-huang/scholarsync/internal/snapshot"
)

const (
	// BaseURL is the Scholar host.
	BaseURL = "https://scholar.google.com"

	// DefaultPageSize is the largest page Scholar serves.
	DefaultPageSize = 100

	// DefaultPageDelay spaces consecutive page requests.
	DefaultPageDelay = 1500 * time.Millisecond

	// DefaultMaxPages bounds pagination if the end-of-list signals never fire.
	DefaultMaxPages = 50
)

// Client walks one author's profile.
type Client struct {
	fetcher  *fetch.Client
	parser   *Parser
	authorID string
	baseURL  string
	pageSize int
	maxPages int
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another host (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithPageSize sets the pagesize parameter and the short-page threshold.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithPageDelay sets the minimum spacing between page requests. Zero or
// negative disables pacing.
func WithPageDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.limiter = newPageLimiter(d)
	}
}

// WithMaxPages caps the number of page requests.
func WithMaxPages(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a profile client for authorID using f for transport.
func NewClient(f *fetch.Client, authorID string, opts ...ClientOption) *Client {
	c := &Client{
		fetcher:  f,
		parser:   NewParser(),
		authorID: authorID,
		baseURL:  BaseURL,
		pageSize: DefaultPageSize,
		maxPages: DefaultMaxPages,
		limiter:  newPageLimiter(DefaultPageDelay),
		logger:   slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func newPageLimiter(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

// ProfileURL returns the English profile page URL.
func (c *Client) ProfileURL() string {
	q := url.Values{}
	q.Set("user", c.authorID)
	q.Set("hl", "en")
	return c.baseURL + "/citations?" + q.Encode()
}

// PageURL returns the publication list URL starting at offset start.
func (c *Client) PageURL(start int) string {
	q := url.Values{}
	q.Set("user", c.authorID)
	q.Set("hl", "en")
	q.Set("cstart", strconv.Itoa(start))
	q.Set("pagesize", strconv.Itoa(c.pageSize))
	return c.baseURL + "/citations?" + q.Encode()
}

// FetchProfile fetches and parses the profile page. Any error here means
// the profile is unreachable.
func (c *Client) FetchProfile(ctx context.Context) (*Profile, error) {
	res, err := c.fetcher.Get(ctx, c.ProfileURL())
	if err != nil {
		return nil, fmt.Errorf("fetching profile %s: %w", c.authorID, err)
	}

	profile, err := c.parser.ParseProfile(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing profile %s: %w", c.authorID, err)
	}

	for _, p := range profile.Problems {
		c.logger.Warn("profile field defaulted", "author", c.authorID, "problem", p)
	}
	return profile, nil
}

// Publications is the accumulated result of walking the paginated list.
type Publications struct {
	Items    []snapshot.Publication
	Requests int
	// Partial is true when a page failed and the walk stopped early.
	Partial bool
}

// FetchAllPublications walks the publication list one page at a time. It
// stops at the first page shorter than the page size, at a page without a
// next control, or at the first failing page. On failure it returns what
// was accumulated together with the error.
func (c *Client) FetchAllPublications(ctx context.Context) (*Publications, error) {
	out := &Publications{Items: []snapshot.Publication{}}

	for page := 0; page < c.maxPages; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			out.Partial = true
			return out, fmt.Errorf("waiting for page slot: %w", err)
		}

		start := page * c.pageSize
		c.logger.Debug("fetching publications page", "start", start, "pagesize", c.pageSize)

		out.Requests++
		res, err := c.fetcher.Get(ctx, c.PageURL(start))
		if err != nil {
			out.Partial = true
			return out, fmt.Errorf("publications page at %d: %w", start, err)
		}

		pg, problems, err := c.parser.ParsePublications(res.Body)
		if err != nil {
			out.Partial = true
			return out, fmt.Errorf("parsing publications page at %d: %w", start, err)
		}
		for _, p := range problems {
			c.logger.Warn("publication row defaulted", "start", start, "problem", p)
		}

		out.Items = append(out.Items, pg.Publications...)
		c.logger.Info("publications page fetched", "start", start, "found", len(pg.Publications))

		if len(pg.Publications) < c.pageSize || !pg.HasNext {
			return out, nil
		}
	}

	c.logger.Warn("publication pagination hit page cap", "max_pages", c.maxPages)
	return out, nil
}
