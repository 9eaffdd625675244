package blog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kangning-huang/scholarsync/internal/fetch"
)

// DefaultLimit is how many posts are requested.
const DefaultLimit = 10

// APIClient reads posts from the Substack JSON API.
type APIClient struct {
	fetcher *fetch.Client
	apiURL  string
	baseURL string
	limit   int
}

// NewAPIClient creates a client for apiURL (…/api/v1/posts). baseURL is the
// publication root used to build post links when canonical_url is missing.
func NewAPIClient(f *fetch.Client, apiURL, baseURL string, limit int) *APIClient {
	if limit < 1 {
		limit = DefaultLimit
	}
	return &APIClient{
		fetcher: f,
		apiURL:  apiURL,
		baseURL: strings.TrimRight(baseURL, "/"),
		limit:   limit,
	}
}

// Name identifies the source in logs and output.
func (c *APIClient) Name() string { return "api" }

type substackPost struct {
	Title             string `json:"title"`
	PostDate          string `json:"post_date"`
	Subtitle          string `json:"subtitle"`
	Description       string `json:"description"`
	BodyHTML          string `json:"body_html"`
	TruncatedBodyText string `json:"truncated_body_text"`
	CanonicalURL      string `json:"canonical_url"`
	Slug              string `json:"slug"`
	CoverImage        string `json:"cover_image"`
	Wordcount         int    `json:"wordcount"`
}

// RequestURL returns the API URL with the limit applied.
func (c *APIClient) RequestURL() (string, error) {
	u, err := url.Parse(c.apiURL)
	if err != nil {
		return "", fmt.Errorf("parsing blog api url: %w", err)
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(c.limit))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Posts fetches and maps the latest posts.
func (c *APIClient) Posts(ctx context.Context) ([]Post, error) {
	reqURL, err := c.RequestURL()
	if err != nil {
		return nil, err
	}

	res, err := c.fetcher.Get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var raw []substackPost
	if err := json.Unmarshal(res.Body, &raw); err != nil {
		return nil, fmt.Errorf("decoding substack posts: %w", err)
	}

	posts := make([]Post, 0, len(raw))
	for _, p := range raw {
		posts = append(posts, c.toPost(p))
	}
	return posts, nil
}

func (c *APIClient) toPost(p substackPost) Post {
	subtitle := p.Subtitle
	if subtitle == "" {
		subtitle = p.Description
	}

	var excerpt string
	switch body := StripHTML(p.BodyHTML); {
	case body != "":
		excerpt = truncateRunes(body, APIExcerptLen)
	case p.TruncatedBodyText != "":
		excerpt = truncateRunes(p.TruncatedBodyText, APIExcerptLen)
	default:
		excerpt = subtitle
	}

	link := p.CanonicalURL
	if link == "" && p.Slug != "" {
		link = c.baseURL + "/p/" + p.Slug
	}

	post := Post{
		Title:    p.Title,
		Date:     formatDate(parsePostDate(p.PostDate)),
		Subtitle: subtitle,
		Excerpt:  excerpt,
		URL:      link,
	}
	if p.CoverImage != "" {
		cover := p.CoverImage
		post.CoverImage = &cover
	}
	if p.Wordcount > 0 {
		wc := p.Wordcount
		post.Wordcount = &wc
	}
	return post
}

func parsePostDate(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
