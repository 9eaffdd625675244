package blog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/kangning-huang/scholarsync/internal/fetch"
)

// FeedClient reads posts from an RSS or Atom feed.
type FeedClient struct {
	fetcher *fetch.Client
	parser  *gofeed.Parser
	feedURL string
	limit   int
}

// NewFeedClient creates a feed client for feedURL.
func NewFeedClient(f *fetch.Client, feedURL string, limit int) *FeedClient {
	if limit < 1 {
		limit = DefaultLimit
	}
	return &FeedClient{
		fetcher: f,
		parser:  gofeed.NewParser(),
		feedURL: feedURL,
		limit:   limit,
	}
}

// Name identifies the source in logs and output.
func (c *FeedClient) Name() string { return "rss" }

// Posts fetches the feed and maps its items. Items without a title or link
// are dropped.
func (c *FeedClient) Posts(ctx context.Context) ([]Post, error) {
	res, err := c.fetcher.Get(ctx, c.feedURL)
	if err != nil {
		return nil, err
	}

	feed, err := c.parser.ParseString(string(res.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	posts := make([]Post, 0, min(len(feed.Items), c.limit))
	for _, item := range feed.Items {
		if len(posts) == c.limit {
			break
		}
		title := strings.TrimSpace(item.Title)
		if title == "" || item.Link == "" {
			continue
		}

		var published time.Time
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}

		summary := item.Description
		if summary == "" {
			summary = item.Content
		}
		excerpt := truncateRunes(StripHTML(summary), FeedExcerptLen)

		post := Post{
			Title:   title,
			Date:    formatDate(published),
			Excerpt: excerpt,
			URL:     item.Link,
		}
		if item.Image != nil && item.Image.URL != "" {
			cover := item.Image.URL
			post.CoverImage = &cover
		}
		posts = append(posts, post)
	}
	return posts, nil
}
