// Package blog refreshes the list of recent blog posts shown on the site.
package blog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/kangning-huang/scholarsync/internal/fileutil"
)

// DateLayout is how post dates are displayed.
const DateLayout = "January 2, 2006"

// Excerpt limits in runes.
const (
	APIExcerptLen  = 800
	FeedExcerptLen = 200
)

// Post is one entry of the blog posts file.
type Post struct {
	Title      string  `json:"title"`
	Date       string  `json:"date"`
	Subtitle   string  `json:"subtitle"`
	Excerpt    string  `json:"excerpt"`
	URL        string  `json:"url"`
	CoverImage *string `json:"coverImage"`
	Wordcount  *int    `json:"wordcount"`
}

// Source yields recent posts.
type Source interface {
	Name() string
	Posts(ctx context.Context) ([]Post, error)
}

// Store persists the posts file.
type Store struct {
	path string
}

// NewStore creates a store for the JSON file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the posts file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the stored posts. A missing file yields an empty list.
func (s *Store) Load() ([]Post, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Post{}, nil
		}
		return nil, fmt.Errorf("reading posts: %w", err)
	}

	var posts []Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("parsing posts %s: %w", s.path, err)
	}
	return posts, nil
}

// Save replaces the posts file.
func (s *Store) Save(posts []Post) error {
	if posts == nil {
		posts = []Post{}
	}
	data, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding posts: %w", err)
	}
	data = append(data, '\n')

	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing posts: %w", err)
	}
	return nil
}

const subscriptionWidget = `.subscription-widget-wrap, [class^="subscription-widget-wrap"]`

// StripHTML returns the visible text of an HTML fragment with Substack
// subscription widgets removed and whitespace collapsed.
func StripHTML(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	doc.Find(subscriptionWidget).Remove()
	doc.Find("script, style").Remove()

	var parts []string
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				parts = append(parts, c.Text())
				return
			}
			walk(c)
		})
	}
	walk(doc.Selection)

	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// formatDate renders t as DateLayout in UTC; a zero time gives "".
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}
