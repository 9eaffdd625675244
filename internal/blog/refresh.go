package blog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNoPosts is recorded when a source answers with an empty list.
var ErrNoPosts = errors.New("source returned no posts")

// RefreshResult describes what Refresh did.
type RefreshResult struct {
	Source   string  `json:"source,omitempty"` // empty when the existing file was kept
	Posts    int     `json:"posts"`
	Kept     bool    `json:"kept"`
	Failures []error `json:"-"`
}

// Refresh asks each source in order and writes the first non-empty list to
// store. When every source fails or returns nothing the existing file is
// left as it is and Kept is set; that is not an error. The returned error
// is reserved for a failed write or a cancelled context.
func Refresh(ctx context.Context, store *Store, logger *slog.Logger, sources ...Source) (*RefreshResult, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	result := &RefreshResult{}

	for _, src := range sources {
		posts, err := src.Posts(ctx)
		if err == nil && len(posts) == 0 {
			err = ErrNoPosts
		}
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			logger.Warn("blog source failed", "source", src.Name(), "error", err)
			result.Failures = append(result.Failures, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}

		if err := store.Save(posts); err != nil {
			return result, err
		}
		result.Source = src.Name()
		result.Posts = len(posts)
		logger.Info("blog posts written", "source", src.Name(), "posts", len(posts), "path", store.Path())
		return result, nil
	}

	existing, err := store.Load()
	if err == nil {
		result.Posts = len(existing)
	}
	result.Kept = true
	logger.Warn("all blog sources failed, keeping existing posts", "path", store.Path(), "posts", result.Posts)
	return result, nil
}
