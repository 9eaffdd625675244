package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kangning-huang/scholarsync/internal/blog"
	"github.com/kangning-huang/scholarsync/internal/config"
)

var blogLimit int

func init() {
	blogCmd.Flags().IntVar(&blogLimit, "limit", 0, "Number of posts to keep (default: blog_limit from config)")
	rootCmd.AddCommand(blogCmd)
}

var blogCmd = &cobra.Command{
	Use:   "blog",
	Short: "Refresh the recent blog posts file",
	Long: `Fetch recent posts from the blog's JSON API, falling back to its RSS feed.

When neither source yields posts the existing posts file is kept unchanged
and the command still succeeds.`,
	Args: cobra.NoArgs,
	RunE: runBlog,
}

// BlogResponse is the response for the blog command.
type BlogResponse struct {
	*blog.RefreshResult
	Path     string   `json:"path"`
	Failures []string `json:"failures,omitempty"`
}

func runBlog(cmd *cobra.Command, args []string) error {
	root := mustFindSite()
	cfg := mustLoadConfig(root)

	limit := cfg.BlogLimit
	if blogLimit > 0 {
		limit = blogLimit
	}

	f := newBlogFetcher(cfg)
	var sources []blog.Source
	if cfg.BlogAPIURL != "" {
		sources = append(sources, blog.NewAPIClient(f, cfg.BlogAPIURL, cfg.BlogBaseURL, limit))
	}
	if cfg.BlogFeedURL != "" {
		sources = append(sources, blog.NewFeedClient(f, cfg.BlogFeedURL, limit))
	}
	if len(sources) == 0 {
		exitWithError(ExitConfigError, "no blog source configured (set blog-api-url or blog-feed-url)")
	}

	store := blog.NewStore(config.Resolve(root, cfg.BlogPath))
	result, err := blog.Refresh(cmd.Context(), store, logger, sources...)
	if err != nil {
		exitWithError(ExitError, "refreshing blog posts: %v", err)
	}

	resp := BlogResponse{RefreshResult: result, Path: store.Path()}
	for _, e := range result.Failures {
		resp.Failures = append(resp.Failures, e.Error())
	}

	if humanOutput {
		if result.Kept {
			fmt.Printf("Blog sources failed; kept %d existing posts in %s\n", result.Posts, store.Path())
			for _, f := range resp.Failures {
				fmt.Printf("  %s\n", f)
			}
		} else {
			fmt.Printf("Wrote %d posts from %s to %s\n", result.Posts, result.Source, store.Path())
		}
		return nil
	}
	return outputJSON(resp)
}
