package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/kangning-huang/scholarsync/internal/config"
	"github.com/kangning-huang/scholarsync/internal/fetch"
	"github.com/kangning-huang/scholarsync/internal/history"
	"github.com/kangning-huang/scholarsync/internal/scholar"
	"github.com/kangning-huang/scholarsync/internal/snapshot"
)

// blogAccept asks feed and API endpoints for machine-readable bodies.
const blogAccept = "application/json, application/rss+xml, application/xml;q=0.9, */*;q=0.8"

// mustFindSite resolves the site root from --site, the working directory
// or the global config, and exits on error.
func mustFindSite() string {
	cwd, err := os.Getwd()
	if err != nil {
		os.Exit(outputError(ExitError, "getting current directory: %v", err))
	}

	root, err := config.ResolveSite(sitePath, cwd)
	if err != nil {
		if errors.Is(err, config.ErrNoSite) && sitePath == "" {
			fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
			os.Exit(ExitConfigError)
		}
		exitWithError(ExitConfigError, "%v", err)
	}
	return root
}

// mustLoadConfig loads the site configuration, exits on error.
func mustLoadConfig(root string) *config.SiteConfig {
	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustValidConfig loads the configuration and exits when a sync could not run with it.
func mustValidConfig(root string) *config.SiteConfig {
	cfg := mustLoadConfig(root)
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "invalid config: %v", err)
	}
	return cfg
}

// mustOpenHistory opens the run history database, exits on error.
func mustOpenHistory(root string) *history.DB {
	db, err := history.OpenDB(config.DBPath(root))
	if err != nil {
		exitWithError(ExitDataError, "opening history: %v", err)
	}
	return db
}

// mustLoadSnapshot reads the stored snapshot and exits when there is none.
func mustLoadSnapshot(root string, cfg *config.SiteConfig) (*snapshot.Store, *snapshot.Snapshot) {
	store := snapshot.NewStore(config.Resolve(root, cfg.SnapshotPath))
	snap, err := store.Load()
	if err != nil {
		exitWithError(ExitDataError, "reading snapshot: %v", err)
	}
	if snap == nil {
		exitWithError(ExitDataError, "no snapshot at %s (run scholarsync sync first)", store.Path())
	}
	return store, snap
}

// newScholarFetcher builds the fetcher used against Scholar pages.
func newScholarFetcher(cfg *config.SiteConfig) *fetch.Client {
	opts := []fetch.ClientOption{
		fetch.WithAttempts(cfg.Fetch.Attempts),
		fetch.WithBaseDelay(cfg.Fetch.BaseDelay),
		fetch.WithTimeout(cfg.Fetch.Timeout),
		fetch.WithHeader("Accept-Language", "en-US,en;q=0.9"),
		fetch.WithLogger(logger),
	}
	if cfg.Fetch.UserAgent != "" {
		opts = append(opts, fetch.WithUserAgent(cfg.Fetch.UserAgent))
	}
	if len(cfg.Fetch.BlockedMarkers) > 0 {
		opts = append(opts, fetch.WithBlockedMarkers(cfg.Fetch.BlockedMarkers))
	}
	return fetch.NewClient(opts...)
}

// newBlogFetcher builds the fetcher used for the blog API and feed. Blog
// hosts do not serve bot challenges, so block detection is off.
func newBlogFetcher(cfg *config.SiteConfig) *fetch.Client {
	return fetch.NewClient(
		fetch.WithAttempts(cfg.Fetch.Attempts),
		fetch.WithBaseDelay(cfg.Fetch.BaseDelay),
		fetch.WithTimeout(cfg.Fetch.Timeout),
		fetch.WithHeader("Accept", blogAccept),
		fetch.WithBlockedMarkers(nil),
		fetch.WithLogger(logger),
	)
}

func newScholarClient(cfg *config.SiteConfig) *scholar.Client {
	opts := []scholar.ClientOption{
		scholar.WithPageSize(cfg.Fetch.PageSize),
		scholar.WithPageDelay(cfg.Fetch.PageDelay),
		scholar.WithMaxPages(cfg.Fetch.MaxPages),
		scholar.WithLogger(logger),
	}
	if cfg.ScholarBaseURL != "" {
		opts = append(opts, scholar.WithBaseURL(cfg.ScholarBaseURL))
	}
	return scholar.NewClient(newScholarFetcher(cfg), cfg.AuthorID, opts...)
}
