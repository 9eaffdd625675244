// Package config handles site configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kangning-huang/scholarsync/internal/fetch"
	"github.com/kangning-huang/scholarsync/internal/fileutil"
	"github.com/kangning-huang/scholarsync/internal/scholar"
	"github.com/kangning-huang/scholarsync/internal/title"
)

const (
	SiteDir    = ".scholarsync"
	ConfigFile = "config.yml"
	CacheDir   = "cache"
	DBFile     = "history.db"
	LockFile   = "run.lock"
)

// Environment variables that override file values.
const (
	EnvAuthorID       = "SCHOLARSYNC_AUTHOR_ID"
	EnvOpenAlexMailto = "OPENALEX_MAILTO"
)

// ErrNoSite is returned when no .scholarsync directory can be found.
var ErrNoSite = errors.New("not in a scholarsync site (no .scholarsync directory found)")

// FetchConfig controls the HTTP fetcher and the Scholar paginator.
type FetchConfig struct {
	Attempts       int           `yaml:"attempts"`
	BaseDelay      time.Duration `yaml:"base_delay"`
	Timeout        time.Duration `yaml:"timeout"`
	PageSize       int           `yaml:"page_size"`
	PageDelay      time.Duration `yaml:"page_delay"`
	MaxPages       int           `yaml:"max_pages"`
	UserAgent      string        `yaml:"user_agent,omitempty"`
	BlockedMarkers []string      `yaml:"blocked_markers,omitempty"`
}

// MatchConfig holds the title matcher thresholds.
type MatchConfig struct {
	PrefixCap        int     `yaml:"prefix_cap"`
	OverlapThreshold float64 `yaml:"overlap_threshold"`
	MinWordLen       int     `yaml:"min_word_len"`
}

// Matcher builds a title.Matcher from the configured thresholds.
func (m MatchConfig) Matcher() title.Matcher {
	return title.Matcher{
		PrefixCap:        m.PrefixCap,
		OverlapThreshold: m.OverlapThreshold,
		MinWordLen:       m.MinWordLen,
	}
}

// SiteConfig represents site configuration stored in .scholarsync/config.yml.
type SiteConfig struct {
	AuthorID        string      `yaml:"author_id"`
	ScholarBaseURL  string      `yaml:"scholar_base_url,omitempty"`
	SnapshotPath    string      `yaml:"snapshot_path"`
	CuratedPath     string      `yaml:"curated_path"`
	BlogPath        string      `yaml:"blog_path"`
	CVPath          string      `yaml:"cv_path,omitempty"`
	BlogAPIURL      string      `yaml:"blog_api_url,omitempty"`
	BlogFeedURL     string      `yaml:"blog_feed_url,omitempty"`
	BlogBaseURL     string      `yaml:"blog_base_url,omitempty"`
	BlogLimit       int         `yaml:"blog_limit"`
	OpenAlexBaseURL string      `yaml:"openalex_base_url,omitempty"`
	OpenAlexMailto  string      `yaml:"openalex_mailto,omitempty"`
	Fetch           FetchConfig `yaml:"fetch"`
	Match           MatchConfig `yaml:"match"`
}

// Defaults returns a config with every tunable at its default value.
func Defaults() *SiteConfig {
	return &SiteConfig{
		ScholarBaseURL: scholar.BaseURL,
		SnapshotPath:   "src/data/scholar-citations.json",
		CuratedPath:    "src/data/publications.yml",
		BlogPath:       "src/data/blog-posts.json",
		BlogLimit:      10,
		Fetch: FetchConfig{
			Attempts:  fetch.DefaultAttempts,
			BaseDelay: fetch.DefaultBaseDelay,
			Timeout:   fetch.DefaultTimeout,
			PageSize:  scholar.DefaultPageSize,
			PageDelay: scholar.DefaultPageDelay,
			MaxPages:  scholar.DefaultMaxPages,
		},
		Match: MatchConfig{
			PrefixCap:        title.DefaultPrefixCap,
			OverlapThreshold: title.DefaultOverlapThreshold,
			MinWordLen:       title.DefaultMinWordLen,
		},
	}
}

// SitePath returns the path to the .scholarsync directory from a root path.
func SitePath(root string) string {
	return filepath.Join(root, SiteDir)
}

// ConfigPath returns the path to config.yml from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, SiteDir, ConfigFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, SiteDir, CacheDir)
}

// DBPath returns the path to history.db from a root path.
func DBPath(root string) string {
	return filepath.Join(CachePath(root), DBFile)
}

// LockPath returns the path to the run lock from a root path.
func LockPath(root string) string {
	return filepath.Join(root, SiteDir, LockFile)
}

// IsSite checks if the given path contains a .scholarsync directory.
func IsSite(root string) bool {
	info, err := os.Stat(SitePath(root))
	return err == nil && info.IsDir()
}

// FindSite walks up from the given path to find a site root.
func FindSite(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsSite(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNoSite
		}
		abs = parent
	}
}

// ResolveSite picks the site root: an explicit path wins, then discovery
// from start, then site_path from the global config.
func ResolveSite(explicit, start string) (string, error) {
	if explicit != "" {
		root, err := filepath.Abs(ExpandPath(explicit))
		if err != nil {
			return "", fmt.Errorf("resolving path: %w", err)
		}
		if !IsSite(root) {
			return "", fmt.Errorf("%w: %s", ErrNoSite, root)
		}
		return root, nil
	}

	root, err := FindSite(start)
	if err == nil {
		return root, nil
	}

	if global := GetSitePath(); global != "" && IsSite(global) {
		return global, nil
	}
	return "", err
}

// Load reads configuration from the site at the given root. Fields absent
// from the file keep their defaults, and environment overrides are applied.
func Load(root string) (*SiteConfig, error) {
	cfg, err := LoadFile(root)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	if cfg.OpenAlexMailto == "" {
		cfg.OpenAlexMailto = GetOpenAlexMailto()
	}
	return cfg, nil
}

// LoadFile reads the config file alone, without environment or global
// overrides. Use it before Save so overrides are not persisted.
func LoadFile(root string) (*SiteConfig, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of Defaults.
func Parse(data []byte) (*SiteConfig, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides file values with non-empty environment variables.
func (c *SiteConfig) ApplyEnv() {
	if v := os.Getenv(EnvAuthorID); v != "" {
		c.AuthorID = v
	}
	if v := os.Getenv(EnvOpenAlexMailto); v != "" {
		c.OpenAlexMailto = v
	}
}

// Save writes configuration to the site at the given root.
func (c *SiteConfig) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := fileutil.WriteFileAtomic(ConfigPath(root), data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks the values a sync run depends on.
func (c *SiteConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.AuthorID) == "" {
		errs = append(errs, fmt.Errorf("author_id is required (or set %s)", EnvAuthorID))
	}
	if c.Fetch.Attempts < 1 {
		errs = append(errs, fmt.Errorf("fetch.attempts must be at least 1, got %d", c.Fetch.Attempts))
	}
	if c.Fetch.PageSize < 1 {
		errs = append(errs, fmt.Errorf("fetch.page_size must be at least 1, got %d", c.Fetch.PageSize))
	}
	if c.Match.OverlapThreshold <= 0 || c.Match.OverlapThreshold > 1 {
		errs = append(errs, fmt.Errorf("match.overlap_threshold must be in (0, 1], got %g", c.Match.OverlapThreshold))
	}
	if c.Match.PrefixCap < 1 {
		errs = append(errs, fmt.Errorf("match.prefix_cap must be at least 1, got %d", c.Match.PrefixCap))
	}
	return errors.Join(errs...)
}

// Resolve returns p joined to root unless it is already absolute.
func Resolve(root, p string) string {
	if p == "" {
		return ""
	}
	p = ExpandPath(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}

// Keys lists the settable scalar keys in display order.
var Keys = []string{
	"author-id", "scholar-base-url", "snapshot-path", "curated-path",
	"blog-path", "cv-path", "blog-api-url", "blog-feed-url", "blog-base-url",
	"blog-limit", "openalex-base-url", "openalex-mailto",
}

// NormalizeKey converts key formats (author_id, Author-ID) to author-id.
func NormalizeKey(key string) string {
	key = strings.ToLower(key)
	return strings.ReplaceAll(key, "_", "-")
}

func (c *SiteConfig) field(key string) (*string, bool) {
	switch NormalizeKey(key) {
	case "author-id":
		return &c.AuthorID, true
	case "scholar-base-url":
		return &c.ScholarBaseURL, true
	case "snapshot-path":
		return &c.SnapshotPath, true
	case "curated-path":
		return &c.CuratedPath, true
	case "blog-path":
		return &c.BlogPath, true
	case "cv-path":
		return &c.CVPath, true
	case "blog-api-url":
		return &c.BlogAPIURL, true
	case "blog-feed-url":
		return &c.BlogFeedURL, true
	case "blog-base-url":
		return &c.BlogBaseURL, true
	case "openalex-base-url":
		return &c.OpenAlexBaseURL, true
	case "openalex-mailto":
		return &c.OpenAlexMailto, true
	}
	return nil, false
}

// Get returns the value of a scalar key.
func (c *SiteConfig) Get(key string) (string, error) {
	if NormalizeKey(key) == "blog-limit" {
		return strconv.Itoa(c.BlogLimit), nil
	}
	f, ok := c.field(key)
	if !ok {
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
	return *f, nil
}

// Set assigns a scalar key.
func (c *SiteConfig) Set(key, value string) error {
	if NormalizeKey(key) == "blog-limit" {
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("blog-limit must be a positive integer, got %q", value)
		}
		c.BlogLimit = n
		return nil
	}
	f, ok := c.field(key)
	if !ok {
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	*f = value
	return nil
}
