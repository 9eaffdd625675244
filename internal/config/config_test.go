package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestPathFunctions(t *testing.T) {
	root := "/test/site"

	tests := []struct {
		name string
		fn   func(string) string
		want string
	}{
		{"SitePath", SitePath, "/test/site/.scholarsync"},
		{"ConfigPath", ConfigPath, "/test/site/.scholarsync/config.yml"},
		{"CachePath", CachePath, "/test/site/.scholarsync/cache"},
		{"DBPath", DBPath, "/test/site/.scholarsync/cache/history.db"},
		{"LockPath", LockPath, "/test/site/.scholarsync/run.lock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn(root)
			if got != tt.want {
				t.Errorf("%s(%q) = %q, want %q", tt.name, root, got, tt.want)
			}
		})
	}
}

func TestIsSite_FileNotDir(t *testing.T) {
	tmpDir := t.TempDir()

	if IsSite(tmpDir) {
		t.Error("IsSite() = true for plain directory")
	}

	if err := os.WriteFile(filepath.Join(tmpDir, SiteDir), []byte("not a dir"), 0644); err != nil {
		t.Fatal(err)
	}
	if IsSite(tmpDir) {
		t.Error("IsSite() = true when .scholarsync is a file")
	}
}

func TestFindSite(t *testing.T) {
	tmpDir := t.TempDir()
	siteDir := filepath.Join(tmpDir, "site")
	nestedDir := filepath.Join(siteDir, "src", "data")

	if err := os.MkdirAll(nestedDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(SitePath(siteDir), 0755); err != nil {
		t.Fatal(err)
	}

	found, err := FindSite(nestedDir)
	if err != nil {
		t.Fatalf("FindSite() error = %v", err)
	}
	if found != siteDir {
		t.Errorf("FindSite() = %q, want %q", found, siteDir)
	}

	if _, err := FindSite(tmpDir); !errors.Is(err, ErrNoSite) {
		t.Errorf("FindSite() outside a site error = %v, want ErrNoSite", err)
	}
}

func TestResolveSite_Explicit(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	site := t.TempDir()
	if _, err := ResolveSite(site, "."); !errors.Is(err, ErrNoSite) {
		t.Errorf("ResolveSite() on plain dir error = %v, want ErrNoSite", err)
	}

	if err := os.Mkdir(SitePath(site), 0755); err != nil {
		t.Fatal(err)
	}
	got, err := ResolveSite(site, "/")
	if err != nil || got != site {
		t.Errorf("ResolveSite() = (%q, %v), want %q", got, err, site)
	}
}

func TestResolveSite_GlobalFallback(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)

	site := t.TempDir()
	if err := os.Mkdir(SitePath(site), 0755); err != nil {
		t.Fatal(err)
	}
	writeGlobal(t, configHome, "site_path: "+site+"\n")

	got, err := ResolveSite("", t.TempDir())
	if err != nil {
		t.Fatalf("ResolveSite() error = %v", err)
	}
	if got != site {
		t.Errorf("ResolveSite() = %q, want %q", got, site)
	}
}

func TestParse_DefaultsFillMissingFields(t *testing.T) {
	cfg, err := Parse([]byte("author_id: s_domssAAAAJ\nfetch:\n  attempts: 5\n  page_delay: 3s\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.AuthorID != "s_domssAAAAJ" {
		t.Errorf("AuthorID = %q", cfg.AuthorID)
	}
	if cfg.Fetch.Attempts != 5 {
		t.Errorf("Attempts = %d, want 5", cfg.Fetch.Attempts)
	}
	if cfg.Fetch.PageDelay != 3*time.Second {
		t.Errorf("PageDelay = %v, want 3s", cfg.Fetch.PageDelay)
	}
	if cfg.Fetch.BaseDelay != 2*time.Second || cfg.Fetch.Timeout != 30*time.Second {
		t.Errorf("delays = %v / %v, want defaults", cfg.Fetch.BaseDelay, cfg.Fetch.Timeout)
	}
	if cfg.Fetch.PageSize != 100 {
		t.Errorf("PageSize = %d, want 100", cfg.Fetch.PageSize)
	}
	if cfg.Match.PrefixCap != 50 || cfg.Match.OverlapThreshold != 0.7 || cfg.Match.MinWordLen != 3 {
		t.Errorf("Match = %+v, want defaults", cfg.Match)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("fetch: [unclosed")); err == nil {
		t.Error("Parse() should fail on malformed YAML")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvAuthorID, "")
	t.Setenv(EnvOpenAlexMailto, "")

	root := t.TempDir()
	cfg := Defaults()
	cfg.AuthorID = "s_domssAAAAJ"
	cfg.CVPath = "public/cv.tex"
	cfg.Fetch.BlockedMarkers = []string{"captcha"}

	if err := cfg.Save(root); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(root)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.AuthorID != cfg.AuthorID || loaded.CVPath != cfg.CVPath {
		t.Errorf("Load() = %+v", loaded)
	}
	if loaded.Fetch.PageDelay != 1500*time.Millisecond {
		t.Errorf("PageDelay = %v after round trip", loaded.Fetch.PageDelay)
	}
	if len(loaded.Fetch.BlockedMarkers) != 1 || loaded.Fetch.BlockedMarkers[0] != "captcha" {
		t.Errorf("BlockedMarkers = %v", loaded.Fetch.BlockedMarkers)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	writeGlobal(t, configHome, "openalex_mailto: global@example.org\n")

	root := t.TempDir()
	cfg := Defaults()
	cfg.AuthorID = "from-file"
	if err := cfg.Save(root); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvAuthorID, "from-env")
	t.Setenv(EnvOpenAlexMailto, "")

	loaded, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.AuthorID != "from-env" {
		t.Errorf("AuthorID = %q, want env override", loaded.AuthorID)
	}
	if loaded.OpenAlexMailto != "global@example.org" {
		t.Errorf("OpenAlexMailto = %q, want global fallback", loaded.OpenAlexMailto)
	}
}

func TestLoadFile_IgnoresEnv(t *testing.T) {
	root := t.TempDir()
	cfg := Defaults()
	cfg.AuthorID = "from-file"
	if err := cfg.Save(root); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvAuthorID, "from-env")

	loaded, err := LoadFile(root)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.AuthorID != "from-file" {
		t.Errorf("AuthorID = %q, want file value", loaded.AuthorID)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load() should fail without a config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *SiteConfig {
		cfg := Defaults()
		cfg.AuthorID = "abc"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*SiteConfig)
		wantErr string
	}{
		{"valid", func(*SiteConfig) {}, ""},
		{"empty author", func(c *SiteConfig) { c.AuthorID = "  " }, "author_id"},
		{"zero attempts", func(c *SiteConfig) { c.Fetch.Attempts = 0 }, "fetch.attempts"},
		{"zero page size", func(c *SiteConfig) { c.Fetch.PageSize = 0 }, "fetch.page_size"},
		{"threshold zero", func(c *SiteConfig) { c.Match.OverlapThreshold = 0 }, "overlap_threshold"},
		{"threshold above one", func(c *SiteConfig) { c.Match.OverlapThreshold = 1.2 }, "overlap_threshold"},
		{"threshold one", func(c *SiteConfig) { c.Match.OverlapThreshold = 1 }, ""},
		{"prefix cap", func(c *SiteConfig) { c.Match.PrefixCap = 0 }, "prefix_cap"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	if got := Resolve("/site", "src/data/x.json"); got != "/site/src/data/x.json" {
		t.Errorf("Resolve(relative) = %q", got)
	}
	if got := Resolve("/site", "/abs/x.json"); got != "/abs/x.json" {
		t.Errorf("Resolve(absolute) = %q", got)
	}
	if got := Resolve("/site", ""); got != "" {
		t.Errorf("Resolve(empty) = %q", got)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/sites/portfolio", filepath.Join(home, "sites/portfolio")},
		{"~", home},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ExpandPath(tt.input); got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGetSet(t *testing.T) {
	cfg := Defaults()

	if err := cfg.Set("author_id", "xyz"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got, _ := cfg.Get("Author-ID"); got != "xyz" {
		t.Errorf("Get(author-id) = %q", got)
	}

	if err := cfg.Set("blog-limit", "25"); err != nil {
		t.Fatal(err)
	}
	if got, _ := cfg.Get("blog_limit"); got != "25" {
		t.Errorf("Get(blog-limit) = %q", got)
	}
	if err := cfg.Set("blog-limit", "-1"); err == nil {
		t.Error("Set(blog-limit, -1) should fail")
	}

	if _, err := cfg.Get("pdf-root"); err == nil {
		t.Error("Get() on unknown key should fail")
	}
	if err := cfg.Set("nope", "x"); err == nil {
		t.Error("Set() on unknown key should fail")
	}

	for _, k := range Keys {
		if _, err := cfg.Get(k); err != nil {
			t.Errorf("Get(%q) error = %v", k, err)
		}
	}
}

func TestMatchConfig_Matcher(t *testing.T) {
	m := Defaults().Match.Matcher()
	if m.PrefixCap != 50 || m.OverlapThreshold != 0.7 || m.MinWordLen != 3 {
		t.Errorf("Matcher() = %+v", m)
	}
}

func writeGlobal(t *testing.T, configHome, body string) {
	t.Helper()
	dir := filepath.Join(configHome, GlobalConfigDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, GlobalConfigFile), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}
