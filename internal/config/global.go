package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// GlobalConfig holds per-user settings shared by every site, stored in
// $XDG_CONFIG_HOME/scholarsync/config.yml.
type GlobalConfig struct {
	// SitePath is the site used when none is found from the working directory.
	SitePath       string `yaml:"site_path,omitempty"`
	OpenAlexMailto string `yaml:"openalex_mailto,omitempty"`
}

const (
	GlobalConfigDir  = "scholarsync"
	GlobalConfigFile = "config.yml"
)

var global struct {
	mu  sync.Mutex
	cfg *GlobalConfig
}

// GlobalConfigPath returns the global config location, or "" when no home
// directory is known.
func GlobalConfigPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig reads the global config once per process. A missing
// file yields an empty config.
func LoadGlobalConfig() (*GlobalConfig, error) {
	global.mu.Lock()
	defer global.mu.Unlock()

	if global.cfg != nil {
		return global.cfg, nil
	}

	cfg := &GlobalConfig{}
	if path := GlobalConfigPath(); path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading global config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing global config %s: %w", path, err)
			}
			cfg.SitePath = ExpandPath(cfg.SitePath)
		}
	}

	global.cfg = cfg
	return cfg, nil
}

// ResetGlobalConfigCache forces the next lookup to reread the file.
func ResetGlobalConfigCache() {
	global.mu.Lock()
	global.cfg = nil
	global.mu.Unlock()
}

// globalValue returns a field of the global config, or "" when the file
// cannot be read.
func globalValue(get func(*GlobalConfig) string) string {
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return ""
	}
	return get(cfg)
}

// GetSitePath returns the fallback site root.
func GetSitePath() string {
	return globalValue(func(c *GlobalConfig) string { return c.SitePath })
}

// GetOpenAlexMailto returns the user's OpenAlex contact address.
func GetOpenAlexMailto() string {
	return globalValue(func(c *GlobalConfig) string { return c.OpenAlexMailto })
}

// HelpfulConfigMessage explains how to point scholarsync at a site.
func HelpfulConfigMessage() string {
	path := GlobalConfigPath()
	return fmt.Sprintf(`No scholarsync site found.

Either run "scholarsync init" inside the site repository, pass --site,
or name a default site in %s:
  mkdir -p %s
  echo 'site_path: /path/to/your/site' >> %s`,
		path, filepath.Dir(path), path)
}
