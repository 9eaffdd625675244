// Package publication defines the hand-curated publication records.
package publication

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kangning-huang/scholarsync/internal/title"
)

// Publication is an authoritative, hand-maintained record of a work.
// CitationCount is a stale fallback used only when no live count matches.
type Publication struct {
	Title         string   `yaml:"title" json:"title"`
	Authors       string   `yaml:"authors" json:"authors"`
	Venue         string   `yaml:"venue" json:"venue"`
	Year          int      `yaml:"year" json:"year"`
	CitationCount int      `yaml:"citation_count" json:"citationCount"`
	DOI           string   `yaml:"doi,omitempty" json:"doi,omitempty"`
	URL           string   `yaml:"url,omitempty" json:"url,omitempty"`
	Preprint      string   `yaml:"preprint,omitempty" json:"preprint,omitempty"`
	WebURL        string   `yaml:"web_url,omitempty" json:"webUrl,omitempty"`
	IsLeadAuthor  bool     `yaml:"lead_author,omitempty" json:"isLeadAuthor,omitempty"`
	Highlights    []string `yaml:"highlights,omitempty" json:"highlights,omitempty"`
	Keywords      []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
}

// file is the on-disk layout of the curated list.
type file struct {
	Publications []Publication `yaml:"publications"`
}

// Load reads and validates the curated list at path.
func Load(path string) ([]Publication, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading curated publications: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a curated list.
func Parse(data []byte) ([]Publication, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing curated publications: %w", err)
	}
	if err := Validate(f.Publications); err != nil {
		return nil, err
	}
	return f.Publications, nil
}

// Validate checks required fields and rejects two entries whose titles
// normalize to the same key.
func Validate(pubs []Publication) error {
	seen := make(map[string]int, len(pubs))
	for i, p := range pubs {
		if p.Title == "" {
			return fmt.Errorf("publication %d: title is required", i+1)
		}
		if p.Year <= 0 {
			return fmt.Errorf("publication %d (%s): year must be positive", i+1, p.Title)
		}
		if p.CitationCount < 0 {
			return fmt.Errorf("publication %d (%s): citation_count must be non-negative", i+1, p.Title)
		}
		key := title.Normalize(p.Title)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("publication %d (%s): duplicate of publication %d", i+1, p.Title, prev)
		}
		seen[key] = i + 1
	}
	return nil
}

// NormalizeDOI strips resolver prefixes and lower-cases a DOI.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"} {
		if len(doi) >= len(prefix) && strings.EqualFold(doi[:len(prefix)], prefix) {
			doi = doi[len(prefix):]
			break
		}
	}
	return strings.ToLower(doi)
}
