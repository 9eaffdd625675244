// Package snapshot defines the persisted citation snapshot and the store
// that guards it against being replaced by empty fetch results.
package snapshot

import (
	"slices"
	"time"
)

// Publication is one scraped record: a title with its live citation count.
type Publication struct {
	Title         string `json:"title"`
	CitationCount int    `json:"citationCount"`
	Year          int    `json:"year,omitempty"`
}

// Snapshot is the full persisted state of citation metrics at one point
// in time. A newer snapshot replaces an older one wholesale.
type Snapshot struct {
	TotalCitations int            `json:"totalCitations"`
	HIndex         int            `json:"hIndex"`
	I10Index       int            `json:"i10Index"`
	CitedByYear    map[string]int `json:"citedByYear"`
	Publications   []Publication  `json:"publications"`
	CapturedAt     time.Time      `json:"capturedAt"`
}

// IsEmpty reports whether s looks like a failed fetch: no citations and no
// publications.
func (s *Snapshot) IsEmpty() bool {
	return s == nil || (s.TotalCitations == 0 && len(s.Publications) == 0)
}

// Years returns the cited-by years in ascending order.
func (s *Snapshot) Years() []string {
	years := make([]string, 0, len(s.CitedByYear))
	for y := range s.CitedByYear {
		years = append(years, y)
	}
	slices.Sort(years)
	return years
}
