// Package reconcile matches scraped publications against the curated list
// to produce live citation counts and a review report.
package reconcile

import (
	"github.com/kangning-huang/scholarsync/internal/publication"
	"github.com/kangning-huang/scholarsync/internal/snapshot"
	"github.com/kangning-huang/scholarsync/internal/title"
)

// Match pairs a curated record with the scraped record that supplies its
// live count.
type Match struct {
	CuratedIndex int
	Curated      publication.Publication
	Scraped      snapshot.Publication
	Rule         title.Rule
}

// Result is the outcome of reconciling one scrape against the curated list.
type Result struct {
	// Matches holds at most one entry per curated record, in curated order.
	Matches []Match

	// Duplicates are scraped records that matched an already-matched curated
	// record with a weaker rule or lower count (e.g. preprint versions).
	Duplicates []Match

	// CuratedOnly are curated records with no scraped counterpart.
	CuratedOnly []publication.Publication

	// ScrapedOnly are scraped records with no curated counterpart.
	ScrapedOnly []snapshot.Publication

	curated []publication.Publication
}

// Source says where a displayed citation count came from.
type Source string

const (
	SourceScholar  Source = "scholar"
	SourceOpenAlex Source = "openalex"
	SourceStatic   Source = "static"
)

// LivePublication is a curated record with the count the site should show.
type LivePublication struct {
	publication.Publication
	DisplayCitations int    `json:"displayCitations"`
	Source           Source `json:"citationSource"`
	MatchRule        string `json:"matchRule,omitempty"`
}
