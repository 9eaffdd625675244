package reconcile

import "regexp"

var nonArticlePattern = regexp.MustCompile(`(?i)\b(poster|abstract)s?\b`)

// LikelyNonArticle reports whether a title looks like conference material
// rather than an article. It is a hint for review only.
func LikelyNonArticle(t string) bool {
	return nonArticlePattern.MatchString(t)
}

// Entry is one line of the review report.
type Entry struct {
	Title            string `json:"title"`
	Year             int    `json:"year,omitempty"`
	CitationCount    int    `json:"citationCount"`
	LikelyNonArticle bool   `json:"likelyNonArticle,omitempty"`
}

// Report lists what needs a human look after reconciliation.
type Report struct {
	// Missing are curated records absent from the scrape.
	Missing []Entry `json:"missing"`
	// Extra are scraped records absent from the curated list.
	Extra []Entry `json:"extra"`
}

// BuildReport derives the review lists from a reconciliation result.
func BuildReport(r *Result) Report {
	rep := Report{
		Missing: make([]Entry, 0, len(r.CuratedOnly)),
		Extra:   make([]Entry, 0, len(r.ScrapedOnly)),
	}
	for _, c := range r.CuratedOnly {
		rep.Missing = append(rep.Missing, Entry{
			Title:            c.Title,
			Year:             c.Year,
			CitationCount:    c.CitationCount,
			LikelyNonArticle: LikelyNonArticle(c.Title),
		})
	}
	for _, s := range r.ScrapedOnly {
		rep.Extra = append(rep.Extra, Entry{
			Title:            s.Title,
			Year:             s.Year,
			CitationCount:    s.CitationCount,
			LikelyNonArticle: LikelyNonArticle(s.Title),
		})
	}
	return rep
}

// Clean reports whether nothing needs review.
func (r Report) Clean() bool {
	return len(r.Missing) == 0 && len(r.Extra) == 0
}
