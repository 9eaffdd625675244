package reconcile

import (
	"slices"

	"github.com/kangning-huang/scholarsync/internal/publication"
	"github.com/kangning-huang/scholarsync/internal/snapshot"
	"github.com/kangning-huang/scholarsync/internal/title"
)

// Reconcile matches every scraped record to the first curated record that
// satisfies any matcher rule. When several scraped records land on the same
// curated record, the one with the stronger rule wins, then the higher
// citation count.
func Reconcile(curated []publication.Publication, scraped []snapshot.Publication, m title.Matcher) *Result {
	result := &Result{curated: curated}

	normalized := make([]string, len(curated))
	for i, c := range curated {
		normalized[i] = title.Normalize(c.Title)
	}

	best := make(map[int]Match)
	for _, s := range scraped {
		idx, rule := m.FindFirst(title.Normalize(s.Title), normalized)
		if idx < 0 {
			result.ScrapedOnly = append(result.ScrapedOnly, s)
			continue
		}

		candidate := Match{CuratedIndex: idx, Curated: curated[idx], Scraped: s, Rule: rule}
		prev, ok := best[idx]
		if !ok {
			best[idx] = candidate
			continue
		}
		if rule.Stronger(prev.Rule) || (rule == prev.Rule && s.CitationCount > prev.Scraped.CitationCount) {
			best[idx] = candidate
			result.Duplicates = append(result.Duplicates, prev)
		} else {
			result.Duplicates = append(result.Duplicates, candidate)
		}
	}

	for i, c := range curated {
		if match, ok := best[i]; ok {
			result.Matches = append(result.Matches, match)
		} else {
			result.CuratedOnly = append(result.CuratedOnly, c)
		}
	}

	return result
}

// Live returns the curated list with display counts: the matched live count
// when a match exists, else the hand-entered fallback.
func (r *Result) Live() []LivePublication {
	byIndex := make(map[int]Match, len(r.Matches))
	for _, m := range r.Matches {
		byIndex[m.CuratedIndex] = m
	}

	out := make([]LivePublication, len(r.curated))
	for i, c := range r.curated {
		live := LivePublication{
			Publication:      c,
			DisplayCitations: c.CitationCount,
			Source:           SourceStatic,
		}
		if m, ok := byIndex[i]; ok {
			live.DisplayCitations = m.Scraped.CitationCount
			live.Source = SourceScholar
			live.MatchRule = m.Rule.String()
		}
		out[i] = live
	}
	return out
}

// ApplyOpenAlex fills records still on their static fallback from counts
// keyed by normalized DOI. It returns how many records changed source.
func ApplyOpenAlex(live []LivePublication, counts map[string]int) int {
	updated := 0
	for i := range live {
		if live[i].Source != SourceStatic || live[i].DOI == "" {
			continue
		}
		n, ok := counts[publication.NormalizeDOI(live[i].DOI)]
		if !ok {
			continue
		}
		live[i].DisplayCitations = n
		live[i].Source = SourceOpenAlex
		updated++
	}
	return updated
}

// TotalDisplayCitations sums the display counts.
func TotalDisplayCitations(live []LivePublication) int {
	total := 0
	for _, l := range live {
		total += l.DisplayCitations
	}
	return total
}

// SortedByCitations returns a copy of live ordered by display count, highest
// first, keeping curated order among ties.
func SortedByCitations(live []LivePublication) []LivePublication {
	out := slices.Clone(live)
	slices.SortStableFunc(out, func(a, b LivePublication) int {
		return b.DisplayCitations - a.DisplayCitations
	})
	return out
}
