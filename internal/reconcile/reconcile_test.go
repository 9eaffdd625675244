package reconcile

import (
	"testing"

	"github.com/kangning-huang/scholarsync/internal/publication"
	"github.com/kangning-huang/scholarsync/internal/snapshot"
	"github.com/kangning-huang/scholarsync/internal/title"
)

func curatedFixture() []publication.Publication {
	return []publication.Publication{
		{Title: "Projecting global urban land expansion and heat island intensification through 2050", Year: 2019, CitationCount: 466, DOI: "10.1088/1748-9326/ab4b71"},
		{Title: "Urban Heat Island Effects in Coastal Cities", Year: 2021, CitationCount: 12},
		{Title: "A curated paper Scholar never indexed", Year: 2022, CitationCount: 3, DOI: "10.1000/XYZ"},
		{Title: "Urban heat exposure: a poster presentation", Year: 2023, CitationCount: 0},
	}
}

func TestReconcile_MatchesAndLeftovers(t *testing.T) {
	scraped := []snapshot.Publication{
		{Title: "Projecting global urban land expansion and heat island intensification through …", CitationCount: 520, Year: 2019},
		{Title: "Urban Heat Island Effects in Coastal Cities: A Review", CitationCount: 30, Year: 2021},
		{Title: "Brand new paper not yet curated", CitationCount: 2, Year: 2025},
		{Title: "Abstract: flood risk in megacities", CitationCount: 0, Year: 2024},
	}

	result := Reconcile(curatedFixture(), scraped, title.DefaultMatcher())

	if len(result.Matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(result.Matches))
	}
	if result.Matches[0].CuratedIndex != 0 || result.Matches[0].Rule != title.RulePrefix {
		t.Errorf("match 0 = %+v", result.Matches[0])
	}
	if result.Matches[1].CuratedIndex != 1 || result.Matches[1].Scraped.CitationCount != 30 {
		t.Errorf("match 1 = %+v", result.Matches[1])
	}

	if len(result.CuratedOnly) != 2 {
		t.Errorf("CuratedOnly = %+v, want 2", result.CuratedOnly)
	}
	if len(result.ScrapedOnly) != 2 {
		t.Errorf("ScrapedOnly = %+v, want 2", result.ScrapedOnly)
	}
}

func TestReconcile_LiveCountsAndFallback(t *testing.T) {
	scraped := []snapshot.Publication{
		{Title: "projecting global urban land expansion and heat island intensification through 2050", CitationCount: 520},
	}
	live := Reconcile(curatedFixture(), scraped, title.DefaultMatcher()).Live()

	if len(live) != 4 {
		t.Fatalf("Live() returned %d, want 4", len(live))
	}
	if live[0].DisplayCitations != 520 || live[0].Source != SourceScholar || live[0].MatchRule != "exact" {
		t.Errorf("live[0] = %+v, want live scholar count", live[0])
	}
	if live[1].DisplayCitations != 12 || live[1].Source != SourceStatic {
		t.Errorf("live[1] = %+v, want static fallback", live[1])
	}
	if live[1].MatchRule != "" {
		t.Errorf("static record has match rule %q", live[1].MatchRule)
	}
}

func TestReconcile_DuplicateKeepsStrongestRule(t *testing.T) {
	curated := []publication.Publication{
		{Title: "Urban Heat Island Effects in Coastal Cities", Year: 2021, CitationCount: 1},
	}
	scraped := []snapshot.Publication{
		{Title: "Urban Heat Island Effects in Coastal Cities: A Review", CitationCount: 90},
		{Title: "Urban heat island effects in coastal cities", CitationCount: 40},
		{Title: "Urban Heat Island Effects in Coastal Cities (preprint)", CitationCount: 5},
	}

	result := Reconcile(curated, scraped, title.DefaultMatcher())
	if len(result.Matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(result.Matches))
	}
	m := result.Matches[0]
	if m.Rule != title.RuleExact || m.Scraped.CitationCount != 40 {
		t.Errorf("winning match = %+v, want the exact one", m)
	}
	if len(result.Duplicates) != 2 {
		t.Errorf("Duplicates = %d, want 2", len(result.Duplicates))
	}
	if len(result.ScrapedOnly) != 0 {
		t.Errorf("duplicates must not be reported as extra: %+v", result.ScrapedOnly)
	}
}

func TestReconcile_SameRulePrefersHigherCount(t *testing.T) {
	curated := []publication.Publication{{Title: "Mapping urban boundaries", Year: 2020}}
	scraped := []snapshot.Publication{
		{Title: "Mapping urban boundaries from global impervious area data", CitationCount: 3},
		{Title: "Mapping urban boundaries: global GAIA data", CitationCount: 300},
	}
	result := Reconcile(curated, scraped, title.DefaultMatcher())
	if got := result.Matches[0].Scraped.CitationCount; got != 300 {
		t.Errorf("winning count = %d, want 300", got)
	}
}

func TestApplyOpenAlex(t *testing.T) {
	live := Reconcile(curatedFixture(), nil, title.DefaultMatcher()).Live()
	live[0].Source = SourceScholar
	live[0].DisplayCitations = 999

	counts := map[string]int{
		"10.1088/1748-9326/ab4b71": 470,
		"10.1000/xyz":              8,
	}
	updated := ApplyOpenAlex(live, counts)

	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}
	if live[0].DisplayCitations != 999 {
		t.Error("scholar count must not be overridden by OpenAlex")
	}
	if live[2].DisplayCitations != 8 || live[2].Source != SourceOpenAlex {
		t.Errorf("live[2] = %+v, want openalex count", live[2])
	}
}

func TestSortedByCitations(t *testing.T) {
	live := []LivePublication{
		{Publication: publication.Publication{Title: "a"}, DisplayCitations: 1},
		{Publication: publication.Publication{Title: "b"}, DisplayCitations: 10},
		{Publication: publication.Publication{Title: "c"}, DisplayCitations: 1},
	}
	sorted := SortedByCitations(live)
	if sorted[0].Title != "b" || sorted[1].Title != "a" || sorted[2].Title != "c" {
		t.Errorf("order = %s %s %s", sorted[0].Title, sorted[1].Title, sorted[2].Title)
	}
	if live[0].Title != "a" {
		t.Error("input slice was mutated")
	}
	if TotalDisplayCitations(live) != 12 {
		t.Errorf("TotalDisplayCitations = %d", TotalDisplayCitations(live))
	}
}
