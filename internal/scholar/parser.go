package scholar

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kangning-huang/scholarsync/internal/snapshot"
)

// Metrics are the profile-level citation indices.
type Metrics struct {
	TotalCitations int
	HIndex         int
	I10Index       int
	CitedByYear    map[string]int
}

// Page is the publication table of one profile page.
type Page struct {
	Publications []snapshot.Publication
	// HasNext is true when the page offers a usable "show more" control.
	HasNext bool
}

// Profile is everything extracted from the first profile page.
type Profile struct {
	Name string
	Metrics
	Page
	// Problems lists fields that were missing or unparseable and were
	// defaulted. They are diagnostics, not failures.
	Problems []error
}

// Parser extracts citation data from Scholar profile HTML.
type Parser struct{}

// NewParser creates a parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseProfile extracts metrics, the yearly chart and the first page of
// publications. It fails only when the document cannot be read at all.
func (p *Parser) ParseProfile(html []byte) (*Profile, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	profile := &Profile{
		Name: strings.TrimSpace(doc.Find("#gsc_prf_in").Text()),
	}

	var problems []error
	profile.Metrics, problems = p.parseMetrics(doc)
	profile.Problems = append(profile.Problems, problems...)

	page, problems := p.parsePage(doc)
	profile.Page = page
	profile.Problems = append(profile.Problems, problems...)

	return profile, nil
}

// ParsePublications extracts only the publication table, for pages after
// the first.
func (p *Parser) ParsePublications(html []byte) (Page, []error, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return Page{}, nil, err
	}
	page, problems := p.parsePage(doc)
	return page, problems, nil
}

func (p *Parser) parseMetrics(doc *goquery.Document) (Metrics, []error) {
	m := Metrics{CitedByYear: make(map[string]int)}
	var problems []error

	rows := doc.Find("#gsc_rsb_st tr")
	seen := map[string]bool{}
	rows.Each(func(_ int, s *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(s.Find("td").First().Text()))
		raw := strings.TrimSpace(s.Find("td.gsc_rsb_std").First().Text())

		var target *int
		var field string
		switch {
		case strings.HasPrefix(label, "citations"):
			target, field = &m.TotalCitations, "citations"
		case strings.HasPrefix(label, "h-index"):
			target, field = &m.HIndex, "h-index"
		case strings.HasPrefix(label, "i10-index"):
			target, field = &m.I10Index, "i10-index"
		default:
			return
		}
		seen[field] = true

		n, ok := ParseNumber(raw)
		if !ok {
			problems = append(problems, &MalformedDataError{Field: field, Value: raw})
		}
		*target = n
	})
	for _, field := range []string{"citations", "h-index", "i10-index"} {
		if !seen[field] {
			problems = append(problems, &MalformedDataError{Field: field})
		}
	}

	var years []string
	doc.Find(".gsc_g_t").Each(func(_ int, s *goquery.Selection) {
		years = append(years, strings.TrimSpace(s.Text()))
	})
	var counts []string
	doc.Find(".gsc_g_al").Each(func(_ int, s *goquery.Selection) {
		counts = append(counts, strings.TrimSpace(s.Text()))
	})
	if len(years) == 0 {
		problems = append(problems, &MalformedDataError{Field: "cited-by chart"})
	} else if len(years) != len(counts) {
		problems = append(problems, &MalformedDataError{
			Field: "cited-by chart",
			Value: strconv.Itoa(len(years)) + " years / " + strconv.Itoa(len(counts)) + " bars",
		})
	}
	for i := 0; i < len(years) && i < len(counts); i++ {
		if years[i] == "" {
			continue
		}
		n, ok := ParseNumber(counts[i])
		if !ok {
			problems = append(problems, &MalformedDataError{Field: "cited-by " + years[i], Value: counts[i]})
		}
		m.CitedByYear[years[i]] = n
	}

	return m, problems
}

func (p *Parser) parsePage(doc *goquery.Document) (Page, []error) {
	page := Page{Publications: []snapshot.Publication{}}
	var problems []error

	doc.Find("tr.gsc_a_tr").Each(func(i int, s *goquery.Selection) {
		t := strings.TrimSpace(s.Find(".gsc_a_at").Text())
		if t == "" {
			problems = append(problems, &MalformedDataError{Field: "title of row " + strconv.Itoa(i+1)})
			return
		}

		pub := snapshot.Publication{Title: t}

		// Uncited papers render an empty link; treat that as zero silently.
		if raw := strings.TrimSpace(s.Find(".gsc_a_ac").Text()); raw != "" {
			n, ok := ParseNumber(raw)
			if !ok {
				problems = append(problems, &MalformedDataError{Field: "citations of " + t, Value: raw})
			}
			pub.CitationCount = n
		}
		if raw := strings.TrimSpace(s.Find(".gsc_a_y span").First().Text()); raw != "" {
			pub.Year, _ = ParseNumber(raw)
		}

		page.Publications = append(page.Publications, pub)
	})

	page.HasNext = enabled(doc.Find("#gsc_bpf_more")) || enabled(doc.Find(".gsc_pgn_pnx"))
	return page, problems
}

// enabled reports whether a control exists and is not disabled.
func enabled(s *goquery.Selection) bool {
	if s.Length() == 0 {
		return false
	}
	_, disabled := s.First().Attr("disabled")
	return !disabled
}

// ParseNumber parses a displayed count such as "1,234". Thousands
// separators are ignored; placeholders like "—" yield (0, false).
func ParseNumber(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', '.', ' ', '\u00a0', '\u202f', '\'':
			return -1
		}
		return r
	}, s)
	n, err := strconv.Atoi(cleaned)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
