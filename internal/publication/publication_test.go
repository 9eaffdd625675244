package publication

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const curatedYAML = `publications:
  - title: "Projecting global urban land expansion and heat island intensification through 2050"
    authors: "Kangning Huang, Xia Li, Xiaoping Liu, Karen C. Seto"
    venue: "Environmental Research Letters"
    year: 2019
    citation_count: 466
    doi: "10.1088/1748-9326/ab4b71"
    lead_author: true
    highlights:
      - "Projects global urban land expansion for 2030 and 2050"
    keywords: ["urban expansion", "urban heat island"]
  - title: "An improved artificial immune system for seeking the Pareto front of land-use allocation problem in large areas"
    authors: "Kangning Huang, Xiaoping Liu, Xia Li, Jiayong Liang, Shenjing He"
    venue: "International Journal of Geographical Information Science"
    year: 2013
    citation_count: 106
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publications.yml")
	if err := os.WriteFile(path, []byte(curatedYAML), 0644); err != nil {
		t.Fatal(err)
	}

	pubs, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(pubs) != 2 {
		t.Fatalf("got %d publications, want 2", len(pubs))
	}
	first := pubs[0]
	if first.Year != 2019 || first.CitationCount != 466 || !first.IsLeadAuthor {
		t.Errorf("first = %+v", first)
	}
	if first.DOI != "10.1088/1748-9326/ab4b71" {
		t.Errorf("DOI = %q", first.DOI)
	}
	if len(first.Keywords) != 2 || len(first.Highlights) != 1 {
		t.Errorf("keywords/highlights not decoded: %+v", first)
	}
	if pubs[1].DOI != "" {
		t.Errorf("second DOI = %q, want empty", pubs[1].DOI)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		pubs    []Publication
		wantErr string
	}{
		{"ok", []Publication{{Title: "A study", Year: 2020}}, ""},
		{"missing title", []Publication{{Year: 2020}}, "title is required"},
		{"bad year", []Publication{{Title: "A", Year: 0}}, "year must be positive"},
		{"negative count", []Publication{{Title: "A", Year: 2020, CitationCount: -1}}, "non-negative"},
		{
			"normalized duplicate",
			[]Publication{{Title: "Urban Heat", Year: 2020}, {Title: "urban, heat!", Year: 2021}},
			"duplicate of publication 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.pubs)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeDOI(t *testing.T) {
	tests := map[string]string{
		"https://doi.org/10.1038/S41893-019-0436-1": "10.1038/s41893-019-0436-1",
		"doi:10.1000/ABC":                          "10.1000/abc",
		" 10.1000/abc ":                            "10.1000/abc",
		"HTTPS://DOI.ORG/10.1/x":                   "10.1/x",
	}
	for in, want := range tests {
		if got := NormalizeDOI(in); got != want {
			t.Errorf("NormalizeDOI(%q) = %q, want %q", in, got, want)
		}
	}
}
