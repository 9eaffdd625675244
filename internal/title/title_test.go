package title

import (
	"strings"
	"testing"
	"unicode"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{" Rapid, Flood-Mapping!! ", "rapid flood mapping"},
		{"Urban  Heat\tIsland\nEffects", "urban heat island effects"},
		{"", ""},
		{"!!!", ""},
		{"CO2 emissions: 2050", "co2 emissions 2050"},
		{"城市 扩张", "城市 扩张"},
		{"Projecting global urban land expansion &amp; heat", "projecting global urban land expansion amp heat"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		" Rapid, Flood-Mapping!! ",
		"Ünïcödé — Títlé (2019)",
		"  multiple   spaces and others ",
		"ΣΊΣΥΦΟΣ",
		"An improved artificial immune system for seeking the Pareto front",
		"café",
		"éclair",
		"ꮷﬁ",
		"ßꮷ",
		"Ꮷfi",
		"ssᏧ",
		"ꮷé",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalize_CaseVariantsAgree(t *testing.T) {
	pairs := [][2]string{
		{"ꮷﬁ", "Ꮷfi"},
		{"ßꮷ", "ssᏧ"},
		{"Kelvin", "\u212Aelvin"},
		{"ΣΊΣΥΦΟΣ", "σίσυφος"},
	}
	for _, p := range pairs {
		if a, b := Normalize(p[0]), Normalize(p[1]); a != b {
			t.Errorf("Normalize(%q) = %q, Normalize(%q) = %q, want equal", p[0], a, p[1], b)
		}
	}
}

func TestNormalize_IdempotentAcrossLetters(t *testing.T) {
	if testing.Short() {
		t.Skip("walks every letter of the basic multilingual plane")
	}
	suffixes := []string{"", "ﬁ", "ß", "é"}
	for r := rune(0); r <= 0xFFFF; r++ {
		if !unicode.IsLetter(r) {
			continue
		}
		for _, suffix := range suffixes {
			in := string(r) + suffix
			once := Normalize(in)
			if twice := Normalize(once); once != twice {
				t.Fatalf("Normalize not idempotent for %q (U+%04X): %q then %q", in, r, once, twice)
			}
		}
	}
}

func TestMatch_Exact(t *testing.T) {
	m := DefaultMatcher()
	rule, ok := m.Match("Urban Heat Island", "urban heat-island!")
	if !ok || rule != RuleExact {
		t.Errorf("Match = (%v, %v), want (exact, true)", rule, ok)
	}
}

func TestMatch_SymmetricNormalization(t *testing.T) {
	m := DefaultMatcher()
	curated := "Projecting Global Urban Land Expansion, 2050"
	scraped := "projecting global urban land expansion 2050"
	r1, ok1 := m.Match(curated, scraped)
	r2, ok2 := m.Match(scraped, curated)
	if !ok1 || !ok2 || r1 != RuleExact || r2 != RuleExact {
		t.Errorf("asymmetric match: (%v,%v) vs (%v,%v)", r1, ok1, r2, ok2)
	}
}

func TestMatch_PrefixProperty(t *testing.T) {
	m := DefaultMatcher()
	full := Normalize("An improved artificial immune system for seeking the Pareto front of land-use allocation problem in large areas")

	// Every verbatim prefix of the normalized form up to the cap matches.
	for n := 1; n <= DefaultPrefixCap; n++ {
		prefix := full[:n]
		if strings.TrimSpace(prefix) == "" {
			continue
		}
		if _, ok := m.Match(prefix, full); !ok {
			t.Errorf("prefix of length %d (%q) did not match", n, prefix)
		}
	}
}

func TestMatch_PrefixTruncatedListView(t *testing.T) {
	m := DefaultMatcher()
	long := "Projecting global urban land expansion and heat island intensification through 2050"
	truncated := "Projecting global urban land expansion and heat island intensification through …"
	rule, ok := m.Match(long, truncated)
	if !ok || rule != RulePrefix {
		t.Errorf("Match = (%v, %v), want (prefix, true)", rule, ok)
	}
}

func TestMatch_PrefixCapLimitsComparison(t *testing.T) {
	m := DefaultMatcher()
	a := strings.Repeat("a", 50) + " first ending with words here"
	b := strings.Repeat("a", 50) + " totally different continuation"
	rule, ok := m.Match(a, b)
	if !ok || rule != RulePrefix {
		t.Errorf("Match = (%v, %v), want prefix match within cap", rule, ok)
	}

	m.PrefixCap = 60
	if rule, ok := m.Match(a, b); ok && rule == RulePrefix {
		t.Errorf("with a larger cap the divergent tails should not prefix-match")
	}
}

func TestMatch_WordOverlapScenario(t *testing.T) {
	m := DefaultMatcher()
	curated := "Urban Heat Island Effects in Coastal Cities"
	scraped := "Urban Heat Island Effects in Coastal Cities: A Review"

	if got := m.WordOverlap(curated, scraped); got < 0.7 {
		t.Errorf("WordOverlap = %v, want >= 0.7", got)
	}
	if _, ok := m.Match(curated, scraped); !ok {
		t.Error("expected match")
	}
}

func TestMatch_OverlapRule(t *testing.T) {
	m := DefaultMatcher()
	// Reordered words defeat exact and prefix but share 5 of 6 long words.
	a := "Global projections of urban expansion heatwaves"
	b := "Urban expansion heatwaves: global projections of cities"
	rule, ok := m.Match(a, b)
	if !ok || rule != RuleOverlap {
		t.Errorf("Match = (%v, %v), want (overlap, true)", rule, ok)
	}
}

func TestMatch_ShortWordsOnlyDoNotMatch(t *testing.T) {
	m := DefaultMatcher()
	a := "The cat and the hat"
	b := "Dog and the log"
	if _, ok := m.Match(a, b); ok {
		t.Error("titles sharing only short words should not match")
	}
}

func TestWordOverlap_EmptySetsNeverDivideByZero(t *testing.T) {
	m := DefaultMatcher()
	if got := m.WordOverlap("a an the", "of to in"); got != 0 {
		t.Errorf("WordOverlap = %v, want 0", got)
	}
	if got := m.WordOverlap("", ""); got != 0 {
		t.Errorf("WordOverlap(empty) = %v, want 0", got)
	}
	rule, ok := m.MatchNormalized("ab cd", "ef gh")
	if ok || rule != RuleNone {
		t.Errorf("MatchNormalized = (%v, %v), want (none, false)", rule, ok)
	}
}

func TestMatch_EmptyNeverMatches(t *testing.T) {
	m := DefaultMatcher()
	if _, ok := m.Match("", "anything"); ok {
		t.Error("empty title matched")
	}
	if _, ok := m.Match("!!!", "anything"); ok {
		t.Error("punctuation-only title matched")
	}
}

func TestFindFirst_OrderSensitive(t *testing.T) {
	m := DefaultMatcher()
	curated := []string{
		Normalize("Unrelated paper on hydrology"),
		Normalize("Urban Heat Island Effects in Coastal Cities"),
		Normalize("Urban Heat Island Effects in Coastal Cities: A Review"),
	}
	idx, rule := m.FindFirst(Normalize("Urban Heat Island Effects in Coastal Cities: A Review"), curated)
	if idx != 1 {
		t.Errorf("FindFirst index = %d, want 1 (first satisfying, not best)", idx)
	}
	if rule != RulePrefix {
		t.Errorf("FindFirst rule = %v, want prefix", rule)
	}

	idx, rule = m.FindFirst(Normalize("Nothing like the others at all"), curated)
	if idx != -1 || rule != RuleNone {
		t.Errorf("FindFirst = (%d, %v), want (-1, none)", idx, rule)
	}
}

func TestRule_Stronger(t *testing.T) {
	if !RuleExact.Stronger(RulePrefix) || !RulePrefix.Stronger(RuleOverlap) || !RuleOverlap.Stronger(RuleNone) {
		t.Error("rule strength ordering broken")
	}
	if RuleOverlap.Stronger(RuleExact) {
		t.Error("overlap should not be stronger than exact")
	}
}
