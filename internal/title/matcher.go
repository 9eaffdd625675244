package title

// Default matching thresholds. They were picked by eye against real title
// pairs and are exposed on Matcher for recalibration.
const (
	DefaultPrefixCap        = 50
	DefaultOverlapThreshold = 0.7
	DefaultMinWordLen       = 3
)

// Rule names the first test that accepted a pair of titles.
type Rule int

const (
	RuleNone Rule = iota
	RuleOverlap
	RulePrefix
	RuleExact
)

func (r Rule) String() string {
	switch r {
	case RuleExact:
		return "exact"
	case RulePrefix:
		return "prefix"
	case RuleOverlap:
		return "overlap"
	default:
		return "none"
	}
}

// Stronger reports whether r is a more specific rule than other.
func (r Rule) Stronger(other Rule) bool {
	return r > other
}

// Matcher holds the fuzzy title matching thresholds.
type Matcher struct {
	// PrefixCap limits how many leading runes the prefix rule compares.
	PrefixCap int
	// OverlapThreshold is the word-set IoU that must be exceeded.
	OverlapThreshold float64
	// MinWordLen drops tokens of this many runes or fewer.
	MinWordLen int
}

// DefaultMatcher returns a Matcher with the default thresholds.
func DefaultMatcher() Matcher {
	return Matcher{
		PrefixCap:        DefaultPrefixCap,
		OverlapThreshold: DefaultOverlapThreshold,
		MinWordLen:       DefaultMinWordLen,
	}
}

// Match normalizes both raw titles and applies, in order, exact equality,
// capped prefix containment, and word overlap.
func (m Matcher) Match(a, b string) (Rule, bool) {
	return m.MatchNormalized(Normalize(a), Normalize(b))
}

// MatchNormalized is Match for titles that already went through Normalize.
func (m Matcher) MatchNormalized(na, nb string) (Rule, bool) {
	if na == "" || nb == "" {
		return RuleNone, false
	}
	if na == nb {
		return RuleExact, true
	}
	if m.prefixMatch(na, nb) {
		return RulePrefix, true
	}
	if m.WordOverlapNormalized(na, nb) > m.OverlapThreshold {
		return RuleOverlap, true
	}
	return RuleNone, false
}

// prefixMatch compares the first min(len(a), len(b), PrefixCap) runes.
func (m Matcher) prefixMatch(na, nb string) bool {
	ra, rb := []rune(na), []rune(nb)
	n := min(len(ra), len(rb))
	if m.PrefixCap > 0 {
		n = min(n, m.PrefixCap)
	}
	if n == 0 {
		return false
	}
	return string(ra[:n]) == string(rb[:n])
}

// WordOverlap returns the intersection-over-union of the long-word sets of
// two raw titles. Two empty sets yield 0.
func (m Matcher) WordOverlap(a, b string) float64 {
	return m.WordOverlapNormalized(Normalize(a), Normalize(b))
}

// WordOverlapNormalized is WordOverlap for normalized titles.
func (m Matcher) WordOverlapNormalized(na, nb string) float64 {
	wa := Words(na, m.MinWordLen)
	wb := Words(nb, m.MinWordLen)

	inter := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// FindFirst returns the index of the first candidate that matches target
// under any rule, or -1. Target and candidates must already be normalized;
// the first satisfying candidate wins, not the best-scoring one.
func (m Matcher) FindFirst(target string, candidates []string) (int, Rule) {
	for i, c := range candidates {
		if rule, ok := m.MatchNormalized(target, c); ok {
			return i, rule
		}
	}
	return -1, RuleNone
}
