// Package title canonicalizes publication titles and decides whether two
// titles refer to the same work.
package title

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// maxPasses bounds the fold loop in Normalize.
const maxPasses = 8

// Normalize case-folds s, turns every rune that is not a letter or digit
// into a space, collapses whitespace runs, and trims. It is idempotent:
// full case folding is not stable for every script (Cherokee folds to
// upper case and back depending on context), so each letter is mapped to a
// single member of its case orbit and the pass repeats until the output
// stops changing.
func Normalize(s string) string {
	out := normalizeOnce(s)
	for range maxPasses {
		next := normalizeOnce(out)
		if next == out {
			break
		}
		out = next
	}
	return out
}

func normalizeOnce(s string) string {
	folded := cases.Fold().String(s)

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(orbitRune(r))
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// orbitRune returns the lower-case form of the smallest rune in r's simple
// case-folding orbit, so every case variant of a letter maps to one rune.
func orbitRune(r rune) rune {
	least := r
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if f < least {
			least = f
		}
	}
	return unicode.ToLower(least)
}

// Words splits a normalized title into tokens longer than minLen runes.
func Words(normalized string, minLen int) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(normalized) {
		if len([]rune(w)) > minLen {
			set[w] = struct{}{}
		}
	}
	return set
}
