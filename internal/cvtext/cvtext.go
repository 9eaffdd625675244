// Package cvtext rewrites the citation summary embedded in a CV document.
package cvtext

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/kangning-huang/scholarsync/internal/fileutil"
)

// summaryPattern matches "citations: N; h-index: M" with flexible spacing.
var summaryPattern = regexp.MustCompile(`(?i)(citations:\s*)(\d[\d,]*)(;\s*h-index:\s*)(\d+)`)

// Update replaces N and M in every summary fragment of text. Everything
// outside the two numbers is kept byte for byte. N keeps thousands
// separators when the original used them. changed is false, and text is
// returned as is, when no fragment exists or the values already match.
func Update(text string, citations, hIndex int) (string, bool) {
	matches := summaryPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, false
	}

	var b strings.Builder
	b.Grow(len(text) + 8)
	last := 0
	changed := false
	for _, m := range matches {
		// m holds start/end pairs: whole, prefix, count, separator, h-index.
		countStart, countEnd := m[4], m[5]
		hStart, hEnd := m[8], m[9]

		oldCount := text[countStart:countEnd]
		newCount := formatCount(citations, strings.Contains(oldCount, ","))
		newH := strconv.Itoa(hIndex)
		if oldCount != newCount || text[hStart:hEnd] != newH {
			changed = true
		}

		b.WriteString(text[last:countStart])
		b.WriteString(newCount)
		b.WriteString(text[countEnd:hStart])
		b.WriteString(newH)
		last = hEnd
	}
	if !changed {
		return text, false
	}
	b.WriteString(text[last:])
	return b.String(), true
}

func formatCount(n int, commas bool) string {
	if commas {
		return humanize.Comma(int64(n))
	}
	return strconv.Itoa(n)
}

// UpdateFile applies Update to the file at path and rewrites it atomically
// only when something changed.
func UpdateFile(path string, citations, hIndex int) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("reading cv: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading cv: %w", err)
	}

	updated, changed := Update(string(data), citations, hIndex)
	if !changed {
		return false, nil
	}
	if err := fileutil.WriteFileAtomic(path, []byte(updated), info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("writing cv: %w", err)
	}
	return true, nil
}

// Find returns the first summary values in text, or ok=false.
func Find(text string) (citations, hIndex int, ok bool) {
	m := summaryPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}
	c, err := strconv.Atoi(strings.ReplaceAll(m[2], ",", ""))
	if err != nil {
		return 0, 0, false
	}
	h, err := strconv.Atoi(m[4])
	if err != nil {
		return 0, 0, false
	}
	return c, h, true
}
