package search

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeQuery trims surrounding whitespace and Unicode case-folds the
// query, the form Rank compares against.
func NormalizeQuery(raw string) string {
	return fold(strings.TrimSpace(raw))
}

// fold applies full Unicode case folding. Casers keep state, so each call
// gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Fragment is a piece of displayed text, marked when it matched the query.
type Fragment struct {
	Text    string
	Matched bool
}

// Highlight splits text into alternating unmatched and matched fragments
// for every case-insensitive occurrence of query. The fragments always
// concatenate back to text.
func Highlight(text, query string) []Fragment {
	q := NormalizeQuery(query)
	if q == "" || text == "" {
		return []Fragment{{Text: text}}
	}

	// Fold rune by rune, remembering where each rune starts in both strings.
	caser := cases.Fold()
	var folded strings.Builder
	var foldStarts, origStarts []int
	for i, r := range text {
		foldStarts = append(foldStarts, folded.Len())
		origStarts = append(origStarts, i)
		folded.WriteString(caser.String(string(r)))
	}
	haystack := folded.String()

	// runeAt maps a folded offset to the start of the rune containing it.
	runeAt := func(off int) int {
		return sort.Search(len(foldStarts), func(i int) bool { return foldStarts[i] > off }) - 1
	}
	origEnd := func(runeIdx int) int {
		if runeIdx+1 < len(origStarts) {
			return origStarts[runeIdx+1]
		}
		return len(text)
	}

	var out []Fragment
	last, pos := 0, 0
	for pos < len(haystack) {
		idx := strings.Index(haystack[pos:], q)
		if idx < 0 {
			break
		}
		fStart := pos + idx
		fEnd := fStart + len(q)
		start := origStarts[runeAt(fStart)]
		end := origEnd(runeAt(fEnd - 1))
		if start < last {
			start = last
		}
		if start > last {
			out = append(out, Fragment{Text: text[last:start]})
		}
		if end > start {
			out = append(out, Fragment{Text: text[start:end], Matched: true})
			last = end
		}
		pos = fEnd
	}
	if last < len(text) {
		out = append(out, Fragment{Text: text[last:]})
	}
	return out
}
