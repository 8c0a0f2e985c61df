package openai

import (
	"strings"
	"unicode/utf8"
)

// defaultMaxRunes bounds the text sent per input. Clipboard items can be
// arbitrarily large and most embedding servers reject inputs past their
// context window.
const defaultMaxRunes = 8192

// prepareText trims surrounding whitespace and truncates s to maxRunes runes.
// A whitespace-only string is kept as is so the server still gets an input.
func prepareText(s string, maxRunes int) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	if maxRunes <= 0 || utf8.RuneCountInString(trimmed) <= maxRunes {
		return trimmed
	}
	n := 0
	for i := range trimmed {
		if n == maxRunes {
			return trimmed[:i]
		}
		n++
	}
	return trimmed
}
