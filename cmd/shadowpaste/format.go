package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/poiesic/shadowpaste/core"
	"github.com/poiesic/shadowpaste/search"
)

const (
	timeLayout   = "Jan 02 2006, 03:04 PM"
	previewWidth = 72
	ellipsis     = "…"
)

// marker wraps a matched fragment for display.
type marker func(string) string

func bracketMarker(s string) string { return "[" + s + "]" }
func boldMarker(s string) string    { return "\x1b[1m" + s + "\x1b[0m" }

func entryHeader(e *core.Entry) string {
	id := "-"
	if e.Persisted() {
		id = fmt.Sprint(e.ID)
	}
	return fmt.Sprintf("%6s  %s", id, e.CapturedAt.Local().Format(timeLayout))
}

func formatEntry(e *core.Entry) string {
	return entryHeader(e) + "  " + preview(e.Content)
}

// preview renders content on a single line.
func preview(c core.Content) string {
	switch v := c.(type) {
	case core.Text:
		return truncate(flatten(string(v)), previewWidth)
	case core.Image:
		return fmt.Sprintf("[image, %s]", humanize.Bytes(uint64(len(v))))
	default:
		return "[empty]"
	}
}

// highlightPreview is preview with query matches marked. Non-text content
// is never matched.
func highlightPreview(c core.Content, query string, mark marker) string {
	text, ok := c.(core.Text)
	if !ok {
		return preview(c)
	}
	var b strings.Builder
	budget := previewWidth
	for _, frag := range search.Highlight(flatten(string(text)), query) {
		if budget <= 0 {
			b.WriteString(ellipsis)
			break
		}
		s := frag.Text
		n := utf8.RuneCountInString(s)
		cut := n > budget
		if cut {
			s = truncate(s, budget)
		}
		if frag.Matched {
			s = mark(s)
		}
		b.WriteString(s)
		if cut {
			break
		}
		budget -= n
	}
	return b.String()
}

// flatten collapses runs of whitespace, newlines included, to one space.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-1]) + ellipsis
}
