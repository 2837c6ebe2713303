// Package compactor bounds the size of text handed to the scoring service and
// to report consumers.
package compactor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Compactor fits free text into a token budget.
type Compactor struct {
	MaxTokens  int // 0 disables the budget
	MaxLineLen int // runes per line; 0 disables clipping
}

// New creates a Compactor.
func New(maxTokens, maxLineLen int) *Compactor {
	return &Compactor{MaxTokens: maxTokens, MaxLineLen: maxLineLen}
}

// Compact normalizes text, clips long lines and keeps leading lines until the
// token budget is spent. truncated reports whether anything was dropped.
func (c *Compactor) Compact(text string) (compacted string, truncated bool) {
	lines := strings.Split(Normalize(text), "\n")
	if c.MaxLineLen > 0 {
		for i, l := range lines {
			clipped := Clip(l, c.MaxLineLen)
			if clipped != l {
				truncated = true
			}
			lines[i] = clipped
		}
	}
	if c.MaxTokens <= 0 {
		return strings.Join(lines, "\n"), truncated
	}

	used := 0
	for i, l := range lines {
		cost := EstimateTokens(l)
		if used+cost > c.MaxTokens {
			kept := strings.Join(lines[:i], "\n")
			return kept + fmt.Sprintf("\n... [%d lines truncated]", len(lines)-i), true
		}
		used += cost
	}
	return strings.Join(lines, "\n"), truncated
}

// Normalize converts text to NFC and drops NUL bytes.
func Normalize(s string) string {
	return norm.NFC.String(strings.ReplaceAll(s, "\x00", ""))
}

// Truncate returns at most n leading runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Clip is Truncate with a "..." marker when anything was cut.
func Clip(s string, n int) string {
	t := Truncate(s, n)
	if len(t) == len(s) {
		return s
	}
	return t + "..."
}
