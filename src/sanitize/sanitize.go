// Package sanitize cleans message payloads for display in logs, the event
// journal and MCP tool responses. It removes ANSI escape sequences and control
// characters and bounds the length of previews.
//
// For TUI rendering, use the tui package which has its own ANSI handling via
// charmbracelet/x/ansi.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// PreviewLength is the default preview size, in runes.
const PreviewLength = 120

var (
	// CSI sequences: \x1b[...X (colors, cursor movement)
	csiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)

	// OSC and APC sequences terminated by BEL or ST: \x1b]...\x07, \x1b_...\x1b\\
	oscPattern = regexp.MustCompile(`\x1b[\]_][^\x07\x1b]*(?:\x07|\x1b\\)`)
)

// StripANSI removes ANSI escape sequences.
func StripANSI(s string) string {
	s = oscPattern.ReplaceAllString(s, "")
	s = csiPattern.ReplaceAllString(s, "")
	return s
}

// Clean strips ANSI sequences, normalizes line endings, drops other control
// characters and trims surrounding whitespace.
func Clean(s string) string {
	s = StripANSI(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// Preview returns a cleaned, single line rendering of a message body of at
// most limit runes, followed by "..." when truncated. Invalid UTF-8 is
// replaced. A non-positive limit uses PreviewLength.
func Preview(body []byte, limit int) string {
	if limit <= 0 {
		limit = PreviewLength
	}

	s := strings.ToValidUTF8(string(body), "�")
	s = strings.Join(strings.Fields(Clean(s)), " ")

	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}
