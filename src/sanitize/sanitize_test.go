package sanitize

import (
	"strings"
	"testing"
)

func TestStripANSI(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "color codes",
			input:    "\x1b[31mERROR\x1b[0m: no contract matched",
			expected: "ERROR: no contract matched",
		},
		{
			name:     "no ANSI",
			input:    "plain text message",
			expected: "plain text message",
		},
		{
			name:     "multiple codes",
			input:    "\x1b[1m\x1b[31mbold red\x1b[0m normal",
			expected: "bold red normal",
		},
		{
			name:     "cursor movement",
			input:    "\x1b[2Kprogress\x1b[1A",
			expected: "progress",
		},
		{
			name:     "OSC title terminated by BEL",
			input:    "\x1b]0;window title\x07payload",
			expected: "payload",
		},
		{
			name:     "APC marker terminated by ST",
			input:    "\x1b_bk;t=1765886936038\x1b\\[ERROR] message",
			expected: "[ERROR] message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := StripANSI(tt.input)
			if result != tt.expected {
				t.Errorf("StripANSI(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "full cleanup",
			input:    "\x1b[31mCREATED\x1b[0m\x00\r\n",
			expected: "CREATED",
		},
		{
			name:     "carriage returns",
			input:    "line1\r\nline2\r",
			expected: "line1\nline2",
		},
		{
			name:     "already clean",
			input:    "clean message",
			expected: "clean message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Clean(tt.input)
			if result != tt.expected {
				t.Errorf("Clean(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		limit    int
		expected string
	}{
		{
			name:     "short body",
			input:    []byte(`{"status":"CREATED"}`),
			limit:    0,
			expected: `{"status":"CREATED"}`,
		},
		{
			name:     "multi line JSON is flattened",
			input:    []byte("{\n  \"a\": 1,\n  \"b\": 2\n}"),
			limit:    0,
			expected: `{ "a": 1, "b": 2 }`,
		},
		{
			name:     "truncated",
			input:    []byte("abcdefghij"),
			limit:    4,
			expected: "abcd...",
		},
		{
			name:     "truncation counts runes",
			input:    []byte("héllo wörld"),
			limit:    5,
			expected: "héllo...",
		},
		{
			name:     "invalid utf8",
			input:    []byte{'o', 'k', 0xff},
			limit:    0,
			expected: "ok�",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Preview(tt.input, tt.limit)
			if result != tt.expected {
				t.Errorf("Preview(%q, %d) = %q, expected %q", tt.input, tt.limit, result, tt.expected)
			}
		})
	}
}

func TestPreview_DefaultLimit(t *testing.T) {
	result := Preview([]byte(strings.Repeat("x", PreviewLength+10)), 0)
	if !strings.HasSuffix(result, "...") {
		t.Errorf("Expected truncated preview, got %q", result)
	}
	if len(result) != PreviewLength+3 {
		t.Errorf("Expected %d characters, got %d", PreviewLength+3, len(result))
	}
}
