package contracts

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// PatternKind tags the variant held by a Pattern.
type PatternKind int

const (
	// PatternAbsent means "don't care": any value, including none, is accepted.
	PatternAbsent PatternKind = iota
	// PatternLiteral accepts only an exactly equal value.
	PatternLiteral
	// PatternRegex accepts values the whole of which match a regular expression.
	PatternRegex
)

func (k PatternKind) String() string {
	switch k {
	case PatternLiteral:
		return "literal"
	case PatternRegex:
		return "regex"
	default:
		return "absent"
	}
}

// Pattern is the expectation placed on a body or header value.
type Pattern struct {
	kind  PatternKind
	value string
	re    *regexp.Regexp
}

// Any returns the absent (wildcard) pattern.
func Any() Pattern {
	return Pattern{}
}

// Literal returns a pattern accepting exactly value.
func Literal(value string) Pattern {
	return Pattern{kind: PatternLiteral, value: value}
}

// Regex compiles expr into a pattern that must match the whole value.
func Regex(expr string) (Pattern, error) {
	re, err := regexp.Compile(`^(?:` + expr + `)$`)
	if err != nil {
		return Pattern{}, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	return Pattern{kind: PatternRegex, value: expr, re: re}, nil
}

// MustRegex is like Regex but panics on an invalid expression.
func MustRegex(expr string) Pattern {
	p, err := Regex(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Kind returns the variant tag.
func (p Pattern) Kind() PatternKind { return p.kind }

// Value returns the literal value or the regex source.
func (p Pattern) Value() string { return p.value }

// IsPresent reports whether the pattern constrains the value at all.
func (p Pattern) IsPresent() bool { return p.kind != PatternAbsent }

// Accepts reports whether v satisfies the pattern.
func (p Pattern) Accepts(v string) bool {
	switch p.kind {
	case PatternLiteral:
		return v == p.value
	case PatternRegex:
		return p.re.MatchString(v)
	default:
		return true
	}
}

// MarshalJSON renders the pattern as {"kind":..,"value":..}. Used for flow name digests.
func (p Pattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string `json:"kind"`
		Value string `json:"value,omitempty"`
	}{Kind: p.kind.String(), Value: nfc(p.value)})
}
