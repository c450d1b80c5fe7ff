// Package pattern matches message text against command patterns and extracts
// named parameters.
//
// Two kinds of pattern exist. Path-style patterns are plain strings made of
// literal text and named placeholders:
//
//	echo :word
//	remind {who} *
//
// They must match the whole message. Regexp patterns wrap a *regexp.Regexp and
// match anywhere in the message; their named groups become parameters.
package pattern

import (
	"fmt"
	"regexp"
)

// Params maps placeholder names to the captured text. A successful match always
// yields a non-nil map.
type Params map[string]string

// Pattern is a compiled command pattern.
type Pattern interface {
	// Match reports whether text matches and returns the extracted parameters.
	Match(text string) (Params, bool)
	// String returns the pattern as it was written.
	String() string
}

// InvalidPatternError is returned when a value cannot be turned into a Pattern.
type InvalidPatternError struct {
	Value  any
	Reason string
}

func (e *InvalidPatternError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid pattern %#v: expected a string or *regexp.Regexp", e.Value)
	}
	return fmt.Sprintf("invalid pattern %#v: %s", e.Value, e.Reason)
}

// New builds a Pattern from a path-style string, a *regexp.Regexp or an
// existing Pattern. Any other value yields an *InvalidPatternError.
func New(v any) (Pattern, error) {
	switch p := v.(type) {
	case string:
		return Compile(p)
	case *regexp.Regexp:
		if p == nil {
			return nil, &InvalidPatternError{Value: v, Reason: "nil regexp"}
		}
		return FromRegexp(p), nil
	case Pattern:
		if p == nil {
			return nil, &InvalidPatternError{Value: v, Reason: "nil pattern"}
		}
		return p, nil
	default:
		return nil, &InvalidPatternError{Value: v}
	}
}

// Must is like New but panics on error.
func Must(v any) Pattern {
	p, err := New(v)
	if err != nil {
		panic(err)
	}
	return p
}

// Regexp is a Pattern backed by a regular expression. Matching is unanchored.
type Regexp struct {
	re *regexp.Regexp
}

// FromRegexp wraps re as a Pattern.
func FromRegexp(re *regexp.Regexp) *Regexp {
	return &Regexp{re: re}
}

func (r *Regexp) Match(text string) (Params, bool) {
	loc := r.re.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil, false
	}
	return collect(r.re, text, loc), true
}

func (r *Regexp) String() string { return r.re.String() }

// collect turns the named groups of a match into Params, skipping groups that
// did not take part in the match.
func collect(re *regexp.Regexp, text string, loc []int) Params {
	params := Params{}
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		start, end := loc[2*i], loc[2*i+1]
		if start < 0 {
			continue
		}
		params[name] = text[start:end]
	}
	return params
}
