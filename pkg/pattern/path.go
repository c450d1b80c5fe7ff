package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// SplatKey is the parameter name under which a "*" segment is captured.
const SplatKey = "splat"

type segmentKind int

const (
	segLiteral segmentKind = iota
	segNamed
	segSplat
)

type segment struct {
	kind  segmentKind
	value string // literal text or placeholder name
}

// Path is a path-style Pattern. It matches the whole input.
type Path struct {
	source   string
	segments []segment
	re       *regexp.Regexp
}

// Compile parses a path-style pattern.
//
// Recognised syntax:
//
//	:name   named placeholder, runs until the next character that cannot be part of a name
//	{name}  named placeholder with explicit bounds
//	*       splat, captured under SplatKey
//	\x      literal x
//
// Everything else, including spaces, is literal.
func Compile(source string) (*Path, error) {
	segments, err := tokenize(source)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(`\A`)
	for _, s := range segments {
		switch s.kind {
		case segLiteral:
			sb.WriteString(regexp.QuoteMeta(s.value))
		case segNamed:
			fmt.Fprintf(&sb, `(?P<%s>[^/?#]+?)`, s.value)
		case segSplat:
			fmt.Fprintf(&sb, `(?P<%s>.*?)`, SplatKey)
		}
	}
	sb.WriteString(`\z`)

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, &InvalidPatternError{Value: source, Reason: err.Error()}
	}
	return &Path{source: source, segments: segments, re: re}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(source string) *Path {
	p, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Path) Match(text string) (Params, bool) {
	loc := p.re.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil, false
	}
	return collect(p.re, text, loc), true
}

func (p *Path) String() string { return p.source }

// Names returns the placeholder names in the order they appear.
func (p *Path) Names() []string {
	var names []string
	for _, s := range p.segments {
		switch s.kind {
		case segNamed:
			names = append(names, s.value)
		case segSplat:
			names = append(names, SplatKey)
		}
	}
	return names
}

func tokenize(source string) ([]segment, error) {
	var (
		segments []segment
		literal  strings.Builder
		seen     = map[string]bool{}
	)

	flush := func() {
		if literal.Len() > 0 {
			segments = append(segments, segment{kind: segLiteral, value: literal.String()})
			literal.Reset()
		}
	}
	named := func(name string) error {
		if seen[name] {
			return &InvalidPatternError{Value: source, Reason: fmt.Sprintf("duplicate placeholder %q", name)}
		}
		seen[name] = true
		flush()
		segments = append(segments, segment{kind: segNamed, value: name})
		return nil
	}

	for i := 0; i < len(source); i++ {
		c := source[i]
		switch {
		case c == '\\':
			if i+1 >= len(source) {
				return nil, &InvalidPatternError{Value: source, Reason: "trailing escape"}
			}
			i++
			literal.WriteByte(source[i])

		case c == ':' && i+1 < len(source) && isNameStart(source[i+1]):
			j := i + 1
			for j < len(source) && isNameChar(source[j]) {
				j++
			}
			if err := named(source[i+1 : j]); err != nil {
				return nil, err
			}
			i = j - 1

		case c == '{':
			end := strings.IndexByte(source[i:], '}')
			if end < 0 {
				return nil, &InvalidPatternError{Value: source, Reason: "unterminated placeholder"}
			}
			name := source[i+1 : i+end]
			if !validName(name) {
				return nil, &InvalidPatternError{Value: source, Reason: fmt.Sprintf("invalid placeholder name %q", name)}
			}
			if err := named(name); err != nil {
				return nil, err
			}
			i += end

		case c == '*':
			if seen[SplatKey] {
				return nil, &InvalidPatternError{Value: source, Reason: "duplicate splat"}
			}
			seen[SplatKey] = true
			flush()
			segments = append(segments, segment{kind: segSplat})

		default:
			literal.WriteByte(c)
		}
	}
	flush()
	return segments, nil
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}

func validName(name string) bool {
	if name == "" || !isNameStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isNameChar(name[i]) {
			return false
		}
	}
	return true
}
