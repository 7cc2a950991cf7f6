// File: pkg/ignore/patterns.go
package ignore

import (
	"regexp"
	"strings"
)

// Strategy identifies which interpretation of a pattern matched a path.
type Strategy int

const (
	NoMatch           Strategy = iota
	MatchRelative              // relative path equals the pattern
	MatchBasename              // base name equals the pattern
	MatchSuffix                // relative path ends with the pattern
	MatchSegment               // relative path contains /pattern/
	MatchFinalSegment          // relative path ends with /pattern
	MatchAbsolute              // absolute path contains the pattern
)

var strategyNames = map[Strategy]string{
	NoMatch:           "none",
	MatchRelative:     "relative",
	MatchBasename:     "basename",
	MatchSuffix:       "suffix",
	MatchSegment:      "segment",
	MatchFinalSegment: "final-segment",
	MatchAbsolute:     "absolute",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return "unknown"
}

// IgnorePattern is one glob compiled into the six matching strategies.
type IgnorePattern struct {
	Line string // Original glob as supplied.

	exact        *regexp.Regexp // P
	suffix       *regexp.Regexp // *P
	segment      *regexp.Regexp // */P/*
	finalSegment *regexp.Regexp // */P
	absolute     *regexp.Regexp // *P*
}

// IsDirPattern reports whether the pattern names a directory subtree (trailing "/*").
func (p *IgnorePattern) IsDirPattern() bool {
	return strings.HasSuffix(p.Line, "/*")
}

// DirPrefix returns the directory part of a "/*" pattern, or "" for file patterns.
func (p *IgnorePattern) DirPrefix() string {
	if !p.IsDirPattern() {
		return ""
	}
	return strings.TrimSuffix(p.Line, "/*")
}

// compilePattern turns a glob into its per-strategy regular expressions.
func compilePattern(line string) (*IgnorePattern, error) {
	core := wildcardToRegex(line)

	compile := func(expr string) (*regexp.Regexp, error) {
		return regexp.Compile(`(?s)^` + expr + `$`)
	}

	p := &IgnorePattern{Line: line}
	var err error
	if p.exact, err = compile(core); err != nil {
		return nil, err
	}
	if p.suffix, err = compile(`.*` + core); err != nil {
		return nil, err
	}
	if p.segment, err = compile(`.*/` + core + `/.*`); err != nil {
		return nil, err
	}
	if p.finalSegment, err = compile(`.*/` + core); err != nil {
		return nil, err
	}
	if p.absolute, err = compile(`.*` + core + `.*`); err != nil {
		return nil, err
	}
	return p, nil
}

// wildcardToRegex converts '*' and '?' to their regex equivalents and quotes everything else.
// Unlike gitignore globs, '*' also crosses '/'.
func wildcardToRegex(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}
