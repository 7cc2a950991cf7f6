// Package ignore decides whether a path is excluded by an ordered list of glob patterns.
//
// A pattern may describe a bare file name ("*.log"), a directory ("__pycache__/*") or a
// path fragment; every pattern is tried against a path under six interpretations and the
// path is ignored if any of them matches.
package ignore

import (
	"path"
	"path/filepath"

	"go.uber.org/zap"
)

// Match describes the pattern and strategy that caused a path to be ignored.
type Match struct {
	Pattern  string
	Strategy Strategy
}

// Matcher holds compiled ignore patterns in the order they were supplied.
type Matcher struct {
	patterns []*IgnorePattern
	logger   *zap.Logger
}

// NewMatcher compiles the given globs. Empty patterns are skipped.
func NewMatcher(patterns []string, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Matcher{logger: logger}
	for i, line := range patterns {
		if line == "" {
			continue
		}
		p, err := compilePattern(line)
		if err != nil {
			logger.Error("Invalid ignore pattern",
				zap.String("pattern", line),
				zap.Int("index", i),
				zap.Error(err))
			continue
		}
		m.patterns = append(m.patterns, p)
	}
	return m
}

// DirPrefixes returns the directory part of every "/*" pattern, in order.
func (m *Matcher) DirPrefixes() []string {
	var prefixes []string
	for _, p := range m.patterns {
		if prefix := p.DirPrefix(); prefix != "" {
			prefixes = append(prefixes, prefix)
		}
	}
	return prefixes
}

// Match checks relPath (relative to the scan or repository root) and absPath against every
// pattern and returns the first pattern that matched.
func (m *Matcher) Match(relPath, absPath string) (Match, bool) {
	rel := normalizePath(relPath)
	abs := normalizePath(absPath)
	base := path.Base(rel)
	if rel == "" {
		base = path.Base(abs)
	}

	for _, p := range m.patterns {
		if s := MatchPattern(p, rel, base, abs); s != NoMatch {
			return Match{Pattern: p.Line, Strategy: s}, true
		}
	}
	return Match{}, false
}

// strategies lists the interpretations in evaluation order.
var strategies = []Strategy{
	MatchRelative,
	MatchBasename,
	MatchSuffix,
	MatchSegment,
	MatchFinalSegment,
	MatchAbsolute,
}

// MatchPattern evaluates a single pattern and returns the first strategy that matched.
func MatchPattern(p *IgnorePattern, relPath, basename, absPath string) Strategy {
	for _, s := range strategies {
		if p.Test(s, relPath, basename, absPath) {
			return s
		}
	}
	return NoMatch
}

// Test evaluates one strategy of the pattern in isolation.
func (p *IgnorePattern) Test(s Strategy, relPath, basename, absPath string) bool {
	switch s {
	case MatchRelative:
		return relPath != "" && p.exact.MatchString(relPath)
	case MatchBasename:
		return basename != "" && p.exact.MatchString(basename)
	case MatchSuffix:
		return relPath != "" && p.suffix.MatchString(relPath)
	case MatchSegment:
		return p.segment.MatchString(relPath)
	case MatchFinalSegment:
		return p.finalSegment.MatchString(relPath)
	case MatchAbsolute:
		return absPath != "" && p.absolute.MatchString(absPath)
	}
	return false
}

// normalizePath converts OS-specific path separators to forward slashes.
func normalizePath(p string) string {
	if p == "" {
		return ""
	}
	return filepath.ToSlash(p)
}
