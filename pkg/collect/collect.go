// Package collect gathers the files to archive from explicit arguments, directory walks and
// git tracked-file listings, filtered by one ignore matcher and deduplicated by canonical path.
package collect

import (
	"fmt"
	"os"
	"path/filepath"

	"files2xml/pkg/ignore"

	"go.uber.org/zap"
)

// Collector merges all path sources into one ordered, deduplicated list.
type Collector struct {
	matcher *ignore.Matcher
	walker  *Walker
	git     *GitLister
	logger  *zap.Logger
}

// NewCollector wires a collector. Nil walker or git lister are built from m with defaults.
func NewCollector(m *ignore.Matcher, walker *Walker, git *GitLister, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if walker == nil {
		walker = NewWalker(m, logger)
	}
	if git == nil {
		git = NewGitLister(m, nil, logger)
	}
	return &Collector{matcher: m, walker: walker, git: git, logger: logger}
}

// Collect returns canonical absolute paths in first-seen order: explicit files, then walked
// files, then git-tracked files. It fails with ErrNothingToDo only when the result is empty
// and no explicit regular file was given.
func (c *Collector) Collect(explicit, dirs, repos []string) ([]string, error) {
	var explicitFiles, explicitDirs []string
	for _, p := range explicit {
		info, err := os.Stat(p)
		switch {
		case err != nil:
			c.logger.Warn("Skipping argument that is neither a file nor a directory", zap.String("path", p), zap.Error(err))
		case info.IsDir():
			explicitDirs = append(explicitDirs, p)
		case info.Mode().IsRegular():
			explicitFiles = append(explicitFiles, p)
		default:
			c.logger.Warn("Skipping argument that is not a regular file", zap.String("path", p))
		}
	}

	var candidates []string
	for _, f := range explicitFiles {
		absPath, err := filepath.Abs(f)
		if err != nil {
			c.logger.Warn("Failed to get absolute path", zap.String("path", f), zap.Error(err))
			continue
		}
		if m, ok := c.matcher.Match(filepath.Clean(f), absPath); ok {
			c.logger.Debug("Skipping ignored file",
				zap.String("path", f),
				zap.String("pattern", m.Pattern),
				zap.Stringer("strategy", m.Strategy))
			continue
		}
		candidates = append(candidates, f)
	}

	for _, dir := range append(explicitDirs, dirs...) {
		// one walk per root so a bad root only loses its own files
		found, err := c.walker.Walk([]string{dir})
		if err != nil {
			c.logger.Warn("Failed to walk directory", zap.String("path", dir), zap.Error(err))
			continue
		}
		c.logger.Info("Walked directory", zap.String("path", dir), zap.Int("files", len(found)))
		candidates = append(candidates, found...)
	}

	if len(repos) > 0 {
		found, err := c.git.ListTracked(repos)
		if err != nil {
			c.logger.Warn("Some git repositories contributed no files", zap.Error(err))
		}
		candidates = append(candidates, found...)
	}

	seen := make(map[string]string, len(candidates))
	files := make([]string, 0, len(candidates))
	for _, p := range candidates {
		canonical, err := Canonicalize(p)
		if err != nil {
			c.logger.Warn("Skipping file that cannot be canonicalized", zap.String("path", p), zap.Error(err))
			continue
		}
		if first, dup := seen[canonical]; dup {
			c.logger.Debug("Dropping duplicate path",
				zap.String("path", p),
				zap.String("canonical", canonical),
				zap.String("firstSeen", first))
			continue
		}
		seen[canonical] = p
		files = append(files, canonical)
	}

	if len(files) == 0 && len(explicitFiles) == 0 {
		return nil, ErrNothingToDo
	}
	c.logger.Info("Collected files", zap.Int("candidates", len(candidates)), zap.Int("files", len(files)))
	return files, nil
}

// Canonicalize resolves p to an absolute, symlink-free path naming a regular file.
func Canonicalize(p string) (string, error) {
	absPath, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve symlinks: %w", err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("failed to stat: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file", resolved)
	}
	return resolved, nil
}
