// File: pkg/collect/traversal.go
package collect

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"files2xml/pkg/ignore"

	"go.uber.org/zap"
)

// Walker enumerates regular files below directory roots, pruning ignored subtrees.
type Walker struct {
	matcher *ignore.Matcher
	logger  *zap.Logger
}

// NewWalker creates a Walker that filters with m.
func NewWalker(m *ignore.Matcher, logger *zap.Logger) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{matcher: m, logger: logger}
}

// Walk returns the absolute paths of all non-ignored regular files under roots.
// A root that is not a directory aborts the whole call.
func (w *Walker) Walk(roots []string) ([]string, error) {
	var files []string
	for _, root := range roots {
		found, err := w.walkRoot(root)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

func (w *Walker) walkRoot(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path of %s: %w", root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}
	// WalkDir does not descend into a root that is itself a symlink.
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = resolved
	}

	pruned := w.prunedDirs(absRoot)
	w.logger.Debug("Starting directory traversal",
		zap.String("root", absRoot),
		zap.Int("prunedDirs", len(pruned)))

	var files []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			w.logger.Warn("Error accessing path during traversal", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if pattern, ok := pruned[path]; ok {
				w.logger.Debug("Pruning ignored directory",
					zap.String("path", path),
					zap.String("pattern", pattern))
				return filepath.SkipDir
			}
			return nil
		}

		if !isRegularFile(path, d) {
			w.logger.Debug("Skipping non-regular file", zap.String("path", path))
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			relPath = path
		}
		if m, ok := w.matcher.Match(relPath, path); ok {
			w.logger.Debug("Skipping ignored file",
				zap.String("path", path),
				zap.String("pattern", m.Pattern),
				zap.Stringer("strategy", m.Strategy))
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	w.logger.Debug("Completed directory traversal", zap.String("root", absRoot), zap.Int("files", len(files)))
	return files, nil
}

// prunedDirs maps every existing directory named by a "/*" pattern under root to that pattern.
func (w *Walker) prunedDirs(root string) map[string]string {
	pruned := make(map[string]string)
	for _, prefix := range w.matcher.DirPrefixes() {
		matches, err := filepath.Glob(filepath.Join(root, filepath.FromSlash(prefix)))
		if err != nil {
			w.logger.Debug("Cannot expand directory pattern", zap.String("pattern", prefix), zap.Error(err))
			continue
		}
		for _, dir := range matches {
			info, err := os.Lstat(dir)
			if err != nil || !info.IsDir() {
				continue
			}
			if _, seen := pruned[dir]; !seen {
				pruned[dir] = prefix + "/*"
			}
		}
	}
	return pruned
}

// isRegularFile accepts regular files and symlinks that resolve to one.
func isRegularFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
