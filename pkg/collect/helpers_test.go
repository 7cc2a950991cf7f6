package collect

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/require"
)

// writeFiles creates every file under root with the given content, creating parents.
func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

// initRepo creates a git working tree at root and stages tracked (relative paths).
func initRepo(t *testing.T, root string, tracked ...string) {
	t.Helper()
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)
	w, err := repo.Worktree()
	require.NoError(t, err)
	for _, rel := range tracked {
		_, err := w.Add(rel)
		require.NoError(t, err)
	}
}

// resolved returns the canonical form of a test directory (t.TempDir may sit behind a symlink).
func resolved(t *testing.T, dir string) string {
	t.Helper()
	r, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	return r
}

// relAll maps absolute paths to sorted slash paths relative to root.
func relAll(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	sort.Strings(out)
	return out
}
