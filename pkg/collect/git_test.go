package collect

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"files2xml/pkg/ignore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newRepoFixture(t *testing.T) string {
	t.Helper()
	root := resolved(t, t.TempDir())
	writeFiles(t, root, map[string]string{
		"main.go":          "package main",
		"internal/util.go": "package internal",
		"debug.log":        "tracked noise",
		"untracked.txt":    "not in the index",
	})
	initRepo(t, root, "main.go", "internal/util.go", "debug.log")
	return root
}

func TestNativeSourceListsIndex(t *testing.T) {
	root := newRepoFixture(t)

	names, err := NativeSource{}.TrackedFiles(root)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main.go", "internal/util.go", "debug.log"}, names)
}

func TestExecSourceListsIndex(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
	root := newRepoFixture(t)
	start, _ := os.Getwd()

	names, err := ExecSource{}.TrackedFiles(root)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main.go", "internal/util.go", "debug.log"}, names)

	now, _ := os.Getwd()
	assert.Equal(t, start, now, "working directory must be restored")
}

func TestExecSourceRestoresDirectoryOnFailure(t *testing.T) {
	start, _ := os.Getwd()

	_, err := ExecSource{Git: "files2xml-no-such-git"}.TrackedFiles(t.TempDir())
	assert.Error(t, err)

	now, _ := os.Getwd()
	assert.Equal(t, start, now)
}

func TestListTrackedFiltersAndAbsolutizes(t *testing.T) {
	root := newRepoFixture(t)
	g := NewGitLister(ignore.NewMatcher([]string{"*.log"}, nil), nil, zaptest.NewLogger(t))

	files, err := g.ListTracked([]string{root})
	require.NoError(t, err)
	assert.Equal(t, []string{"internal/util.go", "main.go"}, relAll(t, root, files))
	for _, f := range files {
		assert.True(t, filepath.IsAbs(f))
	}
}

func TestListTrackedDistinguishesErrors(t *testing.T) {
	plain := t.TempDir()
	g := NewGitLister(ignore.NewMatcher(nil, nil), nil, nil)

	_, err := g.ListTracked([]string{plain})
	assert.ErrorIs(t, err, ErrNotGitRepo)
	assert.NotErrorIs(t, err, ErrRepoNotFound)

	_, err = g.ListTracked([]string{filepath.Join(plain, "missing")})
	assert.ErrorIs(t, err, ErrRepoNotFound)
	assert.NotErrorIs(t, err, ErrNotGitRepo)

	var repoErr *RepoError
	require.ErrorAs(t, err, &repoErr)
	assert.Equal(t, "stat", repoErr.Op)
}

func TestListTrackedUnionsRepositories(t *testing.T) {
	a := newRepoFixture(t)
	b := resolved(t, t.TempDir())
	writeFiles(t, b, map[string]string{"README.md": "# b"})
	initRepo(t, b, "README.md")
	bad := t.TempDir()

	g := NewGitLister(ignore.NewMatcher([]string{"*.log"}, nil), nil, nil)
	files, err := g.ListTracked([]string{a, bad, b})

	assert.ErrorIs(t, err, ErrNotGitRepo)
	require.Len(t, files, 3)
	assert.Equal(t, filepath.Join(b, "README.md"), files[2])
}

func TestIgnoreSymmetryBetweenWalkAndGit(t *testing.T) {
	root := newRepoFixture(t)
	m := ignore.NewMatcher([]string{"*.log", ".git/*", "untracked.txt"}, nil)

	walked, err := NewWalker(m, nil).Walk([]string{root})
	require.NoError(t, err)
	listed, err := NewGitLister(m, nil, nil).ListTracked([]string{root})
	require.NoError(t, err)

	assert.Equal(t, relAll(t, root, walked), relAll(t, root, listed))
	assert.NotContains(t, relAll(t, root, listed), "debug.log")
}
