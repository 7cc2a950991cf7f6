package collect

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"files2xml/pkg/ignore"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"go.uber.org/zap"
)

// TrackedSource lists the files tracked by the repository rooted at root,
// relative to that root and slash separated.
type TrackedSource interface {
	TrackedFiles(root string) ([]string, error)
}

// NativeSource reads the tracked files from the repository index with go-git.
type NativeSource struct{}

// TrackedFiles implements TrackedSource.
func (NativeSource) TrackedFiles(root string) ([]string, error) {
	repo, err := git.PlainOpen(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	idx, err := repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	names := make([]string, 0, len(idx.Entries))
	for _, e := range idx.Entries {
		if e.Mode == filemode.Submodule {
			continue
		}
		// conflicted paths appear once per stage
		if n := len(names); n > 0 && names[n-1] == e.Name {
			continue
		}
		names = append(names, e.Name)
	}
	return names, nil
}

// ExecSource runs `git ls-files` from inside the repository root.
type ExecSource struct {
	Git string // git binary, "git" when empty
}

// TrackedFiles implements TrackedSource.
func (s ExecSource) TrackedFiles(root string) ([]string, error) {
	bin := s.Git
	if bin == "" {
		bin = "git"
	}

	var out []byte
	err := withWorkdir(root, func() error {
		cmd := exec.Command(bin, "ls-files", "-z")
		cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
		var runErr error
		out, runErr = cmd.Output()
		if runErr != nil {
			var exitErr *exec.ExitError
			if errors.As(runErr, &exitErr) {
				return fmt.Errorf("git ls-files: %s", strings.TrimSpace(string(exitErr.Stderr)))
			}
			return fmt.Errorf("git ls-files: %w", runErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var names []string
	for _, name := range bytes.Split(out, []byte{0}) {
		if len(name) > 0 {
			names = append(names, string(name))
		}
	}
	return names, nil
}

// GitLister turns the tracked files of git working trees into absolute, filtered paths.
type GitLister struct {
	matcher *ignore.Matcher
	source  TrackedSource
	logger  *zap.Logger
}

// NewGitLister creates a GitLister. A nil source means NativeSource.
func NewGitLister(m *ignore.Matcher, source TrackedSource, logger *zap.Logger) *GitLister {
	if source == nil {
		source = NativeSource{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GitLister{matcher: m, source: source, logger: logger}
}

// ListTracked returns the union of the tracked files of repoDirs, in argument order.
// A failing repository contributes nothing; its error is joined into the returned error
// while the files of the other repositories are still returned.
func (g *GitLister) ListTracked(repoDirs []string) ([]string, error) {
	var files []string
	var errs []error
	for _, dir := range repoDirs {
		found, err := g.listRepo(dir)
		if err != nil {
			g.logger.Warn("Failed to list tracked files", zap.String("path", dir), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		g.logger.Info("Listed tracked files", zap.String("path", dir), zap.Int("files", len(found)))
		files = append(files, found...)
	}
	return files, errors.Join(errs...)
}

func (g *GitLister) listRepo(dir string) ([]string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, &RepoError{Op: "resolve", Dir: dir, Err: err}
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, &RepoError{Op: "stat", Dir: dir, Err: fmt.Errorf("%w: %v", ErrRepoNotFound, err)}
	}
	if !info.IsDir() {
		return nil, &RepoError{Op: "stat", Dir: dir, Err: fmt.Errorf("%w: %w", ErrRepoNotFound, ErrNotDirectory)}
	}
	// .git is a directory in a plain checkout and a file in worktrees and submodules.
	if _, err := os.Stat(filepath.Join(root, ".git")); err != nil {
		return nil, &RepoError{Op: "check", Dir: dir, Err: ErrNotGitRepo}
	}
	// same root form as Walker so both sources see identical absolute paths
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	tracked, err := g.source.TrackedFiles(root)
	if err != nil {
		return nil, &RepoError{Op: "list", Dir: dir, Err: err}
	}

	files := make([]string, 0, len(tracked))
	for _, rel := range tracked {
		absPath := filepath.Join(root, filepath.FromSlash(rel))
		if m, ok := g.matcher.Match(rel, absPath); ok {
			g.logger.Debug("Skipping ignored tracked file",
				zap.String("path", absPath),
				zap.String("pattern", m.Pattern),
				zap.Stringer("strategy", m.Strategy))
			continue
		}
		files = append(files, absPath)
	}
	return files, nil
}
