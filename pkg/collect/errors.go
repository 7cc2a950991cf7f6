package collect

import (
	"errors"
	"fmt"
)

var (
	// ErrNothingToDo is returned when collection yields no files and no file was named explicitly.
	ErrNothingToDo = errors.New("no files to process")
	// ErrNotDirectory is returned when a walk root is not a directory.
	ErrNotDirectory = errors.New("not a directory")
	// ErrRepoNotFound is returned when a --gitdir path does not exist.
	ErrRepoNotFound = errors.New("repository directory not found")
	// ErrNotGitRepo is returned when a --gitdir path exists but has no .git metadata.
	ErrNotGitRepo = errors.New("not a git repository")
)

// RepoError reports a failure to list the tracked files of one repository.
type RepoError struct {
	Op  string
	Dir string
	Err error
}

func (e *RepoError) Error() string { return fmt.Sprintf("%s %s: %v", e.Op, e.Dir, e.Err) }
func (e *RepoError) Unwrap() error { return e.Err }
