package collect

import (
	"fmt"
	"os"
)

// withWorkdir runs fn with the process working directory set to dir and restores the
// previous directory on every exit path, panics included.
func withWorkdir(dir string, fn func() error) (err error) {
	prev, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("failed to enter %s: %w", dir, err)
	}
	defer func() {
		if cerr := os.Chdir(prev); cerr != nil && err == nil {
			err = fmt.Errorf("failed to restore working directory %s: %w", prev, cerr)
		}
	}()
	return fn()
}
