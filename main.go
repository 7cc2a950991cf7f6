package main

import (
	"log"
	"os"
	"strings"

	"files2xml/cmd"
	"files2xml/pkg/logging"

	"go.uber.org/zap"
	"golang.org/x/term"
)

func main() {
	app := cmd.NewApp()
	err := cmd.Execute(app, os.Args[1:])

	logger := app.Logger
	if logger == nil {
		// Flag parsing failed before the configured logger existed.
		logger = logging.New(0, app.Stderr)
	}
	if err != nil {
		logger.Error("files2xml execution failed", zap.Error(err))
	}

	// Sync fails with "invalid argument" on pipes and character devices other than terminals.
	if term.IsTerminal(int(os.Stderr.Fd())) || isRegularFile(os.Stderr) {
		if syncErr := logger.Sync(); syncErr != nil {
			if !strings.Contains(strings.ToLower(syncErr.Error()), "invalid argument") {
				log.Printf("Logger sync failed: %v", syncErr)
			}
		}
	}

	if err != nil {
		os.Exit(1)
	}
}

// isRegularFile checks if the given file is a regular file.
func isRegularFile(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return fileInfo.Mode().IsRegular()
}
