package cmd

import (
	"io"
	"os"

	"files2xml/pkg/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// App carries the process streams and the logger created once flags are parsed.
type App struct {
	Stdout io.Writer
	Stderr zapcore.WriteSyncer
	Logger *zap.Logger

	gitDirs   []string
	ignore    []string
	verbosity int
}

// NewApp returns an App bound to the process streams.
func NewApp() *App {
	return &App{Stdout: os.Stdout, Stderr: zapcore.Lock(os.Stderr)}
}

// NewRootCmd builds the files2xml command tree.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "files2xml [flags] [file|dir ...]",
		Short: "files2xml archives files into a single XML document",
		Long: `files2xml walks files, directories and the tracked files of git working trees and
writes them to one XML document, one <File> element per file. Text is embedded as CDATA,
binary content as base64, optionally gzip-compressed.

A first argument named "version" runs the version command. To archive a file or
directory called version, pass ./version or put it after --.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runCombine(cmd, args)
		},
	}

	flags := root.Flags()
	flags.StringP(config.KeyMaxSize, "m", "1073741824", "max file size, SI suffixes K/M/G/T")
	flags.StringArrayVarP(&app.gitDirs, "gitdir", "g", nil, "git working tree whose tracked files are added (repeatable)")
	flags.StringArrayVarP(&app.ignore, "ignore", "i", nil, `ignore glob (repeatable); "" clears everything accumulated so far`)
	flags.BoolP(config.KeyCompress, "c", false, "gzip+base64 every included file")
	flags.BoolP(config.KeyNoContent, "n", false, "metadata only")
	flags.BoolP(config.KeyMinify, "M", false, "minified output")
	flags.String(config.KeyGitBackend, string(config.GitBackendNative), "how tracked files are listed: native|exec")
	flags.StringP(config.KeyOutput, "o", "-", `output path, "-" for stdout`)
	addVerbosityFlags(flags, &app.verbosity)

	root.AddCommand(newVersionCmd(app))
	return root
}

// Execute runs the command tree with args and returns the first fatal error.
func Execute(app *App, args []string) error {
	root := NewRootCmd(app)
	root.SetArgs(args)
	root.SetOut(app.Stdout)
	return root.Execute()
}
