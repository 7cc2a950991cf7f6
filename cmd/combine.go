package cmd

import (
	"fmt"
	"os/exec"

	"files2xml/pkg/combine"
	"files2xml/pkg/config"
	"files2xml/pkg/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runCombine resolves flags and environment into a Config, then runs the pipeline.
func (a *App) runCombine(cmd *cobra.Command, args []string) error {
	a.Logger = logging.New(a.verbosity, a.Stderr)

	v, err := config.NewViper(cmd.Flags())
	if err != nil {
		return err
	}
	opts := config.Options{
		Paths:     args,
		GitDirs:   a.gitDirs,
		Ignore:    a.ignore,
		Verbosity: a.verbosity,
	}
	config.ApplyViper(v, &opts)

	cfg, err := config.Build(opts)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.CheckTools(exec.LookPath); err != nil {
		return err
	}

	a.Logger.Debug("Resolved configuration",
		zap.Int64("maxFileSize", cfg.MaxFileSize),
		zap.Strings("ignore", cfg.IgnorePatterns),
		zap.Bool("compress", cfg.UseCompression),
		zap.Bool("noContent", cfg.SkipContent),
		zap.Bool("minify", cfg.Minify),
		zap.String("gitBackend", string(cfg.GitBackend)),
		zap.String("output", cfg.Output))

	_, err = combine.Execute(cfg, a.Stdout, a.Logger)
	return err
}
