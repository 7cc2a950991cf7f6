// Package combine runs the whole archive: collect paths, classify and encode each file,
// and stream the XML document.
package combine

import (
	"fmt"
	"io"
	"os"
	"time"

	"files2xml/pkg/classify"
	"files2xml/pkg/collect"
	"files2xml/pkg/config"
	"files2xml/pkg/encode"
	"files2xml/pkg/ignore"
	"files2xml/pkg/xmlout"

	"go.uber.org/zap"
)

// Summary counts what happened to the collected files.
type Summary struct {
	Collected    int // files that survived collection
	Written      int // file elements emitted, including excluded and failed ones
	Excluded     int // elements emitted without content because of --no-content
	Failed       int // elements emitted with an error marker
	TooLarge     int // files skipped by the size limit
	Unclassified int // files skipped because type, size or time lookup failed
	BadName      int // files skipped because their path is not valid XML text
	Elapsed      time.Duration
}

// Pipeline holds the wired components for one run.
type Pipeline struct {
	cfg        config.Config
	collector  *collect.Collector
	classifier classify.Classifier
	encoder    *encode.Encoder
	logger     *zap.Logger
}

// NewPipeline wires every component from cfg.
func NewPipeline(cfg config.Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	matcher := ignore.NewMatcher(cfg.IgnorePatterns, logger)

	var source collect.TrackedSource = collect.NativeSource{}
	if cfg.GitBackend == config.GitBackendExec {
		source = collect.ExecSource{}
	}

	return &Pipeline{
		cfg: cfg,
		collector: collect.NewCollector(
			matcher,
			collect.NewWalker(matcher, logger),
			collect.NewGitLister(matcher, source, logger),
			logger,
		),
		classifier: classify.NewSniffer(),
		encoder: encode.New(encode.Options{
			MaxFileSize:    cfg.MaxFileSize,
			UseCompression: cfg.UseCompression,
			SkipContent:    cfg.SkipContent,
		}, logger),
		logger: logger,
	}
}

// Execute runs the pipeline and writes the document to stdout when cfg.Output is "-",
// otherwise to the file cfg.Output names.
// The output file is only created once there is something to write.
func Execute(cfg config.Config, stdout io.Writer, logger *zap.Logger) (Summary, error) {
	p := NewPipeline(cfg, logger)
	start := time.Now()

	files, err := p.Collect()
	if err != nil {
		return Summary{}, err
	}

	if cfg.Output == "" || cfg.Output == "-" {
		return p.Write(files, stdout, start)
	}

	outFile, err := os.Create(cfg.Output)
	if err != nil {
		p.logger.Error("Failed to create output file", zap.String("path", cfg.Output), zap.Error(err))
		return Summary{}, fmt.Errorf("failed to create output file: %w", err)
	}
	summary, err := p.Write(files, outFile, start)
	if cerr := outFile.Close(); cerr != nil && err == nil {
		p.logger.Error("Failed to close output file", zap.String("path", cfg.Output), zap.Error(cerr))
		err = fmt.Errorf("failed to close output file: %w", cerr)
	}
	return summary, err
}

// Collect returns the canonical paths to archive.
func (p *Pipeline) Collect() ([]string, error) {
	p.logger.Info("Starting collection",
		zap.Strings("paths", p.cfg.Paths),
		zap.Strings("gitdirs", p.cfg.GitDirs),
		zap.Int("ignorePatterns", len(p.cfg.IgnorePatterns)))

	files, err := p.collector.Collect(p.cfg.Paths, nil, p.cfg.GitDirs)
	if err != nil {
		p.logger.Error("Failed to collect files", zap.Error(err))
		return nil, fmt.Errorf("failed to collect files: %w", err)
	}
	return files, nil
}

// Write streams the document for files to out, one element per file in order.
// Per-file problems are logged and counted; only output errors abort.
func (p *Pipeline) Write(files []string, out io.Writer, start time.Time) (Summary, error) {
	summary := Summary{Collected: len(files)}

	xw := xmlout.NewWriter(out, p.cfg.Minify)
	if err := xw.Begin(); err != nil {
		return summary, fmt.Errorf("failed to write document header: %w", err)
	}

	for _, path := range files {
		o, err := p.ProcessSingleFile(xw, path)
		if err != nil {
			p.logger.Error("Failed to write file element", zap.String("path", path), zap.Error(err))
			return summary, fmt.Errorf("failed to write element for %s: %w", path, err)
		}
		summary.record(o)
	}

	if err := xw.End(); err != nil {
		return summary, fmt.Errorf("failed to write document trailer: %w", err)
	}

	summary.Elapsed = time.Since(start)
	p.logger.Info("Successfully combined files",
		zap.Int("collected", summary.Collected),
		zap.Int("written", summary.Written),
		zap.Int("excluded", summary.Excluded),
		zap.Int("failed", summary.Failed),
		zap.Int("tooLarge", summary.TooLarge),
		zap.Int("unclassified", summary.Unclassified),
		zap.Int("badName", summary.BadName),
		zap.Duration("elapsed", summary.Elapsed))
	return summary, nil
}

func (s *Summary) record(o Outcome) {
	switch o {
	case OutcomeWritten:
		s.Written++
	case OutcomeExcluded:
		s.Written++
		s.Excluded++
	case OutcomeFailed:
		s.Written++
		s.Failed++
	case OutcomeTooLarge:
		s.TooLarge++
	case OutcomeUnclassified:
		s.Unclassified++
	case OutcomeBadName:
		s.BadName++
	}
}
