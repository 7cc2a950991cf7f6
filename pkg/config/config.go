// Package config builds the immutable run configuration from flags and the environment.
package config

import (
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. FILES2XML_MAX_SIZE.
const EnvPrefix = "FILES2XML"

// DefaultMaxFileSize is 1 GiB.
const DefaultMaxFileSize int64 = 1073741824

// Keys shared by the flag set and viper.
const (
	KeyMaxSize    = "max-size"
	KeyCompress   = "compress"
	KeyNoContent  = "no-content"
	KeyMinify     = "minify"
	KeyGitBackend = "git-backend"
	KeyOutput     = "output"
)

// DefaultFilePatterns are ignored unless cleared with an empty --ignore.
var DefaultFilePatterns = []string{
	"*.mp*",
	"~*",
	"*~",
	"*.bak",
	"*.log",
	"*.old",
	"*LI*",
}

// DefaultDirPatterns prune whole subtrees.
var DefaultDirPatterns = []string{
	"__pycache__/*",
	".cache/*",
	".venv/*",
	"venv/*",
	".gudang/*",
	"gudang/*",
}

var (
	ErrInvalidSize       = errors.New("invalid size")
	ErrInvalidGitBackend = errors.New("invalid git backend")
	ErrToolMissing       = errors.New("required tool not found")
)

// GitBackend selects how tracked files are listed.
type GitBackend string

const (
	GitBackendNative GitBackend = "native" // go-git index
	GitBackendExec   GitBackend = "exec"   // `git ls-files`
)

// Options holds raw user input before validation.
type Options struct {
	Paths      []string // Positional file or directory arguments.
	GitDirs    []string // --gitdir values.
	Ignore     []string // --ignore values in command-line order.
	MaxSize    string   // Human-readable size limit.
	Compress   bool
	NoContent  bool
	Minify     bool
	Verbosity  int
	GitBackend string
	Output     string
}

// Config is the validated configuration. It is built once and only read afterwards.
type Config struct {
	Paths          []string
	GitDirs        []string
	MaxFileSize    int64
	IgnorePatterns []string
	UseCompression bool
	SkipContent    bool
	Minify         bool
	Verbosity      int
	GitBackend     GitBackend
	Output         string
}

// Build validates opts and produces a Config.
func Build(opts Options) (Config, error) {
	maxSize := DefaultMaxFileSize
	if strings.TrimSpace(opts.MaxSize) != "" {
		n, err := ParseSize(opts.MaxSize)
		if err != nil {
			return Config{}, err
		}
		maxSize = n
	}

	backend := GitBackend(strings.ToLower(strings.TrimSpace(opts.GitBackend)))
	switch backend {
	case "":
		backend = GitBackendNative
	case GitBackendNative, GitBackendExec:
	default:
		return Config{}, fmt.Errorf("%w: %q (want %q or %q)", ErrInvalidGitBackend, opts.GitBackend, GitBackendNative, GitBackendExec)
	}

	output := opts.Output
	if output == "" {
		output = "-"
	}

	verbosity := opts.Verbosity
	if verbosity < 0 {
		verbosity = 0
	}

	return Config{
		Paths:          append([]string(nil), opts.Paths...),
		GitDirs:        append([]string(nil), opts.GitDirs...),
		MaxFileSize:    maxSize,
		IgnorePatterns: AccumulateIgnore(DefaultPatterns(), opts.Ignore),
		UseCompression: opts.Compress,
		SkipContent:    opts.NoContent,
		Minify:         opts.Minify,
		Verbosity:      verbosity,
		GitBackend:     backend,
		Output:         output,
	}, nil
}

// DefaultPatterns returns a fresh copy of the file patterns followed by the directory patterns.
func DefaultPatterns() []string {
	patterns := make([]string, 0, len(DefaultFilePatterns)+len(DefaultDirPatterns))
	patterns = append(patterns, DefaultFilePatterns...)
	return append(patterns, DefaultDirPatterns...)
}

// AccumulateIgnore appends extra patterns to base in order. An empty pattern discards
// everything accumulated before it, defaults included.
func AccumulateIgnore(base, extra []string) []string {
	patterns := append([]string(nil), base...)
	for _, p := range extra {
		if p == "" {
			patterns = patterns[:0]
			continue
		}
		patterns = append(patterns, p)
	}
	return patterns
}

// ParseSize converts "1073741824", "500K", "10M", "1G", "2T" or "1GiB" into bytes.
// Single-letter suffixes are SI (powers of 1000).
func ParseSize(s string) (int64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidSize)
	}
	n, err := humanize.ParseBytes(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidSize, s, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidSize, s)
	}
	return int64(n), nil
}

// CheckTools verifies that external programs this configuration relies on are available.
func (c Config) CheckTools(lookPath func(string) (string, error)) error {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if c.GitBackend == GitBackendExec && len(c.GitDirs) > 0 {
		if _, err := lookPath("git"); err != nil {
			return fmt.Errorf("%w: git: %v", ErrToolMissing, err)
		}
	}
	return nil
}

// NewViper binds the scalar flags of fs to a viper instance that also reads
// FILES2XML_* environment variables. A flag set on the command line wins over the environment.
func NewViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, key := range []string{KeyMaxSize, KeyCompress, KeyNoContent, KeyMinify, KeyGitBackend, KeyOutput} {
		flag := fs.Lookup(key)
		if flag == nil {
			return nil, fmt.Errorf("flag %q is not defined", key)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("failed to bind flag %q: %w", key, err)
		}
	}
	return v, nil
}

// ApplyViper copies the viper-resolved scalar settings into opts.
func ApplyViper(v *viper.Viper, opts *Options) {
	opts.MaxSize = v.GetString(KeyMaxSize)
	opts.Compress = v.GetBool(KeyCompress)
	opts.NoContent = v.GetBool(KeyNoContent)
	opts.Minify = v.GetBool(KeyMinify)
	opts.GitBackend = v.GetString(KeyGitBackend)
	opts.Output = v.GetString(KeyOutput)
}
