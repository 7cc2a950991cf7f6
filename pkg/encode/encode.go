// Package encode turns a classified file into the payload embedded in the XML document.
package encode

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"files2xml/pkg/classify"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
)

// Kind tags the outcome of encoding one file.
type Kind int

const (
	Included             Kind = iota // payload present
	ExcludedMetadataOnly             // content deliberately left out
	Failed                           // element emitted with an error marker
	Skipped                          // no element emitted at all
)

func (k Kind) String() string {
	switch k {
	case Included:
		return "included"
	case ExcludedMetadataOnly:
		return "metadata_only"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	}
	return "unknown"
}

// Error kinds rendered into the error attribute of the content element.
const (
	ErrKindEncode = "failed_to_encode"
	ErrKindCDATA  = "failed_to_process_cdata"
)

// Transform names rendered as content attributes.
const (
	EncodingBase64  = "base64"
	CompressionGzip = "gzip"
)

// Result is the content outcome for one file. It is set exactly once per file.
type Result struct {
	Kind        Kind
	Payload     string // base64 text or terminator-split CDATA text
	Encoding    string // "base64" or ""
	Compression string // "gzip" or ""
	Raw         bool   // Payload goes into a CDATA section
	ErrKind     string // set when Kind == Failed
	Err         error  // underlying failure, for diagnostics only
}

// Options are the configuration values the encoder depends on.
type Options struct {
	MaxFileSize    int64
	UseCompression bool
	SkipContent    bool
}

// Encoder applies the content decision table.
type Encoder struct {
	opts   Options
	logger *zap.Logger
	open   func(string) (io.ReadCloser, error)
}

// New creates an Encoder.
func New(opts Options, logger *zap.Logger) *Encoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Encoder{
		opts:   opts,
		logger: logger,
		open:   func(p string) (io.ReadCloser, error) { return os.Open(p) },
	}
}

// Encode decides how the content of path is embedded. The size rule runs before any
// content is read; compression applies to text and binary alike and only the uncompressed
// path differs by classification.
func (e *Encoder) Encode(path string, c classify.Classification) Result {
	if c.Size > e.opts.MaxFileSize {
		e.logger.Warn("Skipping file larger than size limit",
			zap.String("path", path),
			zap.String("size", humanize.IBytes(uint64(c.Size))),
			zap.String("limit", humanize.IBytes(uint64(e.opts.MaxFileSize))))
		return Result{Kind: Skipped}
	}

	if e.opts.SkipContent {
		return Result{Kind: ExcludedMetadataOnly}
	}

	switch {
	case e.opts.UseCompression:
		payload, err := e.withFile(path, gzipBase64)
		if err != nil {
			return e.fail(path, ErrKindEncode, "compress", err)
		}
		return Result{Kind: Included, Payload: payload, Encoding: EncodingBase64, Compression: CompressionGzip}

	case c.Encoding == classify.Binary:
		payload, err := e.withFile(path, plainBase64)
		if err != nil {
			return e.fail(path, ErrKindEncode, "base64-encode", err)
		}
		return Result{Kind: Included, Payload: payload, Encoding: EncodingBase64}

	default:
		payload, err := e.withFile(path, func(r io.Reader) (string, error) {
			return cdataText(r, c.Charset)
		})
		if err != nil {
			return e.fail(path, ErrKindCDATA, "prepare CDATA for", err)
		}
		return Result{Kind: Included, Payload: payload, Raw: true}
	}
}

func (e *Encoder) fail(path, kind, op string, err error) Result {
	e.logger.Warn("Failed to encode file content",
		zap.String("path", path),
		zap.String("op", op),
		zap.String("kind", kind),
		zap.Error(err))
	return Result{Kind: Failed, ErrKind: kind, Err: err}
}

func (e *Encoder) withFile(path string, fn func(io.Reader) (string, error)) (string, error) {
	f, err := e.open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return fn(f)
}

// gzipBase64 compresses r and base64-encodes the compressed stream on a single line.
func gzipBase64(r io.Reader) (string, error) {
	var buf bytes.Buffer
	b64 := base64.NewEncoder(base64.StdEncoding, &buf)
	zw := gzip.NewWriter(b64)
	if _, err := io.Copy(zw, r); err != nil {
		return "", fmt.Errorf("gzip: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("gzip: %w", err)
	}
	if err := b64.Close(); err != nil {
		return "", fmt.Errorf("base64: %w", err)
	}
	return buf.String(), nil
}

// plainBase64 base64-encodes r on a single line.
func plainBase64(r io.Reader) (string, error) {
	var buf bytes.Buffer
	b64 := base64.NewEncoder(base64.StdEncoding, &buf)
	if _, err := io.Copy(b64, r); err != nil {
		return "", fmt.Errorf("base64: %w", err)
	}
	if err := b64.Close(); err != nil {
		return "", fmt.Errorf("base64: %w", err)
	}
	return buf.String(), nil
}

// cdataText reads r, transcodes it from charset to UTF-8 and prepares it for a CDATA section.
func cdataText(r io.Reader, charset string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	data, err = toUTF8(data, charset)
	if err != nil {
		return "", err
	}
	return PrepareCDATA(data)
}
