// Package classify determines the MIME type of a file and whether it is text-like or binary.
// The decision is made from the file content, never from its extension.
package classify

import (
	"fmt"
	"mime"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// Encoding is the text/binary verdict that selects the content encoder branch.
type Encoding int

const (
	Text Encoding = iota
	Binary
)

func (e Encoding) String() string {
	if e == Binary {
		return "binary"
	}
	return "text"
}

// Classification holds everything known about a file before its content is encoded.
type Classification struct {
	MimeType string // media type without parameters, e.g. "text/plain"
	Charset  string // charset parameter of the detected type, "" for binary content
	Encoding Encoding
	Size     int64
	ModTime  time.Time
}

// ClassifyError reports which lookup failed for a path.
type ClassifyError struct {
	Path string
	Op   string
	Err  error
}

func (e *ClassifyError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ClassifyError) Unwrap() error { return e.Err }

// Classifier inspects one file.
type Classifier interface {
	Classify(path string) (Classification, error)
}

// Sniffer classifies files by sniffing their leading bytes with mimetype.
type Sniffer struct{}

// NewSniffer returns the content-sniffing Classifier.
func NewSniffer() Sniffer { return Sniffer{} }

// Classify implements Classifier.
func (Sniffer) Classify(path string) (Classification, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Classification{}, &ClassifyError{Path: path, Op: "stat", Err: err}
	}
	if !info.Mode().IsRegular() {
		return Classification{}, &ClassifyError{Path: path, Op: "stat", Err: fmt.Errorf("not a regular file")}
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return Classification{}, &ClassifyError{Path: path, Op: "detect type of", Err: err}
	}

	mediaType, charset := splitMediaType(mt.String())
	enc := Binary
	if isText(mt) {
		enc = Text
	}
	if enc == Binary {
		charset = ""
	}

	return Classification{
		MimeType: mediaType,
		Charset:  charset,
		Encoding: enc,
		Size:     info.Size(),
		ModTime:  info.ModTime(),
	}, nil
}

// textOutsidePlain lists textual types that mimetype does not place under text/plain.
var textOutsidePlain = map[string]bool{
	"application/postscript": true,
}

// isText reports whether mt is text/plain or one of its descendants (json, xml, html, ...),
// any other text/* type such as text/rtf, or a textual type listed in textOutsidePlain.
func isText(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	mediaType, _ := splitMediaType(mt.String())
	return strings.HasPrefix(mediaType, "text/") || textOutsidePlain[mediaType]
}

// splitMediaType separates "text/plain; charset=utf-8" into its type and charset.
func splitMediaType(s string) (string, string) {
	mediaType, params, err := mime.ParseMediaType(s)
	if err != nil {
		base, _, _ := strings.Cut(s, ";")
		return strings.TrimSpace(base), ""
	}
	return mediaType, strings.ToLower(params["charset"])
}
