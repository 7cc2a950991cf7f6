// Package xmlout streams the archive document one file element at a time.
package xmlout

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"files2xml/pkg/encode"
)

// Element and attribute names of the document.
const (
	RootElement    = "Files"
	FileElement    = "File"
	ContentElement = "Content"

	// TimeLayout is ISO-8601 with seconds precision and no zone offset.
	TimeLayout = "2006-01-02T15:04:05"
)

// ErrState is returned when writer operations are called out of order.
var ErrState = errors.New("xml writer used out of order")

type state int

const (
	stateStart state = iota
	stateDeclaration
	stateRootOpen
	stateRootClosed
)

var stateNames = [...]string{"start", "declaration", "root-open", "root-closed"}

func (s state) String() string { return stateNames[s] }

// FileEntry is the metadata of one file element.
type FileEntry struct {
	Path     string // canonical absolute path
	MimeType string
	Size     int64
	ModTime  time.Time
}

// Writer emits the document: declaration, root element, file elements, closing tag.
// Pretty and minified layouts differ only in whitespace between elements.
type Writer struct {
	w      *bufio.Writer
	minify bool
	state  state
}

// NewWriter returns a Writer on out.
func NewWriter(out io.Writer, minify bool) *Writer {
	return &Writer{w: bufio.NewWriter(out), minify: minify}
}

// Begin writes the XML declaration and opens the root element.
func (x *Writer) Begin() error {
	if x.state != stateStart {
		return fmt.Errorf("%w: Begin in state %s", ErrState, x.state)
	}
	if _, err := x.w.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`); err != nil {
		return err
	}
	x.state = stateDeclaration
	if _, err := x.w.WriteString(x.newline() + "<" + RootElement + ">"); err != nil {
		return err
	}
	x.state = stateRootOpen
	return nil
}

// WriteFile writes one complete file element. The element is rendered in memory first, so
// the stream only ever receives whole elements.
func (x *Writer) WriteFile(entry FileEntry, result encode.Result) error {
	if x.state != stateRootOpen {
		return fmt.Errorf("%w: WriteFile in state %s", ErrState, x.state)
	}
	if result.Kind == encode.Skipped {
		return fmt.Errorf("%w: skipped file %s has no element", ErrState, entry.Path)
	}
	if _, err := x.w.WriteString(x.renderFile(entry, result)); err != nil {
		return err
	}
	// keep the document streaming instead of sitting in the buffer
	return x.w.Flush()
}

// End closes the root element and flushes the stream.
func (x *Writer) End() error {
	if x.state != stateRootOpen {
		return fmt.Errorf("%w: End in state %s", ErrState, x.state)
	}
	closing := x.newline() + "</" + RootElement + ">"
	if !x.minify {
		closing += "\n"
	}
	if _, err := x.w.WriteString(closing); err != nil {
		return err
	}
	x.state = stateRootClosed
	return x.w.Flush()
}

func (x *Writer) renderFile(entry FileEntry, result encode.Result) string {
	var b strings.Builder

	b.WriteString(x.indent(1))
	b.WriteString("<" + FileElement)
	writeAttr(&b, "fqfn", entry.Path)
	writeAttr(&b, "type", entry.MimeType)
	writeAttr(&b, "size", strconv.FormatInt(entry.Size, 10))
	writeAttr(&b, "modified", entry.ModTime.Format(TimeLayout))
	b.WriteString(">")

	b.WriteString(x.indent(2))
	b.WriteString("<" + ContentElement)
	switch result.Kind {
	case encode.Included:
		if result.Raw {
			b.WriteString("><![CDATA[")
			b.WriteString(result.Payload)
			b.WriteString("]]>")
		} else {
			writeAttr(&b, "encoding", result.Encoding)
			if result.Compression != "" {
				writeAttr(&b, "compression", result.Compression)
			}
			b.WriteString(">")
			b.WriteString(result.Payload)
		}
		b.WriteString("</" + ContentElement + ">")
	case encode.ExcludedMetadataOnly:
		writeAttr(&b, "excluded", "metadata_only")
		b.WriteString("/>")
	default:
		kind := result.ErrKind
		if kind == "" {
			kind = encode.ErrKindEncode
		}
		writeAttr(&b, "error", kind)
		b.WriteString("/>")
	}

	b.WriteString(x.indent(1))
	b.WriteString("</" + FileElement + ">")
	return b.String()
}

func writeAttr(b *strings.Builder, name, value string) {
	b.WriteString(" ")
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(EscapeAttr(value))
	b.WriteString(`"`)
}

// indent starts a new line at the given nesting depth in pretty mode.
func (x *Writer) indent(depth int) string {
	if x.minify {
		return ""
	}
	return "\n" + strings.Repeat("  ", depth)
}

func (x *Writer) newline() string {
	if x.minify {
		return ""
	}
	return "\n"
}
