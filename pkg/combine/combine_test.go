package combine

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"files2xml/pkg/classify"
	"files2xml/pkg/collect"
	"files2xml/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type docContent struct {
	Encoding    string `xml:"encoding,attr"`
	Compression string `xml:"compression,attr"`
	Error       string `xml:"error,attr"`
	Excluded    string `xml:"excluded,attr"`
	Body        string `xml:",chardata"`
}

type docFile struct {
	Path    string     `xml:"fqfn,attr"`
	Type    string     `xml:"type,attr"`
	Size    string     `xml:"size,attr"`
	Content docContent `xml:"Content"`
}

type doc struct {
	XMLName xml.Name  `xml:"Files"`
	Files   []docFile `xml:"File"`
}

func parseDoc(t *testing.T, s string) doc {
	t.Helper()
	var d doc
	require.NoError(t, xml.Unmarshal([]byte(s), &d), s)
	return d
}

func buildConfig(t *testing.T, opts config.Options) config.Config {
	t.Helper()
	cfg, err := config.Build(opts)
	require.NoError(t, err)
	return cfg
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	resolved, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	return resolved
}

func run(t *testing.T, opts config.Options) (string, Summary) {
	t.Helper()
	var out bytes.Buffer
	opts.Output = "-"
	summary, err := Execute(buildConfig(t, opts), &out, zap.NewNop())
	require.NoError(t, err)
	return out.String(), summary
}

func TestExecuteHelloText(t *testing.T) {
	dir := t.TempDir()
	hello := writeFile(t, filepath.Join(dir, "hello.txt"), "hello world\n")

	out, summary := run(t, config.Options{Paths: []string{dir}})

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, "<![CDATA[hello world\n]]>")

	d := parseDoc(t, out)
	require.Len(t, d.Files, 1)
	assert.Equal(t, hello, d.Files[0].Path)
	assert.Equal(t, "text/plain", d.Files[0].Type)
	assert.Equal(t, "12", d.Files[0].Size)
	assert.Equal(t, "hello world\n", d.Files[0].Content.Body)

	assert.Equal(t, 1, summary.Collected)
	assert.Equal(t, 1, summary.Written)
}

func TestExecuteSplitsTerminator(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "t.txt"), "a]]>b")

	out, _ := run(t, config.Options{Paths: []string{dir}})

	assert.Contains(t, out, "<![CDATA[a]]]]><![CDATA[>b]]>")
	d := parseDoc(t, out)
	require.Len(t, d.Files, 1)
	assert.Equal(t, "a]]>b", d.Files[0].Content.Body)
}

func TestExecuteBinaryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	data := append([]byte("\x89PNG\r\n\x1a\n"), 0x00, 0x01, 0x02, 0xff)
	path := filepath.Join(dir, "logo.png")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	out, _ := run(t, config.Options{Paths: []string{path}})

	d := parseDoc(t, out)
	require.Len(t, d.Files, 1)
	assert.Equal(t, "image/png", d.Files[0].Type)
	assert.Equal(t, "base64", d.Files[0].Content.Encoding)
	decoded, err := base64.StdEncoding.DecodeString(d.Files[0].Content.Body)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestExecuteCompression(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "compress me\n")

	out, _ := run(t, config.Options{Paths: []string{dir}, Compress: true})

	d := parseDoc(t, out)
	require.Len(t, d.Files, 1)
	c := d.Files[0].Content
	assert.Equal(t, "base64", c.Encoding)
	assert.Equal(t, "gzip", c.Compression)

	raw, err := base64.StdEncoding.DecodeString(c.Body)
	require.NoError(t, err)
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "compress me\n", string(plain))
}

func TestExecuteNoContent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "secret\n")

	out, summary := run(t, config.Options{Paths: []string{dir}, NoContent: true})

	assert.NotContains(t, out, "secret")
	d := parseDoc(t, out)
	require.Len(t, d.Files, 1)
	assert.Equal(t, "metadata_only", d.Files[0].Content.Excluded)
	assert.Equal(t, "7", d.Files[0].Size)
	assert.Equal(t, 1, summary.Excluded)
}

func TestExecuteSizeBoundary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "fits.txt"), "12345")
	writeFile(t, filepath.Join(dir, "over.txt"), "123456")

	out, summary := run(t, config.Options{Paths: []string{dir}, MaxSize: "5"})

	d := parseDoc(t, out)
	require.Len(t, d.Files, 1)
	assert.Equal(t, "fits.txt", filepath.Base(d.Files[0].Path))
	assert.Equal(t, 1, summary.TooLarge)
	assert.Equal(t, 2, summary.Collected)
}

func TestExecuteDeduplicatesSymlink(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, filepath.Join(dir, "real.txt"), "once\n")
	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	out, _ := run(t, config.Options{Paths: []string{target, link, dir}})

	d := parseDoc(t, out)
	require.Len(t, d.Files, 1)
	assert.Equal(t, target, d.Files[0].Path)
}

func TestExecuteMinifyEquivalent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "alpha\n")
	writeFile(t, filepath.Join(dir, "b.txt"), "beta]]>\n")

	pretty, _ := run(t, config.Options{Paths: []string{dir}})
	minified, _ := run(t, config.Options{Paths: []string{dir}, Minify: true})

	assert.NotEqual(t, pretty, minified)
	assert.NotContains(t, minified, "\n  <")
	assert.Equal(t, parseDoc(t, pretty), parseDoc(t, minified))
}

func TestExecuteNothingToDo(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "noise.log"), "ignored\n")

	var out bytes.Buffer
	_, err := Execute(buildConfig(t, config.Options{Paths: []string{dir}, Output: "-"}), &out, zap.NewNop())

	require.Error(t, err)
	assert.True(t, errors.Is(err, collect.ErrNothingToDo))
	assert.Empty(t, out.String())
}

func TestExecuteExplicitIgnoredFileWritesEmptyDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "noise.log"), "ignored\n")

	out, summary := run(t, config.Options{Paths: []string{path}})

	assert.Empty(t, parseDoc(t, out).Files)
	assert.Equal(t, 0, summary.Collected)
}

type failingClassifier struct{}

func (failingClassifier) Classify(path string) (classify.Classification, error) {
	return classify.Classification{}, &classify.ClassifyError{Path: path, Op: "stat", Err: os.ErrPermission}
}

func TestPipelineIsolatesPerFileFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "alpha\n")

	core, logs := observer.New(zapcore.WarnLevel)
	cfg := buildConfig(t, config.Options{Paths: []string{dir}})
	p := NewPipeline(cfg, zap.New(core))
	p.classifier = failingClassifier{}

	files, err := p.Collect()
	require.NoError(t, err)

	var out bytes.Buffer
	summary, err := p.Write(files, &out, time.Now())
	require.NoError(t, err)

	assert.Empty(t, parseDoc(t, out.String()).Files)
	assert.Equal(t, 1, summary.Unclassified)
	assert.Equal(t, 1, logs.FilterMessage("Skipping file that cannot be classified").Len())
}

func TestExecuteWritesOutputFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "a.txt"), "alpha\n")
	outPath := filepath.Join(dir, "out.xml")

	cfg := buildConfig(t, config.Options{Paths: []string{filepath.Join(dir, "src")}, Output: outPath})
	var stdout bytes.Buffer
	summary, err := Execute(cfg, &stdout, zap.NewNop())
	require.NoError(t, err)

	assert.Empty(t, stdout.String())
	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Len(t, parseDoc(t, string(data)).Files, 1)
	assert.Equal(t, 1, summary.Written)
}

func TestExecuteDoesNotCreateOutputWhenNothingToDo(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.xml")
	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.Mkdir(empty, 0o755))

	cfg := buildConfig(t, config.Options{Paths: []string{empty}, Output: outPath})
	_, err := Execute(cfg, io.Discard, zap.NewNop())

	assert.ErrorIs(t, err, collect.ErrNothingToDo)
	assert.NoFileExists(t, outPath)
}

func TestExecuteSkipsPathsThatAreNotXMLText(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, filepath.Join(dir, "good.txt"), "fine\n")

	var bad []string
	for _, name := range []string{"bad\x01name.txt", "bad\xffname.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("hidden\n"), 0o644); err != nil {
			t.Logf("filesystem rejected %q: %v", name, err)
			continue
		}
		bad = append(bad, name)
	}
	if len(bad) == 0 {
		t.Skip("filesystem accepts neither control bytes nor invalid UTF-8 in names")
	}

	core, logs := observer.New(zapcore.WarnLevel)
	var out bytes.Buffer
	summary, err := Execute(buildConfig(t, config.Options{Paths: []string{dir}, Output: "-"}), &out, zap.New(core))
	require.NoError(t, err)

	d := parseDoc(t, out.String())
	require.Len(t, d.Files, 1)
	assert.Equal(t, good, d.Files[0].Path)
	assert.NotContains(t, out.String(), "hidden")
	assert.Equal(t, len(bad), summary.BadName)
	assert.Equal(t, 1, summary.Written)
	assert.Equal(t, len(bad), logs.FilterMessage("Skipping file whose path cannot be represented in XML").Len())
}
