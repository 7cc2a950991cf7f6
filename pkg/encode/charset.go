package encode

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// toUTF8 converts data from the detected charset to UTF-8. An empty charset, UTF-8 and
// US-ASCII pass through unchanged.
func toUTF8(data []byte, charset string) ([]byte, error) {
	switch strings.ToLower(charset) {
	case "", "utf-8", "us-ascii":
		return data, nil
	}
	enc, err := ianaindex.MIME.Encoding(charset)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", charset, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", charset, err)
	}
	return out, nil
}
