package encode

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// CDATATerminator ends a CDATA section and may never appear inside one.
const CDATATerminator = "]]>"

// splitTerminator closes the section between "]]" and ">" and opens a new one, so the
// concatenated section contents still read "]]>".
const splitTerminator = "]]]]><![CDATA[>"

// SplitCDATA rewrites every terminator in s so s can be placed inside <![CDATA[ ... ]]>.
func SplitCDATA(s string) string {
	return strings.ReplaceAll(s, CDATATerminator, splitTerminator)
}

// PrepareCDATA validates that data can be carried verbatim by an XML 1.0 document and
// returns it terminator-split.
func PrepareCDATA(data []byte) (string, error) {
	s := string(data)
	if err := CheckXMLText(s); err != nil {
		return "", err
	}
	return SplitCDATA(s), nil
}

// CheckXMLText reports whether s is valid UTF-8 made only of characters XML 1.0 allows.
// Attribute values and CDATA sections share this rule.
func CheckXMLText(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("not valid UTF-8")
	}
	for i, r := range s {
		if !isXMLChar(r) {
			return fmt.Errorf("character %U at byte %d is not allowed in XML", r, i)
		}
	}
	return nil
}

// isXMLChar implements the Char production of XML 1.0.
func isXMLChar(r rune) bool {
	switch {
	case r == 0x9 || r == 0xA || r == 0xD:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}
