package xmlout

import "strings"

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// EscapeAttr escapes the five XML special characters for use inside a quoted attribute value.
func EscapeAttr(s string) string {
	return attrEscaper.Replace(s)
}
