package contact

import "strings"

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeHTML replaces & < > " ' with their entities and leaves every other
// character alone. Apply it once per value; input that already contains
// entities is escaped again, so it renders exactly as typed.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
