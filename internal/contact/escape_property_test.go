//go:build property

package contact_test

import (
	"html"
	"strings"
	"testing"

	"github.com/aryanraj/portfolio-contact/internal/contact"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestEscapeHTMLProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	specials := gen.OneConstOf("&", "<", ">", `"`, "'", "a", "é", " ", "\n", "&amp;")
	inputs := gen.SliceOf(specials).Map(func(parts []string) string {
		return strings.Join(parts, "")
	})

	properties.Property("output has no raw markup characters", prop.ForAll(
		func(s string) bool {
			return !strings.ContainsAny(contact.EscapeHTML(s), `<>"'`)
		},
		inputs,
	))

	properties.Property("unescaping restores the input", prop.ForAll(
		func(s string) bool {
			return html.UnescapeString(contact.EscapeHTML(s)) == s
		},
		gen.AnyString(),
	))

	properties.Property("text without specials is unchanged", prop.ForAll(
		func(s string) bool {
			if strings.ContainsAny(s, `&<>"'`) {
				return true
			}
			return contact.EscapeHTML(s) == s
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
