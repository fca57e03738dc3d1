// Package htmlsanitize cleans user-authored HTML before it is stored.
//
// Content bodies accept rich HTML from editors. The policy allows the
// formatting a writing tool produces (headings, lists, tables, images,
// code blocks) and strips anything executable.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	// Editors paste tables with presentation attributes.
	p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
	p.AllowAttrs("class").OnElements("table", "thead", "tbody", "tr", "td", "th")
	p.AllowAttrs("style").OnElements("table", "tr", "td", "th")

	p.AllowElements("u", "s", "sub", "sup", "mark")
	p.AllowImages()

	return p
}

// Sanitize returns body with disallowed tags and attributes removed.
// Safe formatting passes through unchanged.
func Sanitize(body string) string {
	if body == "" {
		return ""
	}
	return policy.Sanitize(body)
}

// IsPlainText reports whether s contains no HTML markup. A lone < or >
// (comparisons, arrows) does not count as markup.
func IsPlainText(s string) bool {
	lt := strings.IndexByte(s, '<')
	if lt < 0 {
		return true
	}
	return strings.IndexByte(s[lt:], '>') < 0
}

// PlainTextToHTML escapes s and wraps it in a paragraph, turning
// newlines into <br>. Used when a body was submitted as plain text.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	escaped := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	).Replace(s)
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>"
}

// Normalize prepares a submitted body for storage: plain text is
// converted to minimal HTML, anything else is sanitized.
func Normalize(body string) string {
	if body == "" {
		return ""
	}
	if IsPlainText(body) {
		return PlainTextToHTML(body)
	}
	return Sanitize(body)
}
