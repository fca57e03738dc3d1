// internal/app/system/normalize/normalize.go

// Package normalize provides canonicalization helpers applied before
// validation and persistence, so lookups and uniqueness checks behave
// consistently regardless of how input was typed.
package normalize

import "strings"

// Email lowercases and trims an email address. Emails are compared
// case-insensitively everywhere, so the stored form is always lowercase.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Slug lowercases, trims, and collapses interior whitespace runs to a
// single hyphen.
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "-")
}

// Query trims a free-text search query.
func Query(s string) string {
	return strings.TrimSpace(s)
}

// Token trims and lowercases an enumerated token (role, product, content
// type, status).
func Token(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
