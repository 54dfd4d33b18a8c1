// internal/app/system/normalize/normalize.go
//
// Package normalize holds the canonical input-normalization rules used
// across handlers and stores. Every piece of user input passes through
// exactly one of these functions before it is compared, stored, or
// indexed, so the rules live in one place.
package normalize

import "strings"

// Email lowercases and trims an email address. All email comparisons
// and lookups use this form.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Fold returns the case-insensitive comparison form of a string. Used
// for the *_ci shadow fields (store names, categories) backing unique
// indexes and filters.
func Fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Category trims a product category, preserving display case. The
// folded form for filtering comes from Fold.
func Category(s string) string {
	return strings.TrimSpace(s)
}

// QueryParam trims a free-text query parameter, preserving case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
