// internal/app/system/htmlsanitize/htmlsanitize.go
//
// Package htmlsanitize strips dangerous markup from user-authored HTML.
// Product descriptions are the main consumer: sellers may use basic
// formatting, but scripts, event handlers, and javascript: URLs are
// removed before the text is stored.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowTables()
	// Sellers lay out size/spec tables with inline styles.
	p.AllowAttrs("style").OnElements("table", "thead", "tbody", "tr", "th", "td")
	return p
}

// Sanitize returns s with unsafe HTML removed. Safe formatting tags
// (paragraphs, emphasis, lists, tables, links) are preserved.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}
