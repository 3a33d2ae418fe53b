// Package htmlsanitize cleans user supplied text before it is stored.
//
// Descriptions may carry a small amount of formatting and go through the
// bluemonday UGC policy. Names, slugs and record attributes are plain text:
// every tag is stripped and entities are decoded back to the raw characters.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugc    = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()
)

// Sanitize returns s with unsafe HTML removed. Safe formatting tags are kept.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return ugc.Sanitize(s)
}

// PlainText strips all markup from s and trims surrounding whitespace.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// PlainTextMap applies PlainText to every key and value. Entries whose key is
// empty after cleaning are dropped.
func PlainTextMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		key := PlainText(k)
		if key == "" {
			continue
		}
		out[key] = PlainText(v)
	}
	return out
}
