package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Listings and comments are plain text, any markup is stripped
var textPolicy = bluemonday.StrictPolicy()

const maxSanitizeRounds = 8

// cleanText strips markup and stores the text unescaped. Unescaping can turn
// typed entities like "&lt;b&gt;" into tags again, so it repeats until the
// text stops changing.
func cleanText(s string) string {
	for range maxSanitizeRounds {
		out := html.UnescapeString(textPolicy.Sanitize(s))
		if out == s {
			return strings.TrimSpace(out)
		}

		s = out
	}

	// Nested deeper than anyone types by hand, keep it escaped
	return strings.TrimSpace(textPolicy.Sanitize(s))
}
