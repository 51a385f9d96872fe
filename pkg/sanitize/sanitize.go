// Package sanitize strips markup and control characters from free-text user input.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	tagPattern     = regexp.MustCompile(`<[^>]*>`)
	controlPattern = regexp.MustCompile(`[\x00-\x1F]`)
)

// StripHTML removes tags and control characters and trims surrounding whitespace.
func StripHTML(input string) string {
	if input == "" {
		return ""
	}
	out := tagPattern.ReplaceAllString(input, "")
	out = controlPattern.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

// StripHTMLPtr applies StripHTML to an optional value. Blank results collapse to nil.
func StripHTMLPtr(input *string) *string {
	if input == nil {
		return nil
	}
	cleaned := StripHTML(*input)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
