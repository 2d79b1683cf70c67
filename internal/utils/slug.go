package utils

import (
	"regexp"
	"strings"
)

var nonAlphanumericRuns = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateSlug derives a URL-safe slug: lowercase, non-alphanumeric runs
// collapsed to a single hyphen, leading/trailing hyphens trimmed. Input that
// contains no alphanumerics yields the empty string.
func GenerateSlug(name string) string {
	slug := strings.ToLower(name)
	slug = nonAlphanumericRuns.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
