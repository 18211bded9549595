package util

import "strings"

// Excerpt returns the first max runes of s followed by an ellipsis marker.
// The marker is always appended so excerpts are recognizable as partial text.
func Excerpt(s string, max int) string {
	runes := []rune(s)
	if len(runes) > max {
		runes = runes[:max]
	}
	return string(runes) + "..."
}

// TruncateRunes cuts s to at most max runes without an ellipsis marker.
func TruncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// CollapseWhitespace flattens newlines and repeated spaces into single
// spaces, the normal form for model-generated one-line descriptions.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
