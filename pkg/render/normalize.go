package render

import "regexp"

var (
	spaceRunPattern     = regexp.MustCompile(` {2,}`)
	newlineRunPattern   = regexp.MustCompile(`\n{3,}`)
	markdownLinkPattern = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
)

// NormalizeWhitespace collapses runs of spaces to a single space and
// runs of three or more newlines to exactly two. The operation is
// idempotent.
func NormalizeWhitespace(text string) string {
	text = spaceRunPattern.ReplaceAllString(text, " ")
	return newlineRunPattern.ReplaceAllString(text, "\n\n")
}

// StripLinks replaces every markdown link [text](target) with just its
// text.
func StripLinks(text string) string {
	return markdownLinkPattern.ReplaceAllString(text, "$1")
}
