// ABOUTME: Cleans up feed entry descriptions for terminal output
// ABOUTME: Detects HTML summaries and converts them to plain markdown text

package content

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// htmlTagPattern matches common HTML tags found in feed summaries
var htmlTagPattern = regexp.MustCompile(`<\s*(p|div|span|a|br|img|h[1-6]|ul|ol|li|table|tr|td|th|strong|em|b|i|code|pre|blockquote)[^>]*>`)

var blankLines = regexp.MustCompile(`\n{3,}`)

// IsHTML checks if a description appears to be HTML rather than plain text
func IsHTML(s string) bool {
	if strings.Contains(s, "<!DOCTYPE") || strings.Contains(s, "<html") {
		return true
	}
	return htmlTagPattern.MatchString(s)
}

// Clean normalizes an entry description for display. HTML is converted to
// markdown text; plain text is returned trimmed. Conversion failures fall
// back to the original description rather than dropping it.
func Clean(description string) string {
	if description == "" {
		return description
	}

	if !IsHTML(description) {
		return strings.TrimSpace(description)
	}

	markdown, err := htmltomarkdown.ConvertString(description)
	if err != nil {
		return strings.TrimSpace(description)
	}

	markdown = blankLines.ReplaceAllString(markdown, "\n\n")
	return strings.TrimSpace(markdown)
}
