package export

import (
	"html"
	"regexp"
	"strings"
)

// DefaultNoteLength is the maximum length of an exported note.
const DefaultNoteLength = 500

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// StripHTML turns an HTML fragment into a single line of plain text of at most
// maxLength characters. It is a tag stripper, not a parser: malformed markup may
// leave stray characters. A negative maxLength disables truncation.
func StripHTML(text string, maxLength int) string {
	if text == "" {
		return ""
	}

	text = tagPattern.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	// Fields splits on Unicode whitespace, which also covers the NBSP from &nbsp;.
	text = strings.Join(strings.Fields(text), " ")

	if maxLength < 0 {
		return text
	}
	return truncate(text, maxLength)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
