// Package content extracts the human-visible part of message content.
// Stored user turns can embed the text of an attached file between
// <document> and </document> markers; that payload is never displayed.
package content

import (
	"regexp"
	"strings"
)

// documentBlock matches one complete payload block, case-insensitively and
// across newlines. The shortest match wins so adjacent blocks stay separate.
// A compiled regexp carries no scan state, so it is safe to share.
var documentBlock = regexp.MustCompile(`(?is)<document>.*?</document>`)

// DisplayText is the result of stripping document payloads from content.
type DisplayText struct {
	Text    string
	HasFile bool // At least one well-formed payload block was present
}

// ExtractDisplayText removes every document payload block from content and
// trims the remainder. Unterminated markers are left in place.
func ExtractDisplayText(content string) DisplayText {
	if content == "" {
		return DisplayText{}
	}

	return DisplayText{
		Text:    strings.TrimSpace(documentBlock.ReplaceAllString(content, "")),
		HasFile: documentBlock.MatchString(content),
	}
}

// HasDocumentBlock reports whether content embeds at least one payload block.
func HasDocumentBlock(content string) bool {
	return content != "" && documentBlock.MatchString(content)
}
