package security

import (
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var htmlPolicy = bluemonday.StrictPolicy()

const maxTextLength = 2000

// SanitizeText normalizes free-form user text (invitation messages,
// imported contact fields): strips HTML, null bytes and surrounding
// whitespace, and caps the length.
func SanitizeText(input string) string {
	input = htmlPolicy.Sanitize(input)
	input = strings.ReplaceAll(input, "\x00", "")
	input = strings.TrimSpace(input)

	if len(input) > maxTextLength {
		// Back up to a rune boundary so the cut never leaves a
		// partial multi-byte sequence behind.
		cut := maxTextLength
		for cut > 0 && !utf8.RuneStart(input[cut]) {
			cut--
		}
		input = input[:cut]
	}

	return input
}
