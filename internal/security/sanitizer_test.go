package security

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Strips markup",
			input: "<script>alert(1)</script>hello",
			want:  "hello",
		},
		{
			name:  "Trims whitespace",
			input: "  hello  ",
			want:  "hello",
		},
		{
			name:  "Plain text unchanged",
			input: "see you at the café",
			want:  "see you at the café",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeText_TruncatesOnRuneBoundary(t *testing.T) {
	// The é starts at the last byte inside the cap, so a byte-index cut
	// would split it in two.
	input := strings.Repeat("a", maxTextLength-1) + "é tail"

	got := SanitizeText(input)
	if len(got) > maxTextLength {
		t.Errorf("len = %d, want <= %d", len(got), maxTextLength)
	}
	if !utf8.ValidString(got) {
		t.Error("truncated text is not valid UTF-8")
	}
	if got != strings.Repeat("a", maxTextLength-1) {
		t.Errorf("cut landed mid-rune: tail = %q", got[len(got)-4:])
	}
}
