package utils

import (
	"regexp"
	"strings"
)

var (
	emailRegex   = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	nonWordRegex = regexp.MustCompile(`\W+`)
)

// IsEmail reports whether s looks like a single bare email address.
func IsEmail(s string) bool {
	s = strings.TrimSpace(s)
	return emailRegex.FindString(s) == s && s != ""
}

// ExtractEmail returns the first email address embedded in s, or "".
func ExtractEmail(s string) string {
	return emailRegex.FindString(s)
}

// NameFromEmail derives a display name from an email's local part:
// "jane.doe83@x.com" becomes "Jane Doe83".
func NameFromEmail(email string) string {
	local := email
	if at := strings.Index(email, "@"); at >= 0 {
		local = email[:at]
	}
	tokens := nonWordRegex.Split(local, -1)
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		parts = append(parts, strings.ToUpper(tok[:1])+strings.ToLower(tok[1:]))
	}
	return strings.Join(parts, " ")
}

// SplitEmailList normalizes a pasted block of addresses separated by
// commas, semicolons or line breaks, tolerating "Name <addr>" forms.
func SplitEmailList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r' || r == '\t' || r == ' '
	})
	seen := make(map[string]bool)
	var emails []string
	for _, f := range fields {
		f = strings.Trim(f, "<>\"'")
		// bare name words around "Name <addr>" forms carry no address
		if !strings.Contains(f, "@") {
			continue
		}
		email := strings.ToLower(f)
		if seen[email] {
			continue
		}
		seen[email] = true
		emails = append(emails, email)
	}
	return emails
}
