package validation

import (
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Display names: letters, digits, spaces and - _ ' . only.
var displayNameRe = regexp.MustCompile(`^[\p{L}\p{N} \-_'.]+$`)

const maxDisplayName = 40

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

func IsValidDisplayName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && len([]rune(name)) <= maxDisplayName && displayNameRe.MatchString(name)
}

// NormalizeSpaces collapses runs of whitespace and trims the ends.
func NormalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
