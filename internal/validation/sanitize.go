package validation

import (
	"regexp"
	"strings"
)

var (
	angleBrackets = regexp.MustCompile(`[<>]`)
	jsProtocol    = regexp.MustCompile(`(?i)javascript:`)
	inlineHandler = regexp.MustCompile(`(?i)on\w+=`)

	suspiciousPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<script`),
		jsProtocol,
		inlineHandler,
		regexp.MustCompile(`(?i)eval\(`),
		regexp.MustCompile(`(?i)document\.`),
	}
)

// StripMarkup removes markup-like fragments but keeps surrounding spaces, so
// a value can be stored while the donor is still typing.
func StripMarkup(s string) string {
	s = angleBrackets.ReplaceAllString(s, "")
	s = jsProtocol.ReplaceAllString(s, "")
	return inlineHandler.ReplaceAllString(s, "")
}

// Sanitize strips markup-like fragments from user input and trims it.
func Sanitize(s string) string {
	return strings.TrimSpace(StripMarkup(s))
}

// DetectSuspicious reports whether any of the values looks like a script
// injection attempt. Callers must not echo the match back to the user.
func DetectSuspicious(values ...string) bool {
	joined := strings.Join(values, " ")
	for _, p := range suspiciousPatterns {
		if p.MatchString(joined) {
			return true
		}
	}
	return false
}
