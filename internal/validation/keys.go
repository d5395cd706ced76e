package validation

import (
	"unicode"
	"unicode/utf8"

	"donation-form/internal/models"
)

// Editing and navigation keys pass every filter.
var editingKeys = map[string]bool{
	"Backspace":  true,
	"Delete":     true,
	"ArrowLeft":  true,
	"ArrowRight": true,
	"Tab":        true,
}

// AllowKey reports whether a keystroke (a DOM KeyboardEvent.key value) may
// reach the field. Fields without a filter accept everything.
func AllowKey(field models.Field, key string) bool {
	if editingKeys[key] {
		return true
	}

	r, size := utf8.DecodeRuneInString(key)
	if r == utf8.RuneError || size != len(key) {
		return field == models.FieldEmail
	}

	switch field {
	case models.FieldAmount:
		return isASCIIDigit(r) || r == ',' || r == '.'
	case models.FieldName:
		return unicode.IsLetter(r) || unicode.IsSpace(r) || r == '-' || r == '\''
	case models.FieldPhone:
		return isASCIIDigit(r) || r == ' ' || r == '(' || r == ')' || r == '-'
	}
	return true
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
