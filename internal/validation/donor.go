package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxPhoneDigits caps a Brazilian number: two area digits plus nine for mobiles.
const MaxPhoneDigits = 11

var (
	nameChars  = regexp.MustCompile(`^[\p{L}\s\-']+$`)
	nameLetter = regexp.MustCompile(`\p{L}`)

	// local-part@domain with 63-character labels.
	emailPattern = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@" +
		"[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?" +
		"(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

	phonePattern = regexp.MustCompile(`^\(\d{2}\)\s\d{4,5}-\d{4}$`)
	nonDigits    = regexp.MustCompile(`\D`)
)

// NormalizeName is the stored form of a typed name.
func NormalizeName(raw string) string {
	return norm.NFC.String(Sanitize(raw))
}

// NormalizeEmail is the stored form of a typed e-mail address.
func NormalizeEmail(raw string) string {
	return strings.ToLower(Sanitize(raw))
}

// ValidateName checks a required name. A blank name is neutral rather than
// an error so the field is not flagged before the donor starts typing.
func (r *Rules) ValidateName(raw string) Result {
	v := NormalizeName(raw)
	if v == "" {
		return blank(false)
	}

	n := utf8.RuneCountInString(v)
	switch {
	case n < r.NameMinLen:
		return invalid(fmt.Sprintf("Nome deve ter pelo menos %d caracteres", r.NameMinLen))
	case n > r.NameMaxLen:
		return invalid(fmt.Sprintf("Nome muito longo (máximo %d caracteres)", r.NameMaxLen))
	case !nameChars.MatchString(v):
		return invalid("Nome deve conter apenas letras, espaços, hífens e apóstrofos")
	case !nameLetter.MatchString(v):
		return invalid("Nome deve conter pelo menos uma letra")
	}
	return valid()
}

// ValidateEmail checks a required e-mail address.
func (r *Rules) ValidateEmail(raw string) Result {
	v := NormalizeEmail(raw)
	if v == "" {
		return invalid("E-mail é obrigatório")
	}
	if len(v) > r.EmailMaxLen {
		return invalid("E-mail muito longo")
	}
	if !emailPattern.MatchString(v) {
		return invalid("Por favor, insira um e-mail válido")
	}

	domain := v[strings.LastIndexByte(v, '@')+1:]
	if _, ok := r.SuspiciousDomains[domain]; ok {
		return invalid("Verifique se o e-mail está correto")
	}
	return valid()
}

// ValidatePhone checks an optional phone number already in display format.
func (r *Rules) ValidatePhone(raw string) Result {
	v := strings.TrimSpace(raw)
	if v == "" {
		return blank(true)
	}
	if !phonePattern.MatchString(v) {
		return invalid("Formato: (21) 99999-9999")
	}

	digits := nonDigits.ReplaceAllString(v, "")
	area, err := strconv.Atoi(digits[:2])
	if err != nil || area < r.AreaCodeMin || area > r.AreaCodeMax {
		return invalid("Código de área inválido")
	}
	if len(digits) == MaxPhoneDigits && digits[2] != '9' {
		return invalid("Número de celular deve começar com 9")
	}
	return valid()
}

// FormatPhone re-inserts separators while the donor types:
//
//	2            -> 2
//	219999       -> (21) 9999
//	2199999      -> (21) 9999-9
//	21999999999  -> (21) 99999-9999
func FormatPhone(raw string) string {
	d := nonDigits.ReplaceAllString(raw, "")
	if len(d) > MaxPhoneDigits {
		d = d[:MaxPhoneDigits]
	}

	switch {
	case len(d) <= 2:
		return d
	case len(d) <= 6:
		return "(" + d[:2] + ") " + d[2:]
	case len(d) <= 10:
		return "(" + d[:2] + ") " + d[2:6] + "-" + d[6:]
	default:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	}
}
