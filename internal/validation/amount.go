package validation

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	plainNumber = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)$`)
	ptBR        = message.NewPrinter(language.BrazilianPortuguese)
	thousand    = decimal.NewFromInt(1000)
)

// ParseAmount reads a typed amount. It accepts an optional "R$" prefix and
// either a comma or a dot as decimal separator.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	s = strings.Replace(s, ",", ".", 1)
	if !plainNumber.MatchString(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ValidateAmount parses and range-checks a custom amount. The amount is
// rounded to cents first, the same way FormatCurrency displays it. The
// returned amount is only meaningful when the result is valid.
func (r *Rules) ValidateAmount(raw string) (decimal.Decimal, Result) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, blank(false)
	}
	d, ok := ParseAmount(raw)
	if !ok {
		return decimal.Zero, invalid(MsgAmountInvalid)
	}
	d = d.Round(2)
	return d, r.CheckAmount(d)
}

// CheckAmount applies the donation range to an already parsed amount.
// Both bounds are inclusive.
func (r *Rules) CheckAmount(d decimal.Decimal) Result {
	switch {
	case !d.IsPositive():
		return invalid(MsgAmountInvalid)
	case d.LessThan(r.MinAmount):
		return invalid("Doação abaixo do valor mínimo " + FormatLimit(r.MinAmount))
	case d.GreaterThan(r.MaxAmount):
		return invalid("Para doações acima de " + FormatLimit(r.MaxAmount) + ", contate-nos para valores maiores")
	}
	return valid()
}

// FormatCurrency renders the canonical display "R$ 50,00". Digits are not
// grouped so the result parses back with ParseAmount.
func FormatCurrency(d decimal.Decimal) string {
	return "R$ " + strings.Replace(d.StringFixed(2), ".", ",", 1)
}

// FormatLimit renders a limit for messages using pt-BR grouping:
// R$5,00 and R$10.000.
func FormatLimit(d decimal.Decimal) string {
	if d.IsInteger() && d.GreaterThanOrEqual(thousand) {
		return "R$" + ptBR.Sprintf("%d", d.IntPart())
	}
	return "R$" + ptBR.Sprintf("%.2f", d.InexactFloat64())
}

const MsgAmountInvalid = "Valor inválido: informe um número maior que zero"
