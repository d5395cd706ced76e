// Package validation holds the donation form rules: amount parsing and
// limits, donor field checks, input sanitizing and the keystroke filters.
// Every function here is pure; decoration of the page happens elsewhere.
package validation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	DefaultMinAmount         = "5"
	DefaultMaxAmount         = "10000"
	DefaultPresets           = []string{"25", "50", "100", "250"}
	DefaultSuspiciousDomains = []string{"gmial.com", "gmai.com", "hotmial.com", "yahooo.com"}
)

// Rules is the single source of truth for what the form accepts.
// A Rules value is never mutated after construction, so it can be shared
// between sessions and swapped atomically on config reload.
type Rules struct {
	MinAmount         decimal.Decimal
	MaxAmount         decimal.Decimal
	Presets           []decimal.Decimal
	SuspiciousDomains map[string]struct{}

	NameMinLen  int
	NameMaxLen  int
	EmailMaxLen int
	AreaCodeMin int
	AreaCodeMax int
}

// NewRules parses the configured limits. Empty values fall back to the defaults.
func NewRules(minAmount, maxAmount string, presets, suspiciousDomains []string) (*Rules, error) {
	if minAmount == "" {
		minAmount = DefaultMinAmount
	}
	if maxAmount == "" {
		maxAmount = DefaultMaxAmount
	}
	if len(presets) == 0 {
		presets = DefaultPresets
	}
	if len(suspiciousDomains) == 0 {
		suspiciousDomains = DefaultSuspiciousDomains
	}

	lo, err := decimal.NewFromString(strings.TrimSpace(minAmount))
	if err != nil {
		return nil, fmt.Errorf("invalid minimum amount %q: %w", minAmount, err)
	}
	hi, err := decimal.NewFromString(strings.TrimSpace(maxAmount))
	if err != nil {
		return nil, fmt.Errorf("invalid maximum amount %q: %w", maxAmount, err)
	}
	if !lo.IsPositive() || hi.LessThan(lo) {
		return nil, fmt.Errorf("amount range [%s, %s] is empty", lo, hi)
	}

	r := &Rules{
		MinAmount:         lo,
		MaxAmount:         hi,
		SuspiciousDomains: make(map[string]struct{}, len(suspiciousDomains)),
		NameMinLen:        2,
		NameMaxLen:        100,
		EmailMaxLen:       254,
		AreaCodeMin:       11,
		AreaCodeMax:       99,
	}

	for _, p := range presets {
		d, err := decimal.NewFromString(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid preset amount %q: %w", p, err)
		}
		if d.LessThan(lo) || d.GreaterThan(hi) {
			return nil, fmt.Errorf("preset amount %s outside [%s, %s]", d, lo, hi)
		}
		r.Presets = append(r.Presets, d)
	}

	for _, d := range suspiciousDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			r.SuspiciousDomains[d] = struct{}{}
		}
	}

	return r, nil
}

// MustDefaultRules returns the rules the form ships with.
func MustDefaultRules() *Rules {
	r, err := NewRules("", "", nil, nil)
	if err != nil {
		panic(err)
	}
	return r
}

// IsPreset reports whether d is one of the preset buttons.
func (r *Rules) IsPreset(d decimal.Decimal) bool {
	for _, p := range r.Presets {
		if p.Equal(d) {
			return true
		}
	}
	return false
}
