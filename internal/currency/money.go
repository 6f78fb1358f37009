package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/carelink/benefitlimits/internal/domain"
)

// DefaultCode is used when a plan does not name its currency.
const DefaultCode = "MYR"

// symbols maps ISO codes to the prefix shown on plan screens.
var symbols = map[string]string{
	"MYR": "RM",
	"SGD": "S$",
	"USD": "$",
	"IDR": "Rp",
	"THB": "฿",
}

// Symbol returns the display prefix for a currency code, falling back to
// the code itself.
func Symbol(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = DefaultCode
	}
	if s, ok := symbols[code]; ok {
		return s
	}
	return code
}

// Format renders minor units as e.g. "RM 1,500.00".
func Format(amount domain.Cents, code string) string {
	return Symbol(code) + " " + FormatAmount(amount)
}

// FormatAmount renders minor units as "1,500.00" with thousands separators.
func FormatAmount(amount domain.Cents) string {
	sign := ""
	v := int64(amount)
	if v < 0 {
		sign = "-"
		v = -v
	}
	major := fmt.Sprintf("%d", v/100)
	var b strings.Builder
	for i, r := range major {
		if i > 0 && (len(major)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s%s.%02d", sign, b.String(), v%100)
}

// ParseMajor converts a major-unit string such as "1500", "1,500.5" or
// "1500.50" to minor units. Negative values and sub-cent precision are
// rejected.
func ParseMajor(s string) (domain.Cents, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if clean == "" {
		return 0, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q must not be negative", s)
	}
	minor := d.Shift(2)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has more than two decimal places", s)
	}
	return domain.Cents(minor.IntPart()), nil
}

// Percent renders a utilization percentage with one decimal, e.g. "10.0%".
func Percent(pct float64) string {
	return decimal.NewFromFloat(pct).StringFixed(1) + "%"
}
